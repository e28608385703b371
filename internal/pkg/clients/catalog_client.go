package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// CatalogClient calls the music catalog service for song and album metadata.
// All lookups degrade to empty results on communication errors; receipt and
// display enrichment must not fail a committed purchase.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a client for the catalog service at the given base
// URL (e.g. http://catalog-service:9002/api).
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetSongByID fetches song metadata, or an empty map on error.
func (c *CatalogClient) GetSongByID(songID uint) map[string]interface{} {
	return c.getEntity(fmt.Sprintf("%s/songs/%d", c.baseURL, songID))
}

// GetAlbumByID fetches album metadata, or an empty map on error.
func (c *CatalogClient) GetAlbumByID(albumID uint) map[string]interface{} {
	return c.getEntity(fmt.Sprintf("%s/albums/%d", c.baseURL, albumID))
}

func (c *CatalogClient) getEntity(url string) map[string]interface{} {
	var entity map[string]interface{}
	if err := c.getJSON(url, &entity); err != nil {
		log.Warnf("[CatalogClient] Could not fetch %s: %v", url, err)
		return map[string]interface{}{}
	}
	if entity == nil {
		return map[string]interface{}{}
	}
	return entity
}

func (c *CatalogClient) getJSON(url string, out interface{}) error {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
