package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// UserDTO is the profile shape returned by the user service.
type UserDTO struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserClient calls the external user service for profile lookups.
type UserClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewUserClient creates a client for the user service at the given base URL
// (e.g. http://user-service:9001/api/users).
func NewUserClient(baseURL string) *UserClient {
	return &UserClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUserByID fetches a user profile. Communication and HTTP errors are
// wrapped; the caller decides whether a missing profile is fatal.
func (c *UserClient) GetUserByID(userID uint) (*UserDTO, error) {
	url := fmt.Sprintf("%s/%d", c.baseURL, userID)

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to user service at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned status %d for user %d", resp.StatusCode, userID)
	}

	var user UserDTO
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user service response: %w", err)
	}

	log.Debugf("[UserClient] Retrieved user %d (%s)", user.ID, user.Email)
	return &user, nil
}
