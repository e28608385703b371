package repository

import (
	"github.com/audira/commerce-service/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// libraryRepository implements the LibraryRepository interface
type libraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository creates a new library repository instance
func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

// GrantItems inserts library entries, silently skipping items the user already
// owns so a replayed grant stays idempotent.
func (r *libraryRepository) GrantItems(items []models.LibraryItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "item_id"},
			{Name: "item_type"},
		},
		DoNothing: true,
	}).Create(&items).Error
}

func (r *libraryRepository) GetByUserID(userID uint) ([]models.LibraryItem, error) {
	var items []models.LibraryItem
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	return items, err
}
