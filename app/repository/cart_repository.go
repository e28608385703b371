package repository

import (
	"errors"

	"github.com/audira/commerce-service/app/models"
	"gorm.io/gorm"
)

// cartRepository implements the CartRepository interface
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository instance
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearByUserID removes all items from the user's cart but keeps the cart row.
// A user without a cart is treated as already cleared.
func (r *cartRepository) ClearByUserID(userID uint) error {
	var cart models.Cart
	err := r.db.Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}
