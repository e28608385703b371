package repository

import (
	"github.com/audira/commerce-service/app/models"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	GetByUserID(userID uint) ([]models.Order, error)
	Save(order *models.Order) error
}

// FcmTokenRepository defines the interface for device token operations
type FcmTokenRepository interface {
	Register(token *models.FcmToken) error
	GetByUserID(userID uint) ([]models.FcmToken, error)
	DeleteByToken(token string) error
}

// LibraryRepository defines the interface for user library operations
type LibraryRepository interface {
	GrantItems(items []models.LibraryItem) error
	GetByUserID(userID uint) ([]models.LibraryItem, error)
}

// CartRepository defines the interface for cart operations
type CartRepository interface {
	GetByUserID(userID uint) (*models.Cart, error)
	ClearByUserID(userID uint) error
}

// NotificationRepository defines the interface for in-app notification records
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	MarkRead(id uint) (*models.Notification, error)
}

// Repositories bundles all repository instances
type Repositories struct {
	Order        OrderRepository
	FcmToken     FcmTokenRepository
	Library      LibraryRepository
	Cart         CartRepository
	Notification NotificationRepository
}

// NewRepositories creates all repositories backed by the given DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:        NewOrderRepository(db),
		FcmToken:     NewFcmTokenRepository(db),
		Library:      NewLibraryRepository(db),
		Cart:         NewCartRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
