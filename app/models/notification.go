package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationTypePurchase    = "PURCHASE_NOTIFICATION"
	NotificationTypePayment     = "PAYMENT_NOTIFICATION"
	NotificationTypeOrderStatus = "ORDER_STATUS_NOTIFICATION"
	NotificationTypeRefund      = "REFUND_NOTIFICATION"
)

const (
	ReferenceTypeOrder   = "ORDER"
	ReferenceTypePayment = "PAYMENT"
)

// Notification is the in-app record of a message delivered (or attempted) to a
// user, kept alongside the push delivery so clients can list past events.
type Notification struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Type          string         `gorm:"type:varchar(50);not null" json:"type"`
	Title         string         `gorm:"type:varchar(255)" json:"title"`
	Body          string         `gorm:"type:text" json:"body"`
	ReferenceID   uint           `json:"reference_id"`
	ReferenceType string         `gorm:"type:varchar(32)" json:"reference_type"`
	IsRead        bool           `gorm:"default:false" json:"is_read"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead flags the notification as read.
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}
