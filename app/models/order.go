package models

import "time"

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	OrderItemTypeSong  = "SONG"
	OrderItemTypeAlbum = "ALBUM"
)

// Order is a purchase intent. The payment service only reads order content and
// transitions the Status field; everything else belongs to the order flow that
// created it.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_number"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	Status      string      `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	TotalAmount int64       `gorm:"not null" json:"total_amount"` // cents
	Items       []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OrderID  uint   `gorm:"not null;index" json:"order_id"`
	ItemID   uint   `gorm:"not null" json:"item_id"`
	ItemType string `gorm:"type:varchar(16);not null" json:"item_type"`
	Title    string `gorm:"type:varchar(255)" json:"title"`
	Price    int64  `gorm:"not null" json:"price"` // cents
}
