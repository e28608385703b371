package models

import "time"

// Cart holds the items a user intends to buy. One cart per user.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type CartItem struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CartID   uint   `gorm:"not null;index" json:"cart_id"`
	ItemID   uint   `gorm:"not null" json:"item_id"`
	ItemType string `gorm:"type:varchar(16);not null" json:"item_type"`
	Price    int64  `gorm:"not null" json:"price"` // cents
}
