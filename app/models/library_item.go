package models

import "time"

// LibraryItem is one purchasable granted to a user's library. The unique index
// over (user_id, item_id, item_type) makes repeated grants idempotent.
type LibraryItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_library_user_item,priority:1" json:"user_id"`
	ItemID    uint      `gorm:"not null;uniqueIndex:ux_library_user_item,priority:2" json:"item_id"`
	ItemType  string    `gorm:"type:varchar(16);not null;uniqueIndex:ux_library_user_item,priority:3" json:"item_type"`
	PaymentID uint      `gorm:"not null;index" json:"payment_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
