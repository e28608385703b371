package models

import "time"

// FcmToken is a registered push-delivery address for one of a user's devices.
// Tokens are unique across the system; the notification dispatcher deletes a
// token when the provider reports it as permanently invalid.
type FcmToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(512);not null;uniqueIndex" json:"token"`
	Device    string    `gorm:"type:varchar(64)" json:"device,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
