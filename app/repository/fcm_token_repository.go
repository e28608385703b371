package repository

import (
	"github.com/audira/commerce-service/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fcmTokenRepository implements the FcmTokenRepository interface
type fcmTokenRepository struct {
	db *gorm.DB
}

// NewFcmTokenRepository creates a new device token repository instance
func NewFcmTokenRepository(db *gorm.DB) FcmTokenRepository {
	return &fcmTokenRepository{db: db}
}

// Register upserts a token row. Re-registering an existing token reassigns it
// to the posting user, which is what happens when a device changes accounts.
func (r *fcmTokenRepository) Register(token *models.FcmToken) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"device",
			"updated_at",
		}),
	}).Create(token).Error
}

func (r *fcmTokenRepository) GetByUserID(userID uint) ([]models.FcmToken, error) {
	var tokens []models.FcmToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

// DeleteByToken removes a token. Deleting a token that is already gone is not
// an error; concurrent multicast and single-send pruning both hit this path.
func (r *fcmTokenRepository) DeleteByToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&models.FcmToken{}).Error
}
