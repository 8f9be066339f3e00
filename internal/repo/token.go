package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/models"
)

func (r *GormRepo) SaveRefresh(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) RevokeRefreshByHash(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokenHash).
		Update("revoked", true).Error
}

func (r *GormRepo) refreshExpiredOrRevoked(db *gorm.DB, jti string) (bool, error) {
	var stored models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&stored).Error; err != nil {
		return false, err
	}
	if stored.ExpiresAt < time.Now().Unix() || stored.Revoked {
		return true, nil
	}
	return false, nil
}

// RotateRefresh revokes the old refresh token and stores the new one in a
// single transaction, so a replayed old token cannot race a rotation.
func (r *GormRepo) RotateRefresh(ctx context.Context, oldJTI string, newToken *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired, err := r.refreshExpiredOrRevoked(tx, oldJTI)
		if err != nil {
			return err
		}
		if expired {
			return ErrTokenRevoked
		}

		if err := tx.Model(&models.RefreshToken{}).
			Where("jti = ?", oldJTI).
			Update("revoked", true).Error; err != nil {
			return err
		}

		return tx.Create(newToken).Error
	})
}
