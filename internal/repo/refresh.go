package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_tracker/internal/models"
)

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// RotateRefreshToken consumes the token stored under oldHash and inserts next
// for the same user in one transaction. next.UserID is filled from the
// consumed token. Of two concurrent rotations of the same hash only one sees
// its delete affect a row; the other gets ErrNotFound.
//
// An expired token is deleted and the delete is committed before ErrExpired
// is returned.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken, now time.Time) error {
	expired := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Where("token_hash = ?", oldHash).First(&old).Error; err != nil {
			return notFound(err)
		}

		res := tx.Where("token_hash = ?", oldHash).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotFound
		}

		if !old.ExpiresAt.After(now) {
			expired = true
			return nil
		}

		next.UserID = old.UserID
		return tx.Create(next).Error
	})
	if err != nil {
		return err
	}
	if expired {
		return ErrExpired
	}
	return nil
}

// RevokeRefreshToken deletes the token if present. Absent tokens are not an
// error.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.RefreshToken{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
