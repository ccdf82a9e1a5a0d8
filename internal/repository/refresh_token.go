package repository

import (
	"context"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"gorm.io/gorm"
)

// RefreshTokenRepository defines the interface for refresh token storage.
type RefreshTokenRepository interface {
	ReplaceForUser(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type refreshTokenRepository struct {
	base
}

// ReplaceForUser drops the user's previous tokens and stores the new one
func (r *refreshTokenRepository) ReplaceForUser(ctx context.Context, token *models.RefreshToken) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", token.UserID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	return translate(err, "refreshToken.create")
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rt models.RefreshToken
	if err := db.Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, translate(err, "refreshToken.find")
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, id uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Delete(&models.RefreshToken{}, id).Error, "refreshToken.delete")
}

func (r *refreshTokenRepository) DeleteByUser(ctx context.Context, userID uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error, "refreshToken.delete")
}
