package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/finance_tracker/internal/models"
)

// Stores report missing records with repo.ErrNotFound. repo.GormRepo
// implements all four.

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

type RefreshTokenStore interface {
	SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error
	RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken, now time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type TransactionStore interface {
	ListTransactions(ctx context.Context, userID string, f models.TransactionFilter) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, apply func(*models.Transaction) error) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) (bool, error)
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) (bool, error)
	SeedCategories(ctx context.Context, defaults []models.Category) (bool, error)
}
