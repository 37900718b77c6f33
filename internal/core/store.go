package core

import (
	"context"

	"github.com/go-authgate/tokengate/internal/models"
)

// RefreshTokenStore persists the single active refresh token of each identity.
// Implementations report a missing row with store.ErrRecordNotFound.
type RefreshTokenStore interface {
	FindRefreshTokenByUserID(ctx context.Context, userID uint) (*models.RefreshToken, error)
	FindRefreshTokenByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// UpsertRefreshToken stores token for userID, replacing any previous token.
	// At most one row per identity exists after it returns, even when called concurrently.
	UpsertRefreshToken(ctx context.Context, userID uint, token string) error
	DeleteRefreshTokenByUserID(ctx context.Context, userID uint) error
}

// IdentityStore is the persistence contract for local identities.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserNickname(ctx context.Context, id uint, nickname string) error
}

// ArticleStore is the persistence contract for articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticleByID(ctx context.Context, id uint) (*models.Article, error)
	ListArticles(ctx context.Context, offset, limit int) ([]models.Article, int64, error)
	UpdateArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, id uint) error
}
