package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Compile-time interface checks
var (
	_ core.RefreshTokenStore = (*Store)(nil)
	_ core.IdentityStore     = (*Store)(nil)
	_ core.ArticleStore      = (*Store)(nil)
)

type Store struct {
	db *gorm.DB
}

func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// A single connection serializes writers and keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	// Auto migrate
	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Article{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// notFound maps GORM's not found error onto ErrRecordNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// User operations
func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts user and fills its ID. A duplicate email yields ErrEmailConflict.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailConflict
		}
		return err
	}
	return nil
}

func (s *Store) UpdateUserNickname(ctx context.Context, id uint, nickname string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("nickname", nickname)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Refresh token operations
func (s *Store) FindRefreshTokenByUserID(
	ctx context.Context,
	userID uint,
) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rt).Error; err != nil {
		return nil, notFound(err)
	}
	return &rt, nil
}

func (s *Store) FindRefreshTokenByToken(
	ctx context.Context,
	token string,
) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, notFound(err)
	}
	return &rt, nil
}

// UpsertRefreshToken inserts or replaces the refresh token of userID in a
// single INSERT ... ON CONFLICT (user_id) DO UPDATE statement.
func (s *Store) UpsertRefreshToken(ctx context.Context, userID uint, token string) error {
	now := time.Now()
	rt := &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(rt).Error
}

func (s *Store) DeleteRefreshTokenByUserID(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// Article operations
func (s *Store) CreateArticle(ctx context.Context, article *models.Article) error {
	return s.db.WithContext(ctx).Create(article).Error
}

func (s *Store) GetArticleByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, notFound(err)
	}
	return &article, nil
}

// ListArticles returns one page of articles, newest first, and the total count
func (s *Store) ListArticles(
	ctx context.Context,
	offset, limit int,
) ([]models.Article, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var articles []models.Article
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *Store) UpdateArticle(ctx context.Context, article *models.Article) error {
	result := s.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", article.ID).
		Updates(map[string]any{
			"title":      article.Title,
			"content":    article.Content,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Article{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}
