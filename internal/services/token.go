package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"
)

// identityLookup resolves a user by primary key; UserService satisfies it
type identityLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// AccessTokenResult is the outcome of a refresh exchange.
// RefreshToken is only set when rotation is enabled.
type AccessTokenResult struct {
	AccessToken  string
	RefreshToken string
}

// TokenService exchanges stored refresh tokens for new access tokens.
type TokenService struct {
	authority     *token.Authority
	refreshTokens core.RefreshTokenStore
	users         identityLookup
	rotation      bool
	metrics       core.Recorder
}

func NewTokenService(
	authority *token.Authority,
	refreshTokens core.RefreshTokenStore,
	users identityLookup,
	enableRotation bool,
	m core.Recorder,
) *TokenService {
	return &TokenService{
		authority:     authority,
		refreshTokens: refreshTokens,
		users:         users,
		rotation:      enableRotation,
		metrics:       m,
	}
}

// CreateAccessToken validates refreshToken, checks that it is the token
// currently stored for its identity and issues a fresh access token.
func (s *TokenService) CreateAccessToken(
	ctx context.Context,
	refreshToken string,
) (*AccessTokenResult, error) {
	// 1. Signature and expiry
	if !s.authority.Validate(refreshToken) {
		s.metrics.RecordTokenRefresh(false)
		return nil, ErrInvalidToken
	}

	// 2. Must be the identity's current refresh token
	stored, err := s.refreshTokens.FindRefreshTokenByToken(ctx, refreshToken)
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrTokenNotRecognized
		}
		s.metrics.RecordDatabaseQueryError("find_refresh_token")
		return nil, err
	}

	// 3. Identity must still exist
	user, err := s.users.GetUserByID(ctx, stored.UserID)
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, err
	}

	// 4. Issue
	access, err := s.authority.IssueAccessToken(user, s.authority.AccessTokenTTL())
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	result := &AccessTokenResult{AccessToken: access}

	if s.rotation {
		rotated, err := s.authority.IssueRefreshToken(user, s.authority.RefreshTokenTTL())
		if err != nil {
			s.metrics.RecordTokenRefresh(false)
			return nil, fmt.Errorf("issue refresh token: %w", err)
		}
		if err := s.refreshTokens.UpsertRefreshToken(ctx, user.ID, rotated); err != nil {
			s.metrics.RecordTokenRefresh(false)
			s.metrics.RecordDatabaseQueryError("upsert_refresh_token")
			return nil, fmt.Errorf("persist refresh token: %w", err)
		}
		result.RefreshToken = rotated
		log.Printf("[Token] Refresh token rotated for user_id=%d", user.ID)
	}

	s.metrics.RecordTokenRefresh(true)
	return result, nil
}

// RefreshTokenMaxAge is the cookie lifetime, in seconds, of a rotated refresh token
func (s *TokenService) RefreshTokenMaxAge() int {
	return int(s.authority.RefreshTokenTTL().Seconds())
}
