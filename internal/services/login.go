package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/token"
)

// LoginTokens is the token pair handed to a client after a successful login
type LoginTokens struct {
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

// LoginService issues the token pair for an authenticated identity and records
// the refresh token as that identity's only valid one.
type LoginService struct {
	authority     *token.Authority
	refreshTokens core.RefreshTokenStore
	metrics       core.Recorder
}

func NewLoginService(
	authority *token.Authority,
	refreshTokens core.RefreshTokenStore,
	m core.Recorder,
) *LoginService {
	return &LoginService{
		authority:     authority,
		refreshTokens: refreshTokens,
		metrics:       m,
	}
}

// IssueLoginTokens issues an access and a refresh token for user and upserts
// the refresh token, replacing whatever the user held before.
func (s *LoginService) IssueLoginTokens(ctx context.Context, user *models.User) (*LoginTokens, error) {
	access, err := s.authority.IssueAccessToken(user, s.authority.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.authority.IssueRefreshToken(user, s.authority.RefreshTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.refreshTokens.UpsertRefreshToken(ctx, user.ID, refresh); err != nil {
		s.metrics.RecordDatabaseQueryError("upsert_refresh_token")
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &LoginTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   s.authority.RefreshTokenTTL(),
	}, nil
}

// Logout forgets the stored refresh token of the user so it can no longer be exchanged.
func (s *LoginService) Logout(ctx context.Context, userID uint) error {
	if err := s.refreshTokens.DeleteRefreshTokenByUserID(ctx, userID); err != nil {
		s.metrics.RecordDatabaseQueryError("delete_refresh_token")
		return err
	}
	s.metrics.RecordLogout()
	log.Printf("[Auth] Logout user_id=%d", userID)
	return nil
}
