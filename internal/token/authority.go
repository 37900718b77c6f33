package token

import (
	"errors"
	"time"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/models"
)

// Token kinds used for metrics labels
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Authority issues and checks tokens for identities.
// Access and refresh tokens share one claim shape; a refresh token is
// recognized only by its presence in the refresh token store.
type Authority struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    core.Recorder
}

// NewAuthority creates a token authority with the default lifetimes
func NewAuthority(
	codec *Codec,
	accessTTL, refreshTTL time.Duration,
	metrics core.Recorder,
) *Authority {
	return &Authority{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		metrics:    metrics,
	}
}

// AccessTokenTTL returns the configured access token lifetime
func (a *Authority) AccessTokenTTL() time.Duration { return a.accessTTL }

// RefreshTokenTTL returns the configured refresh token lifetime
func (a *Authority) RefreshTokenTTL() time.Duration { return a.refreshTTL }

// IssueAccessToken issues an access token for user valid for ttl
func (a *Authority) IssueAccessToken(user *models.User, ttl time.Duration) (string, error) {
	return a.issue(KindAccess, user, ttl)
}

// IssueRefreshToken issues a refresh token for user valid for ttl
func (a *Authority) IssueRefreshToken(user *models.User, ttl time.Duration) (string, error) {
	return a.issue(KindRefresh, user, ttl)
}

func (a *Authority) issue(kind string, user *models.User, ttl time.Duration) (string, error) {
	if user == nil {
		return "", ErrTokenGeneration
	}

	start := time.Now()
	signed, err := a.codec.Issue(Claims{Subject: user.Email, UserID: user.ID}, ttl)
	if err != nil {
		return "", err
	}
	a.metrics.RecordTokenIssued(kind, time.Since(start))
	return signed, nil
}

// Validate reports whether the token is authentic and unexpired
func (a *Authority) Validate(tokenString string) bool {
	_, err := a.claims(tokenString)
	return err == nil
}

// AuthenticatedIdentity returns a principal built from the token claims.
// No database lookup is made.
func (a *Authority) AuthenticatedIdentity(tokenString string) (*auth.Principal, error) {
	claims, err := a.claims(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{
		Subject: claims.Subject,
		UserID:  claims.UserID,
		Token:   tokenString,
	}, nil
}

// ResolveIdentityID returns the identity id carried by the token
func (a *Authority) ResolveIdentityID(tokenString string) (uint, error) {
	claims, err := a.claims(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// claims verifies the token once and records the validation outcome
func (a *Authority) claims(tokenString string) (*Claims, error) {
	start := time.Now()
	claims, err := a.codec.ExtractClaims(tokenString)

	result := "valid"
	switch {
	case errors.Is(err, ErrExpiredToken):
		result = "expired"
	case err != nil:
		result = "invalid"
	}
	a.metrics.RecordTokenValidation(result, time.Since(start))

	return claims, err
}
