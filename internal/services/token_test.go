package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/mocks"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type tokenFixture struct {
	db        *store.Store
	authority *token.Authority
	login     *LoginService
	users     *UserService
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()
	db := setupTestStore(t)
	authority := newTestAuthority()
	return &tokenFixture{
		db:        db,
		authority: authority,
		login:     NewLoginService(authority, db, metrics.NewNoopMetrics()),
		users:     newMemoryUserService(db),
	}
}

func (f *tokenFixture) service(rotation bool) *TokenService {
	return NewTokenService(f.authority, f.db, f.users, rotation, metrics.NewNoopMetrics())
}

func TestCreateAccessToken_IssuesTokenForStoredIdentity(t *testing.T) {
	f := newTokenFixture(t)
	u := makeTestUser(t, f.db)
	ctx := context.Background()

	tokens, err := f.login.IssueLoginTokens(ctx, u)
	require.NoError(t, err)

	result, err := f.service(false).CreateAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Empty(t, result.RefreshToken)

	id, err := f.authority.ResolveIdentityID(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	// Without rotation the same refresh token keeps working
	_, err = f.service(false).CreateAccessToken(ctx, tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestCreateAccessToken_UnknownRefreshToken(t *testing.T) {
	f := newTokenFixture(t)
	u := makeTestUser(t, f.db)

	// Signed by us but never stored
	unstored, err := f.authority.IssueRefreshToken(u, time.Hour)
	require.NoError(t, err)

	_, err = f.service(false).CreateAccessToken(context.Background(), unstored)
	assert.ErrorIs(t, err, ErrTokenNotRecognized)
}

func TestCreateAccessToken_SupersededRefreshToken(t *testing.T) {
	f := newTokenFixture(t)
	u := makeTestUser(t, f.db)
	ctx := context.Background()

	first, err := f.login.IssueLoginTokens(ctx, u)
	require.NoError(t, err)
	_, err = f.login.IssueLoginTokens(ctx, u)
	require.NoError(t, err)

	_, err = f.service(false).CreateAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotRecognized)
}

func TestCreateAccessToken_InvalidToken(t *testing.T) {
	f := newTokenFixture(t)
	u := makeTestUser(t, f.db)

	expired, err := f.authority.IssueRefreshToken(u, -time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.db.UpsertRefreshToken(context.Background(), u.ID, expired))

	foreign := token.NewAuthority(
		token.NewCodec("another-secret", "http://localhost:8080"),
		time.Hour, time.Hour, metrics.NewNoopMetrics(),
	)
	forged, err := foreign.IssueRefreshToken(u, time.Hour)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":     "",
		"garbage":   "a.b.c",
		"expired":   expired,
		"wrong key": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.service(false).CreateAccessToken(context.Background(), raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCreateAccessToken_IdentityNotFound(t *testing.T) {
	f := newTokenFixture(t)
	ghost := &models.User{ID: 999, Email: "ghost@example.com"}
	ctx := context.Background()

	refresh, err := f.authority.IssueRefreshToken(ghost, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.db.UpsertRefreshToken(ctx, ghost.ID, refresh))

	_, err = f.service(false).CreateAccessToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestCreateAccessToken_StoreErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTokens := mocks.NewMockRefreshTokenStore(ctrl)
	authority := newTestAuthority()
	dbErr := errors.New("connection refused")

	refresh, err := authority.IssueRefreshToken(&models.User{ID: 1, Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	mockTokens.EXPECT().FindRefreshTokenByToken(gomock.Any(), refresh).Return(nil, dbErr)

	svc := NewTokenService(authority, mockTokens, nil, false, metrics.NewNoopMetrics())
	_, err = svc.CreateAccessToken(context.Background(), refresh)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrTokenNotRecognized)
}

func TestCreateAccessToken_RotationSupersedesOldToken(t *testing.T) {
	f := newTokenFixture(t)
	u := makeTestUser(t, f.db)
	ctx := context.Background()
	svc := f.service(true)

	tokens, err := f.login.IssueLoginTokens(ctx, u)
	require.NoError(t, err)

	result, err := svc.CreateAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, result.RefreshToken)
	assert.NotEqual(t, tokens.RefreshToken, result.RefreshToken)
	assert.Equal(t, int((24 * time.Hour).Seconds()), svc.RefreshTokenMaxAge())

	stored, err := f.db.FindRefreshTokenByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, result.RefreshToken, stored.Token)

	_, err = svc.CreateAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotRecognized)

	_, err = svc.CreateAccessToken(ctx, result.RefreshToken)
	assert.NoError(t, err)
}

func TestCreateAccessToken_RecordsRefreshOutcome(t *testing.T) {
	f := newTokenFixture(t)
	u := makeTestUser(t, f.db)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockRecorder(ctrl)

	tokens, err := f.login.IssueLoginTokens(ctx, u)
	require.NoError(t, err)

	gomock.InOrder(
		mockMetrics.EXPECT().RecordTokenRefresh(true),
		mockMetrics.EXPECT().RecordTokenRefresh(false),
	)

	svc := NewTokenService(f.authority, f.db, f.users, false, mockMetrics)
	_, err = svc.CreateAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	_, err = svc.CreateAccessToken(ctx, "garbage")
	require.Error(t, err)
}
