package services

import (
	"context"
	"errors"
	"testing"

	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/mocks"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestIssueLoginTokens_KeepsOneRefreshTokenPerIdentity(t *testing.T) {
	db := setupTestStore(t)
	authority := newTestAuthority()
	svc := NewLoginService(authority, db, metrics.NewNoopMetrics())
	u := makeTestUser(t, db)
	ctx := context.Background()

	first, err := svc.IssueLoginTokens(ctx, u)
	require.NoError(t, err)
	second, err := svc.IssueLoginTokens(ctx, u)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, authority.RefreshTokenTTL(), second.RefreshTTL)

	var count int64
	require.NoError(t, db.DB().Model(&models.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := db.FindRefreshTokenByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, second.RefreshToken, stored.Token)

	_, err = db.FindRefreshTokenByToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	id, err := authority.ResolveIdentityID(first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestIssueLoginTokens_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTokens := mocks.NewMockRefreshTokenStore(ctrl)
	mockMetrics := mocks.NewMockRecorder(ctrl)
	dbErr := errors.New("disk full")

	mockMetrics.EXPECT().RecordTokenIssued(gomock.Any(), gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().RecordDatabaseQueryError("upsert_refresh_token").Times(1)
	mockTokens.EXPECT().UpsertRefreshToken(gomock.Any(), uint(3), gomock.Any()).Return(dbErr)

	svc := NewLoginService(newTestAuthority(), mockTokens, mockMetrics)
	_, err := svc.IssueLoginTokens(context.Background(), &models.User{ID: 3, Email: "c@example.com"})
	assert.ErrorIs(t, err, dbErr)
}

func TestLogout_RemovesRefreshToken(t *testing.T) {
	db := setupTestStore(t)
	svc := NewLoginService(newTestAuthority(), db, metrics.NewNoopMetrics())
	u := makeTestUser(t, db)
	ctx := context.Background()

	tokens, err := svc.IssueLoginTokens(ctx, u)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))

	_, err = db.FindRefreshTokenByToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	// Logging out twice is harmless
	assert.NoError(t, svc.Logout(ctx, u.ID))
}
