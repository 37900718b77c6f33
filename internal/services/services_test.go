package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/tokengate/internal/cache"
	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestAuthority() *token.Authority {
	codec := token.NewCodec("services-test-secret", "http://localhost:8080")
	return token.NewAuthority(codec, time.Hour, 24*time.Hour, metrics.NewNoopMetrics())
}

func newMemoryUserService(db *store.Store) *UserService {
	return NewUserService(db, cache.NewMemoryCache[models.User](), 5*time.Minute, metrics.NewNoopMetrics())
}

func makeTestUser(t *testing.T, db *store.Store) *models.User {
	t.Helper()
	u := &models.User{
		Email:      uuid.New().String()[:8] + "@example.com",
		Nickname:   "tester",
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

// callFetchFn is a DoAndReturn helper that invokes the cache fetch function,
// simulating a cache miss where the real DB fetch is executed.
func callFetchFn[T any](
	ctx context.Context,
	key string,
	_ time.Duration,
	fn func(context.Context, string) (T, error),
) (T, error) {
	return fn(ctx, key)
}
