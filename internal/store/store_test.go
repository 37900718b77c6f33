package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/tokengate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testBasicOperations(t, "sqlite", nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	// Skip if running short tests or Docker is not available
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	// Recover from panic if Docker is not available
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testBasicOperations(t, "postgres", pgContainer)
}

// createFreshStore creates a new store instance for test isolation
// For SQLite, each call creates a fresh :memory: database
// For PostgreSQL, each call creates a uniquely-named database in the container
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()
	ctx := context.Background()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = ":memory:"
	case "postgres":
		dbName := "test_" + uuid.New().String()[:8]

		createDBCmd := fmt.Sprintf("CREATE DATABASE %s", dbName)
		_, _, err := pgContainer.Exec(
			ctx,
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", createDBCmd},
		)
		require.NoError(t, err)

		host, err := pgContainer.Host(ctx)
		require.NoError(t, err)
		port, err := pgContainer.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf(
			"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
			host, port.Port(), dbName,
		)

		t.Cleanup(func() {
			dropDBCmd := fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)
			_, _, _ = pgContainer.Exec(
				context.Background(),
				[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", dropDBCmd},
			)
		})
	default:
		t.Fatalf("unsupported driver: %s", driver)
	}

	store, err := New(ctx, driver, dsn)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func createTestUser(t *testing.T, store *Store, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Nickname: "tester", AuthSource: models.AuthSourceLocal}
	require.NoError(t, store.CreateUser(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

// testBasicOperations tests store operations against one driver
// Each subtest creates a fresh store instance for isolation
func testBasicOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	ctx := context.Background()

	t.Run("CreateAndGetUser", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		user := createTestUser(t, store, "alice@example.com")

		byID, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", byID.Email)

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = store.GetUserByID(ctx, user.ID+100)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		createTestUser(t, store, "alice@example.com")

		err := store.CreateUser(ctx, &models.User{Email: "alice@example.com"})
		assert.ErrorIs(t, err, ErrEmailConflict)
	})

	t.Run("UpdateUserNickname", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		user := createTestUser(t, store, "alice@example.com")

		require.NoError(t, store.UpdateUserNickname(ctx, user.ID, "Alice"))
		got, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Nickname)

		assert.ErrorIs(t, store.UpdateUserNickname(ctx, user.ID+100, "x"), ErrRecordNotFound)
	})

	t.Run("UpsertRefreshTokenKeepsOneRow", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		user := createTestUser(t, store, "alice@example.com")

		require.NoError(t, store.UpsertRefreshToken(ctx, user.ID, "first-token"))
		require.NoError(t, store.UpsertRefreshToken(ctx, user.ID, "second-token"))

		var count int64
		require.NoError(t, store.db.Model(&models.RefreshToken{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		current, err := store.FindRefreshTokenByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "second-token", current.Token)

		_, err = store.FindRefreshTokenByToken(ctx, "first-token")
		assert.ErrorIs(t, err, ErrRecordNotFound)

		byToken, err := store.FindRefreshTokenByToken(ctx, "second-token")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byToken.UserID)
	})

	t.Run("ConcurrentUpsertRefreshToken", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		user := createTestUser(t, store, "alice@example.com")

		const workers = 10
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.UpsertRefreshToken(ctx, user.ID, fmt.Sprintf("token-%d", i))
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		var count int64
		require.NoError(t, store.db.Model(&models.RefreshToken{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("DeleteRefreshToken", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		user := createTestUser(t, store, "alice@example.com")

		require.NoError(t, store.UpsertRefreshToken(ctx, user.ID, "token"))
		require.NoError(t, store.DeleteRefreshTokenByUserID(ctx, user.ID))

		_, err := store.FindRefreshTokenByUserID(ctx, user.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("ArticleCRUD", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		article := &models.Article{
			Author:  "alice@example.com",
			Title:   "Hello",
			Content: "World",
		}
		require.NoError(t, store.CreateArticle(ctx, article))
		require.NotZero(t, article.ID)

		article.Title = "Hello again"
		require.NoError(t, store.UpdateArticle(ctx, article))

		got, err := store.GetArticleByID(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello again", got.Title)
		assert.Equal(t, "alice@example.com", got.Author)

		require.NoError(t, store.DeleteArticle(ctx, article.ID))
		_, err = store.GetArticleByID(ctx, article.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.ErrorIs(t, store.DeleteArticle(ctx, article.ID), ErrRecordNotFound)
		assert.ErrorIs(t, store.UpdateArticle(ctx, article), ErrRecordNotFound)
	})

	t.Run("ListArticles", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		for i := range 5 {
			require.NoError(t, store.CreateArticle(ctx, &models.Article{
				Author: "alice@example.com",
				Title:  fmt.Sprintf("post-%d", i),
			}))
		}

		page, total, err := store.ListArticles(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		assert.Equal(t, "post-4", page[0].Title)

		rest, _, err := store.ListArticles(ctx, 4, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "post-0", rest[0].Title)
	})

	t.Run("Health", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		assert.NoError(t, store.Health(ctx))
	})
}

func TestGetDialector_UnsupportedDriver(t *testing.T) {
	_, err := GetDialector("mysql", "dsn")
	assert.Error(t, err)

	_, err = New(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	params := NewPaginationParams(0, 100)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 50, params.PageSize)
	assert.Equal(t, 0, params.Offset())

	params = NewPaginationParams(3, 10)
	assert.Equal(t, 20, params.Offset())

	result := CalculatePagination(25, 3, 10)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasPrev)
	assert.False(t, result.HasNext)

	result = CalculatePagination(25, 9, 10)
	assert.Equal(t, 3, result.CurrentPage)
}
