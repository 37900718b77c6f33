package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/config"
	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/session"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	UserCache            core.Cache[models.User]
	UserCacheCloser      func() error
	RateLimitRedisClient *redis.Client

	// Token issuance
	Authority *token.Authority

	// Services
	UserService    *services.UserService
	LoginService   *services.LoginService
	TokenService   *services.TokenService
	ArticleService *services.ArticleService

	// OAuth login
	OAuthProviders  *auth.Registry
	OAuthHTTPClient *http.Client
	AuthRequests    *session.AuthRequestStore

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app, err := newApplication(context.Background(), cfg)
	if err != nil {
		return err
	}

	app.startWithGracefulShutdown()
	return nil
}

// newApplication builds every component without starting the server
func newApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}

	app := &Application{Config: cfg}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.close()
		return nil, err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(ctx); err != nil {
		app.close()
		return nil, err
	}

	return app, nil
}

// initializeInfrastructure sets up database, metrics, cache, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)

	// User cache
	app.UserCache, app.UserCacheCloser, err = initializeUserCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up token issuance and services
func (app *Application) initializeBusinessLayer() {
	app.Authority = initializeAuthority(app.Config, app.MetricsRecorder)

	app.UserService,
		app.LoginService,
		app.TokenService,
		app.ArticleService = initializeServices(
		app.Config,
		app.DB,
		app.UserCache,
		app.Authority,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up OAuth providers, handlers, router, and server
func (app *Application) initializeHTTPLayer(ctx context.Context) error {
	var err error

	// OAuth setup
	app.OAuthHTTPClient, err = createOAuthHTTPClient(app.Config)
	if err != nil {
		return err
	}
	app.OAuthProviders, err = initializeOAuthProviders(ctx, app.Config, app.OAuthHTTPClient)
	if err != nil {
		return err
	}
	logOAuthProvidersStatus(app.OAuthProviders)

	app.AuthRequests = session.NewAuthRequestStore(
		[]byte(app.Config.SessionSecret),
		app.Config.OAuthRequestCookieMaxAge,
		app.Config.IsProduction,
	)

	// Handlers
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.UserService,
		app.LoginService,
		app.TokenService,
		app.ArticleService,
		app.OAuthProviders,
		app.AuthRequests,
		app.OAuthHTTPClient,
		app.MetricsRecorder,
	)

	// Router
	app.Router, err = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.Authority,
		app.AuthRequests,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)
	if err != nil {
		return err
	}

	// HTTP Server
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addCacheCleanupJob(m, app.UserCacheCloser)
	addDatabaseShutdownJob(m, app.DB)

	// Wait for graceful shutdown
	<-m.Done()
}

// close releases whatever infrastructure was created before a failed start
func (app *Application) close() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.UserCacheCloser != nil {
		_ = app.UserCacheCloser()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
