package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-authgate/tokengate/internal/config"
	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/middleware"
	"github.com/go-authgate/tokengate/internal/session"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	authority *token.Authority,
	authRequests *session.AuthRequestStore,
	prometheusMetrics metrics.Recorder,
	rateLimitRedisClient *redis.Client,
) (*gin.Engine, error) {
	// Setup Gin mode
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())

	// Pending OAuth login state and bearer token resolution run on every
	// request. Neither rejects a request.
	r.Use(authRequests.Middleware())
	r.Use(middleware.TokenAuth(authority))

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters, err := setupRateLimiting(cfg, rateLimitRedisClient)
	if err != nil {
		return nil, err
	}

	// Setup all routes
	setupAllRoutes(r, h, rateLimiters)

	// Log server startup info
	logServerStartup(cfg)

	return r, nil
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	// OAuth login flow (browser)
	r.GET("/oauth2/providers", h.oauth.Providers)
	r.GET("/oauth2/authorization/:provider", h.oauth.LoginWithProvider)
	r.GET("/login/oauth2/code/:provider", h.oauth.OAuthCallback)

	api := r.Group("/api")
	{
		api.POST("/token", rateLimiters.token, h.token.CreateAccessToken)
		api.POST("/signup", rateLimiters.login, h.account.Signup)
		api.POST("/login", rateLimiters.login, h.account.Login)

		api.GET("/articles", h.article.List)
		api.GET("/articles/:id", h.article.Get)
	}

	// Routes that need an authenticated principal
	protected := api.Group("")
	protected.Use(middleware.RequireAuthenticated())
	{
		protected.POST("/logout", h.account.Logout)
		protected.GET("/me", h.account.Me)

		protected.POST("/articles", h.article.Create)
		protected.PUT("/articles/:id", h.article.Update)
		protected.DELETE("/articles/:id", h.article.Delete)
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(c.Request.Context()); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			log.Printf("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if gin.Mode() == gin.TestMode {
		return
	}
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("TokenGate server starting on %s", cfg.ServerAddr)
	log.Printf("Base URL: %s", cfg.BaseURL)
	log.Printf("OAuth landing path: %s", cfg.LoginRedirectPath)
	log.Printf(
		"Token lifetimes: access=%s refresh=%s rotation=%t",
		cfg.JWTExpiration,
		cfg.RefreshTokenExpiration,
		cfg.EnableTokenRotation,
	)
}
