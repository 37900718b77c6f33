package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// User cache type constants
const (
	UserCacheTypeMemory     = "memory"
	UserCacheTypeRedis      = "redis"
	UserCacheTypeRedisAside = "redis-aside"
)

// Development defaults, rejected when IS_PRODUCTION is set
const (
	DefaultJWTSecret     = "your-256-bit-secret-change-in-production"
	DefaultSessionSecret = "session-secret-change-in-production"
)

// RefreshTokenCookieName is the cookie that carries the refresh token
const RefreshTokenCookieName = "refresh_token"

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// JWT settings
	JWTIssuer              string
	JWTSecret              string
	JWTExpiration          time.Duration // Access token lifetime
	RefreshTokenExpiration time.Duration // Refresh token lifetime
	EnableTokenRotation    bool          // Issue a new refresh token on every exchange (default: false)

	// OAuth login flow
	SessionSecret            string // Signs the transient oauth2_auth_request cookie
	OAuthRequestCookieMaxAge int    // seconds
	LoginRedirectPath        string // Landing path that receives ?token=<access token>

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Redis (user cache and rate limiting)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// User cache
	UserCacheType        string        // "memory", "redis" or "redis-aside"
	UserCacheTTL         time.Duration // Server-side TTL of cached identities
	UserCacheClientTTL   time.Duration // Client-side TTL for redis-aside
	UserCacheSizePerConn int           // Client-side cache size per connection in MB (redis-aside)

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	TokenRateLimit           int // requests per minute on /api/token
	LoginRateLimit           int // requests per minute on /api/login

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // Optional bearer token protecting /metrics

	// Google OAuth
	GoogleOAuthEnabled     bool
	GoogleClientID         string
	GoogleClientSecret     string
	GoogleOAuthRedirectURL string
	GoogleOAuthScopes      []string

	// GitHub OAuth
	GitHubOAuthEnabled     bool
	GitHubClientID         string
	GitHubClientSecret     string
	GitHubOAuthRedirectURL string
	GitHubOAuthScopes      []string

	// Gitea OAuth
	GiteaOAuthEnabled     bool
	GiteaURL              string
	GiteaClientID         string
	GiteaClientSecret     string
	GiteaOAuthRedirectURL string
	GiteaOAuthScopes      []string

	// Generic OpenID Connect
	OIDCOAuthEnabled     bool
	OIDCProviderName     string
	OIDCIssuerURL        string
	OIDCClientID         string
	OIDCClientSecret     string
	OIDCOAuthRedirectURL string
	OIDCOAuthScopes      []string

	// OAuth HTTP Client Settings
	OAuthTimeout            time.Duration // HTTP client timeout for OAuth requests (default: 15s)
	OAuthInsecureSkipVerify bool          // Skip TLS verification for OAuth (dev/testing only, default: false)

	// Timeouts
	DBInitTimeout         time.Duration
	RedisConnTimeout      time.Duration
	CacheInitTimeout      time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "tokengate.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      baseURL,
		IsProduction: getEnvBool("IS_PRODUCTION", false),

		// JWT settings
		JWTIssuer:     getEnv("JWT_ISSUER", baseURL),
		JWTSecret:     getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", 2*time.Hour),
		RefreshTokenExpiration: getEnvDuration(
			"REFRESH_TOKEN_EXPIRATION",
			14*24*time.Hour,
		), // 14 days
		EnableTokenRotation: getEnvBool("ENABLE_TOKEN_ROTATION", false),

		// OAuth login flow
		SessionSecret:            getEnv("SESSION_SECRET", DefaultSessionSecret),
		OAuthRequestCookieMaxAge: getEnvInt("OAUTH_REQUEST_COOKIE_MAX_AGE", 18000),
		LoginRedirectPath:        getEnv("LOGIN_REDIRECT_PATH", "/articles"),

		// Database
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// User cache
		UserCacheType:        getEnv("USER_CACHE_TYPE", UserCacheTypeMemory),
		UserCacheTTL:         getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
		UserCacheClientTTL:   getEnvDuration("USER_CACHE_CLIENT_TTL", 30*time.Second),
		UserCacheSizePerConn: getEnvInt("USER_CACHE_SIZE_PER_CONN", 32),

		// Rate limiting
		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		TokenRateLimit:           getEnvInt("TOKEN_RATE_LIMIT", 20),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 5),

		// Metrics
		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		// Google OAuth
		GoogleOAuthEnabled:     getEnvBool("GOOGLE_OAUTH_ENABLED", false),
		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleOAuthRedirectURL: getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleOAuthScopes:      getEnvSlice("GOOGLE_SCOPES", []string{"email", "profile"}),

		// GitHub OAuth
		GitHubOAuthEnabled:     getEnvBool("GITHUB_OAUTH_ENABLED", false),
		GitHubClientID:         getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:     getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubOAuthRedirectURL: getEnv("GITHUB_REDIRECT_URL", ""),
		GitHubOAuthScopes:      getEnvSlice("GITHUB_SCOPES", []string{"user:email"}),

		// Gitea OAuth
		GiteaOAuthEnabled:     getEnvBool("GITEA_OAUTH_ENABLED", false),
		GiteaURL:              getEnv("GITEA_URL", ""),
		GiteaClientID:         getEnv("GITEA_CLIENT_ID", ""),
		GiteaClientSecret:     getEnv("GITEA_CLIENT_SECRET", ""),
		GiteaOAuthRedirectURL: getEnv("GITEA_REDIRECT_URL", ""),
		GiteaOAuthScopes:      getEnvSlice("GITEA_SCOPES", []string{"read:user"}),

		// Generic OpenID Connect
		OIDCOAuthEnabled:     getEnvBool("OIDC_OAUTH_ENABLED", false),
		OIDCProviderName:     getEnv("OIDC_PROVIDER_NAME", "oidc"),
		OIDCIssuerURL:        getEnv("OIDC_ISSUER_URL", ""),
		OIDCClientID:         getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:     getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCOAuthRedirectURL: getEnv("OIDC_REDIRECT_URL", ""),
		OIDCOAuthScopes: getEnvSlice(
			"OIDC_SCOPES",
			[]string{"openid", "email", "profile"},
		),

		// OAuth HTTP Client Settings
		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		// Timeouts
		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive, got %s", c.JWTExpiration)
	}
	if c.RefreshTokenExpiration <= 0 {
		return fmt.Errorf(
			"REFRESH_TOKEN_EXPIRATION must be positive, got %s",
			c.RefreshTokenExpiration,
		)
	}
	if c.RefreshTokenExpiration < c.JWTExpiration {
		return fmt.Errorf(
			"REFRESH_TOKEN_EXPIRATION (%s) must not be shorter than JWT_EXPIRATION (%s)",
			c.RefreshTokenExpiration,
			c.JWTExpiration,
		)
	}
	if !strings.HasPrefix(c.LoginRedirectPath, "/") || strings.HasPrefix(c.LoginRedirectPath, "//") {
		return fmt.Errorf("invalid LOGIN_REDIRECT_PATH value: %q (must be a local path)", c.LoginRedirectPath)
	}

	switch c.RateLimitStore {
	case RateLimitStoreMemory, RateLimitStoreRedis:
	default:
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore,
			RateLimitStoreMemory,
			RateLimitStoreRedis,
		)
	}

	switch c.UserCacheType {
	case UserCacheTypeMemory:
	case UserCacheTypeRedis, UserCacheTypeRedisAside:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when USER_CACHE_TYPE=%s", c.UserCacheType)
		}
	default:
		return fmt.Errorf(
			"invalid USER_CACHE_TYPE value: %q (must be %q, %q or %q)",
			c.UserCacheType,
			UserCacheTypeMemory,
			UserCacheTypeRedis,
			UserCacheTypeRedisAside,
		)
	}
	if c.UserCacheTTL <= 0 {
		return fmt.Errorf("USER_CACHE_TTL must be positive, got %s", c.UserCacheTTL)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
