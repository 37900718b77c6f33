package bootstrap

import (
	"net/http"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/config"
	"github.com/go-authgate/tokengate/internal/handlers"
	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/session"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	oauth   *handlers.OAuthHandler
	token   *handlers.TokenHandler
	account *handlers.AccountHandler
	article *handlers.ArticleHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	userService *services.UserService,
	loginService *services.LoginService,
	tokenService *services.TokenService,
	articleService *services.ArticleService,
	oauthProviders *auth.Registry,
	authRequests *session.AuthRequestStore,
	oauthHTTPClient *http.Client,
	prometheusMetrics metrics.Recorder,
) handlerSet {
	return handlerSet{
		oauth: handlers.NewOAuthHandler(
			oauthProviders,
			authRequests,
			userService,
			loginService,
			oauthHTTPClient,
			cfg.BaseURL,
			cfg.LoginRedirectPath,
			cfg.IsProduction,
			prometheusMetrics,
		),
		token:   handlers.NewTokenHandler(tokenService, cfg.IsProduction),
		account: handlers.NewAccountHandler(userService, loginService, cfg.IsProduction),
		article: handlers.NewArticleHandler(articleService),
	}
}
