package bootstrap

import (
	"github.com/go-authgate/tokengate/internal/config"
	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"
)

// initializeAuthority creates the JWT authority shared by every service
func initializeAuthority(cfg *config.Config, m metrics.Recorder) *token.Authority {
	return token.NewAuthority(
		token.NewCodec(cfg.JWTSecret, cfg.JWTIssuer),
		cfg.JWTExpiration,
		cfg.RefreshTokenExpiration,
		m,
	)
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	userCache core.Cache[models.User],
	authority *token.Authority,
	m metrics.Recorder,
) (*services.UserService, *services.LoginService, *services.TokenService, *services.ArticleService) {
	userService := services.NewUserService(db, userCache, cfg.UserCacheTTL, m)
	loginService := services.NewLoginService(authority, db, m)
	tokenService := services.NewTokenService(
		authority,
		db,
		userService,
		cfg.EnableTokenRotation,
		m,
	)
	articleService := services.NewArticleService(db, m)

	return userService, loginService, tokenService, articleService
}
