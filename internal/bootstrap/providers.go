package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
)

// initializeOAuthProviders builds the registry of configured OAuth providers.
// Providers with missing credentials are skipped with a warning; a failed
// OIDC discovery is fatal.
func initializeOAuthProviders(
	ctx context.Context,
	cfg *config.Config,
	httpClient *http.Client,
) (*auth.Registry, error) {
	var providers []auth.ProfileExchanger

	// GitHub OAuth
	switch {
	case !cfg.GitHubOAuthEnabled:
		// Skip GitHub OAuth
	case cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "":
		log.Printf("Warning: GitHub OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers = append(providers, auth.NewGitHubProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  redirectURL(cfg, cfg.GitHubOAuthRedirectURL, "github"),
			Scopes:       cfg.GitHubOAuthScopes,
		}))
	}

	// Gitea OAuth
	switch {
	case !cfg.GiteaOAuthEnabled:
		// Skip Gitea OAuth
	case cfg.GiteaURL == "" || cfg.GiteaClientID == "" || cfg.GiteaClientSecret == "":
		log.Printf("Warning: Gitea OAuth enabled but URL, CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers = append(providers, auth.NewGiteaProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GiteaClientID,
			ClientSecret: cfg.GiteaClientSecret,
			RedirectURL:  redirectURL(cfg, cfg.GiteaOAuthRedirectURL, "gitea"),
			Scopes:       cfg.GiteaOAuthScopes,
		}, cfg.GiteaURL))
	}

	// Google OAuth
	switch {
	case !cfg.GoogleOAuthEnabled:
		// Skip Google OAuth
	case cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "":
		log.Printf("Warning: Google OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		providers = append(providers, auth.NewGoogleProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  redirectURL(cfg, cfg.GoogleOAuthRedirectURL, "google"),
			Scopes:       cfg.GoogleOAuthScopes,
		}))
	}

	// Generic OpenID Connect
	switch {
	case !cfg.OIDCOAuthEnabled:
		// Skip OIDC
	case cfg.OIDCIssuerURL == "" || cfg.OIDCClientID == "":
		log.Printf("Warning: OIDC enabled but ISSUER_URL or CLIENT_ID missing")
	default:
		discoveryCtx, cancel := context.WithTimeout(
			oidc.ClientContext(ctx, httpClient),
			cfg.OAuthTimeout,
		)
		defer cancel()

		p, err := auth.NewOIDCProvider(
			discoveryCtx,
			cfg.OIDCProviderName,
			cfg.OIDCIssuerURL,
			auth.OAuthProviderConfig{
				ClientID:     cfg.OIDCClientID,
				ClientSecret: cfg.OIDCClientSecret,
				RedirectURL:  redirectURL(cfg, cfg.OIDCOAuthRedirectURL, cfg.OIDCProviderName),
				Scopes:       cfg.OIDCOAuthScopes,
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		providers = append(providers, p)
	}

	return auth.NewRegistry(providers...), nil
}

// redirectURL returns the configured callback URL, defaulting to the
// callback route under BASE_URL
func redirectURL(cfg *config.Config, configured, provider string) string {
	if configured != "" {
		return configured
	}
	return cfg.BaseURL + "/login/oauth2/code/" + provider
}

// logOAuthProvidersStatus logs enabled OAuth providers
func logOAuthProvidersStatus(providers *auth.Registry) {
	if providers.Len() > 0 {
		log.Printf("OAuth providers enabled: %v", providers.Names())
	} else {
		log.Println("No OAuth providers configured (local login only)")
	}
}
