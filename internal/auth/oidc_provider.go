package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCProvider logs users in against any OpenID Connect issuer.
// The profile is read from the verified ID token.
type OIDCProvider struct {
	name     string
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

var _ ProfileExchanger = (*OIDCProvider)(nil)

// NewOIDCProvider discovers the issuer configuration. Discovery uses the
// HTTP client in ctx when one is set with oidc.ClientContext.
func NewOIDCProvider(
	ctx context.Context,
	name, issuerURL string,
	cfg OAuthProviderConfig,
) (*OIDCProvider, error) {
	if name == "" || issuerURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: oidc requires name, issuer and client id", ErrProviderMisconfig)
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider %s: %w", name, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	return newOIDCProvider(
		name,
		&oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     provider.Endpoint(),
		},
		provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	), nil
}

func newOIDCProvider(
	name string,
	config *oauth2.Config,
	verifier *oidc.IDTokenVerifier,
) *OIDCProvider {
	return &OIDCProvider{
		name:     name,
		config:   config,
		verifier: verifier,
	}
}

// Name returns the provider identifier used by the registry.
func (p *OIDCProvider) Name() string {
	return p.name
}

// AuthCodeURL builds the authorization URL with nonce and PKCE parameters.
func (p *OIDCProvider) AuthCodeURL(state string, params AuthCodeParams) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if params.Nonce != "" {
		opts = append(opts, oidc.Nonce(params.Nonce))
	}
	if params.CodeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(params.CodeVerifier))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// ExchangeProfile redeems the code, verifies the ID token and its nonce,
// and returns the identity it describes.
func (p *OIDCProvider) ExchangeProfile(
	ctx context.Context,
	code string,
	params AuthCodeParams,
) (*Profile, error) {
	var opts []oauth2.AuthCodeOption
	if params.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(params.CodeVerifier))
	}

	token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s token exchange: %v", ErrProviderExchange, p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: %s did not return id_token", ErrProviderExchange, p.name)
	}

	if client, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		ctx = oidc.ClientContext(ctx, client)
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s id_token verification: %v", ErrProviderExchange, p.name, err)
	}
	if params.Nonce != "" && idToken.Nonce != params.Nonce {
		return nil, fmt.Errorf("%w: %s id_token nonce mismatch", ErrProviderExchange, p.name)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		EmailVerified     *bool  `json:"email_verified"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %s claims parse: %v", ErrProviderExchange, p.name, err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderNoEmail, p.name)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, errors.Join(ErrProviderNoEmail, fmt.Errorf("%s email not verified", p.name))
	}

	nickname := claims.Name
	if nickname == "" {
		nickname = claims.PreferredUsername
	}

	return &Profile{
		Provider:       p.name,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		Nickname:       nickname,
	}, nil
}
