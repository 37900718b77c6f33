package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/session"
	"github.com/go-authgate/tokengate/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const stateBytes = 32

// OAuthHandler drives the third-party login round trip: it starts the
// authorization request and, on callback, turns the provider profile into
// a local identity holding a fresh token pair.
type OAuthHandler struct {
	providers     *auth.Registry
	authRequests  *session.AuthRequestStore
	userService   *services.UserService
	loginService  *services.LoginService
	httpClient    *http.Client // Custom HTTP client for OAuth requests
	baseURL       string
	landingPath   string
	secureCookies bool
	metrics       core.Recorder
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(
	providers *auth.Registry,
	authRequests *session.AuthRequestStore,
	userService *services.UserService,
	loginService *services.LoginService,
	httpClient *http.Client,
	baseURL, landingPath string,
	secureCookies bool,
	m core.Recorder,
) *OAuthHandler {
	return &OAuthHandler{
		providers:     providers,
		authRequests:  authRequests,
		userService:   userService,
		loginService:  loginService,
		httpClient:    httpClient,
		baseURL:       baseURL,
		landingPath:   landingPath,
		secureCookies: secureCookies,
		metrics:       m,
	}
}

// LoginWithProvider records a new authorization request and redirects the
// browser to the provider.
func (h *OAuthHandler) LoginWithProvider(c *gin.Context) {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "Unsupported OAuth provider")
		return
	}

	state, err := util.RandomURLToken(stateBytes)
	if err != nil {
		log.Printf("[OAuth] Failed to generate state: %v", err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to initiate OAuth login")
		return
	}
	nonce, err := util.RandomURLToken(stateBytes)
	if err != nil {
		log.Printf("[OAuth] Failed to generate nonce: %v", err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to initiate OAuth login")
		return
	}

	req := &session.AuthRequest{
		State:        state,
		Provider:     provider.Name(),
		Nonce:        nonce,
		CodeVerifier: oauth2.GenerateVerifier(),
	}
	if redirect := c.Query("redirect"); redirect != "" {
		if util.IsRedirectSafe(redirect, h.baseURL) {
			req.RedirectTo = redirect
		} else {
			log.Printf("[OAuth] Ignoring unsafe redirect target for provider=%s", provider.Name())
		}
	}

	if err := h.authRequests.Save(c, req); err != nil {
		log.Printf("[OAuth] Failed to save auth request: %v", err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to initiate OAuth login")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state, auth.AuthCodeParams{
		Nonce:        req.Nonce,
		CodeVerifier: req.CodeVerifier,
	}))
}

// callbackError is a terminal failure of the callback with the response it maps to
type callbackError struct {
	status      int
	code        string
	description string
	cause       error
}

func (e *callbackError) Error() string {
	if e.cause != nil {
		return e.description + ": " + e.cause.Error()
	}
	return e.description
}

func (e *callbackError) Unwrap() error { return e.cause }

func rejectCallback(description string) *callbackError {
	return &callbackError{
		status:      http.StatusBadRequest,
		code:        errInvalidRequest,
		description: description,
	}
}

func failCallback(description string, cause error) *callbackError {
	return &callbackError{
		status:      http.StatusInternalServerError,
		code:        errServerError,
		description: description,
		cause:       cause,
	}
}

// callbackResult is what a successful callback hands back to the browser
type callbackResult struct {
	redirectURL  string
	refreshToken string
	refreshAge   int
}

// OAuthCallback completes the login started by LoginWithProvider.
// The pending authorization request is removed on every outcome.
func (h *OAuthHandler) OAuthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	result, err := h.completeLogin(c, providerName)

	// Cookies must be written before the response status
	if rmErr := h.authRequests.Remove(c); rmErr != nil {
		log.Printf("[OAuth] Failed to clear auth request: %v", rmErr)
	}

	if err != nil {
		h.metrics.RecordOAuthCallback(providerName, false)
		log.Printf("[OAuth] Callback failed provider=%s: %v", providerName, err)

		var cbErr *callbackError
		if !errors.As(err, &cbErr) {
			cbErr = failCallback("Authentication failed", err)
		}
		respondError(c, cbErr.status, cbErr.code, cbErr.description)
		return
	}

	h.metrics.RecordOAuthCallback(providerName, true)
	setRefreshCookie(c, result.refreshToken, result.refreshAge, h.secureCookies)
	c.Redirect(http.StatusFound, result.redirectURL)
}

func (h *OAuthHandler) completeLogin(c *gin.Context, providerName string) (*callbackResult, error) {
	provider, err := h.providers.Get(providerName)
	if err != nil {
		return nil, rejectCallback("Unsupported OAuth provider")
	}

	pending, err := h.authRequests.Load(c)
	if err != nil {
		return nil, rejectCallback("OAuth session expired or invalid. Please try again.")
	}
	if pending.Provider != provider.Name() || pending.State != c.Query("state") {
		return nil, rejectCallback("Invalid state. Please try again.")
	}

	if providerErr := c.Query("error"); providerErr != "" {
		return nil, &callbackError{
			status:      http.StatusBadRequest,
			code:        "access_denied",
			description: "Authorization was not granted by the provider",
		}
	}
	code := c.Query("code")
	if code == "" {
		return nil, rejectCallback("Missing authorization code")
	}

	// Use custom HTTP client for OAuth requests
	ctx := c.Request.Context()
	if h.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient)
	}

	profile, err := provider.ExchangeProfile(ctx, code, auth.AuthCodeParams{
		Nonce:        pending.Nonce,
		CodeVerifier: pending.CodeVerifier,
	})
	if err != nil {
		return nil, failCallback("Failed to retrieve user information from provider", err)
	}

	user, err := h.userService.UpsertOAuthUser(c.Request.Context(), profile)
	if errors.Is(err, services.ErrIdentityLinkConflict) {
		return nil, &callbackError{
			status:      http.StatusConflict,
			code:        errConflict,
			description: "This email is already registered with another sign-in method",
			cause:       err,
		}
	}
	if err != nil {
		return nil, failCallback("Unable to sign in at this time", err)
	}

	tokens, err := h.loginService.IssueLoginTokens(c.Request.Context(), user)
	if err != nil {
		return nil, failCallback("Unable to sign in at this time", err)
	}

	target := h.landingPath
	if pending.RedirectTo != "" && util.IsRedirectSafe(pending.RedirectTo, h.baseURL) {
		target = pending.RedirectTo
	}
	redirectURL, err := withToken(target, tokens.AccessToken)
	if err != nil {
		return nil, failCallback("Unable to sign in at this time", err)
	}

	log.Printf("[OAuth] User authenticated: user_id=%d provider=%s", user.ID, provider.Name())
	return &callbackResult{
		redirectURL:  redirectURL,
		refreshToken: tokens.RefreshToken,
		refreshAge:   int(tokens.RefreshTTL.Seconds()),
	}, nil
}

// withToken appends the access token as the "token" query parameter
func withToken(target, accessToken string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", accessToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Providers lists the configured provider names
func (h *OAuthHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.providers.Names()})
}
