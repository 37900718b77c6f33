// Package session keeps the short-lived OAuth authorization request in a
// signed cookie between the login redirect and the provider callback.
package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// CookieName is the name of the cookie holding the pending auth request
const CookieName = "oauth2_auth_request"

// Cookie keys of the flattened AuthRequest
const (
	keyState        = "state"
	keyProvider     = "provider"
	keyRedirectTo   = "redirect_to"
	keyNonce        = "nonce"
	keyCodeVerifier = "code_verifier"
)

// ErrNoAuthRequest indicates no pending auth request was found in the cookie
var ErrNoAuthRequest = errors.New("no pending oauth authorization request")

// AuthRequest is the state of one in-flight OAuth login.
// It holds strings only and is never persisted server-side.
type AuthRequest struct {
	State        string
	Provider     string
	RedirectTo   string
	Nonce        string
	CodeVerifier string
}

// AuthRequestStore saves, loads and removes the pending AuthRequest.
type AuthRequestStore struct {
	store       cookie.Store
	maxAge      int
	forceSecure bool
}

// NewAuthRequestStore creates a cookie-backed store signed with secret.
// maxAge is the cookie lifetime in seconds.
func NewAuthRequestStore(secret []byte, maxAge int, secure bool) *AuthRequestStore {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return &AuthRequestStore{store: store, maxAge: maxAge, forceSecure: secure}
}

// Middleware attaches the auth request cookie to the gin context.
// It must run before any of the store methods are used.
func (s *AuthRequestStore) Middleware() gin.HandlerFunc {
	return sessions.Sessions(CookieName, s.store)
}

// Save writes req to the cookie, replacing any pending request.
func (s *AuthRequestStore) Save(c *gin.Context, req *AuthRequest) error {
	if req == nil || req.State == "" || req.Provider == "" {
		return fmt.Errorf("auth request requires state and provider")
	}

	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(keyState, req.State)
	sess.Set(keyProvider, req.Provider)
	sess.Set(keyNonce, req.Nonce)
	sess.Set(keyCodeVerifier, req.CodeVerifier)
	if req.RedirectTo != "" {
		sess.Set(keyRedirectTo, req.RedirectTo)
	}
	sess.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.maxAge,
		HttpOnly: true,
		Secure:   s.secure(c),
		SameSite: http.SameSiteLaxMode,
	})

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save auth request: %w", err)
	}
	return nil
}

// Load returns the pending request or ErrNoAuthRequest when the cookie is
// absent, expired, tampered with, or incomplete.
func (s *AuthRequestStore) Load(c *gin.Context) (*AuthRequest, error) {
	sess := sessions.Default(c)

	req := &AuthRequest{
		State:        getString(sess, keyState),
		Provider:     getString(sess, keyProvider),
		RedirectTo:   getString(sess, keyRedirectTo),
		Nonce:        getString(sess, keyNonce),
		CodeVerifier: getString(sess, keyCodeVerifier),
	}
	if req.State == "" || req.Provider == "" {
		return nil, ErrNoAuthRequest
	}
	return req, nil
}

// Remove expires the cookie. It is safe to call when nothing is pending.
func (s *AuthRequestStore) Remove(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to remove auth request: %w", err)
	}
	return nil
}

// secure marks the cookie Secure in production or when the request arrived over TLS
func (s *AuthRequestStore) secure(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" || s.forceSecure
}

func getString(sess sessions.Session, key string) string {
	v, _ := sess.Get(key).(string)
	return v
}
