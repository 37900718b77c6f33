package handlers

import (
	"net/http"

	"github.com/go-authgate/tokengate/internal/config"

	"github.com/gin-gonic/gin"
)

// Error codes shared by the JSON API
const (
	errInvalidRequest = "invalid_request"
	errInvalidGrant   = "invalid_grant"
	errUnauthorized   = "unauthorized"
	errNotAuthorized  = "not_authorized"
	errNotFound       = "not_found"
	errConflict       = "conflict"
	errServerError    = "server_error"
)

func respondError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// setRefreshCookie replaces the refresh_token cookie. maxAge is in seconds;
// a negative value expires the cookie.
func setRefreshCookie(c *gin.Context, value string, maxAge int, forceSecure bool) {
	secure := forceSecure || c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(config.RefreshTokenCookieName, value, maxAge, "/", "", secure, true)
}

func clearRefreshCookie(c *gin.Context, forceSecure bool) {
	setRefreshCookie(c, "", -1, forceSecure)
}
