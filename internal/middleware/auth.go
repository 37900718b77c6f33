package middleware

import (
	"net/http"
	"strings"

	"github.com/go-authgate/tokengate/internal/auth"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// IdentityResolver turns a raw bearer token into a principal.
// token.Authority satisfies it.
type IdentityResolver interface {
	AuthenticatedIdentity(tokenString string) (*auth.Principal, error)
}

// BearerToken returns the token carried by an "Authorization: Bearer <token>"
// header, or "" when the header is missing or uses another scheme.
func BearerToken(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// TokenAuth attaches the caller's principal to the request context when the
// request carries a valid bearer token. It never rejects a request: a missing,
// malformed, expired or forged token simply leaves the request unauthenticated.
func TokenAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		principal, err := resolver.AuthenticatedIdentity(tokenString)
		if err == nil {
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		}

		c.Next()
	}
}

// RequireAuthenticated rejects requests that reached it without a principal.
// It must be installed after TokenAuth.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.PrincipalFromContext(c.Request.Context()); !ok {
			c.Header("WWW-Authenticate", `Bearer realm="TokenGate"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "A valid bearer token is required",
			})
			return
		}
		c.Next()
	}
}

// Principal returns the principal TokenAuth attached to the request, if any.
func Principal(c *gin.Context) (*auth.Principal, bool) {
	return auth.PrincipalFromContext(c.Request.Context())
}
