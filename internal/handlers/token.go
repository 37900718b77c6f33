package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/tokengate/internal/config"
	"github.com/go-authgate/tokengate/internal/services"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenService  *services.TokenService
	secureCookies bool
}

func NewTokenHandler(ts *services.TokenService, secureCookies bool) *TokenHandler {
	return &TokenHandler{
		tokenService:  ts,
		secureCookies: secureCookies,
	}
}

type createAccessTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// CreateAccessToken exchanges a refresh token for a new access token.
// The refresh token is read from the JSON body, falling back to the
// refresh_token cookie set by the OAuth callback.
func (h *TokenHandler) CreateAccessToken(c *gin.Context) {
	var req createAccessTokenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, errInvalidRequest, "Request body must be JSON")
			return
		}
	}
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(config.RefreshTokenCookieName); err == nil {
			req.RefreshToken = cookie
		}
	}
	if req.RefreshToken == "" {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "refreshToken is required")
		return
	}

	result, err := h.tokenService.CreateAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken),
			errors.Is(err, services.ErrTokenNotRecognized):
			respondError(c, http.StatusBadRequest, errInvalidGrant, "Refresh token is invalid or expired")
		case errors.Is(err, services.ErrIdentityNotFound):
			respondError(c, http.StatusBadRequest, errInvalidGrant, "Refresh token owner no longer exists")
		default:
			log.Printf("[Token] Refresh exchange failed: %v", err)
			respondError(c, http.StatusInternalServerError, errServerError, "Failed to issue access token")
		}
		return
	}

	body := gin.H{"accessToken": result.AccessToken}
	if result.RefreshToken != "" {
		body["refreshToken"] = result.RefreshToken
		setRefreshCookie(c, result.RefreshToken, h.tokenService.RefreshTokenMaxAge(), h.secureCookies)
	}
	c.JSON(http.StatusCreated, body)
}
