package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/tokengate/internal/middleware"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/store"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves local signup, password login, logout and the
// current-identity endpoint.
type AccountHandler struct {
	userService   *services.UserService
	loginService  *services.LoginService
	secureCookies bool
}

func NewAccountHandler(
	us *services.UserService,
	ls *services.LoginService,
	secureCookies bool,
) *AccountHandler {
	return &AccountHandler{
		userService:   us,
		loginService:  ls,
		secureCookies: secureCookies,
	}
}

type signupRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "email and password are required")
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignup):
			respondError(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		case errors.Is(err, store.ErrEmailConflict):
			respondError(c, http.StatusConflict, errConflict, "Email is already registered")
		default:
			log.Printf("[Auth] Signup failed: %v", err)
			respondError(c, http.StatusInternalServerError, errServerError, "Failed to create account")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"nickname": user.Nickname,
	})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "email and password are required")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, errUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("[Auth] Login failed: %v", err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to sign in")
		return
	}

	tokens, err := h.loginService.IssueLoginTokens(c.Request.Context(), user)
	if err != nil {
		log.Printf("[Auth] Token issuance failed for user_id=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to sign in")
		return
	}

	setRefreshCookie(c, tokens.RefreshToken, int(tokens.RefreshTTL.Seconds()), h.secureCookies)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// Logout revokes the caller's refresh token and expires the cookie.
// Requires RequireAuthenticated.
func (h *AccountHandler) Logout(c *gin.Context) {
	principal, _ := middleware.Principal(c)

	if err := h.loginService.Logout(c.Request.Context(), principal.UserID); err != nil {
		log.Printf("[Auth] Logout failed for user_id=%d: %v", principal.UserID, err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to sign out")
		return
	}

	clearRefreshCookie(c, h.secureCookies)
	c.Status(http.StatusNoContent)
}

// Me returns the identity carried by the caller's access token.
// Requires RequireAuthenticated.
func (h *AccountHandler) Me(c *gin.Context) {
	principal, _ := middleware.Principal(c)
	c.JSON(http.StatusOK, gin.H{
		"subject": principal.Subject,
		"id":      principal.UserID,
	})
}
