package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(s *AuthRequestStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.Middleware())

	r.GET("/save", func(c *gin.Context) {
		err := s.Save(c, &AuthRequest{
			State:        c.Query("state"),
			Provider:     "github",
			RedirectTo:   "/articles/1",
			Nonce:        "nonce-1",
			CodeVerifier: "verifier-1",
		})
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/load", func(c *gin.Context) {
		req, err := s.Load(c)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"state":         req.State,
			"provider":      req.Provider,
			"redirect_to":   req.RedirectTo,
			"nonce":         req.Nonce,
			"code_verifier": req.CodeVerifier,
		})
	})
	r.GET("/remove", func(c *gin.Context) {
		if err := s.Remove(c); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	resp := http.Response{Header: w.Header()}
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthRequestStore_SaveLoad(t *testing.T) {
	s := NewAuthRequestStore([]byte("test-secret"), 18000, false)
	r := setupRouter(s)

	w := do(r, "/save?state=abc", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	cookie := responseCookie(w, CookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 18000, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	w = do(r, "/load", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"state":"abc"`)
	assert.Contains(t, body, `"provider":"github"`)
	assert.Contains(t, body, `"redirect_to":"/articles/1"`)
	assert.Contains(t, body, `"nonce":"nonce-1"`)
	assert.Contains(t, body, `"code_verifier":"verifier-1"`)
}

func TestAuthRequestStore_LoadWithoutCookie(t *testing.T) {
	r := setupRouter(NewAuthRequestStore([]byte("test-secret"), 18000, false))

	w := do(r, "/load", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequestStore_RejectsForeignSignature(t *testing.T) {
	issuer := setupRouter(NewAuthRequestStore([]byte("other-secret"), 18000, false))
	w := do(issuer, "/save?state=abc", nil)
	cookie := responseCookie(w, CookieName)
	require.NotNil(t, cookie)

	r := setupRouter(NewAuthRequestStore([]byte("test-secret"), 18000, false))
	w = do(r, "/load", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequestStore_RejectsTamperedCookie(t *testing.T) {
	r := setupRouter(NewAuthRequestStore([]byte("test-secret"), 18000, false))
	w := do(r, "/save?state=abc", nil)
	cookie := responseCookie(w, CookieName)
	require.NotNil(t, cookie)

	cookie.Value = strings.ToUpper(cookie.Value[:10]) + cookie.Value[10:] + "x"
	w = do(r, "/load", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequestStore_Remove(t *testing.T) {
	r := setupRouter(NewAuthRequestStore([]byte("test-secret"), 18000, false))
	w := do(r, "/save?state=abc", nil)
	cookie := responseCookie(w, CookieName)
	require.NotNil(t, cookie)

	w = do(r, "/remove", []*http.Cookie{cookie})
	require.Equal(t, http.StatusNoContent, w.Code)

	cleared := responseCookie(w, CookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, "/", cleared.Path)
	assert.LessOrEqual(t, cleared.MaxAge, 0)

	w = do(r, "/load", []*http.Cookie{cleared})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequestStore_SecureCookie(t *testing.T) {
	r := setupRouter(NewAuthRequestStore([]byte("test-secret"), 18000, true))

	w := do(r, "/save?state=abc", nil)
	cookie := responseCookie(w, CookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}

func TestAuthRequestStore_SaveRequiresState(t *testing.T) {
	r := setupRouter(NewAuthRequestStore([]byte("test-secret"), 18000, false))

	w := do(r, "/save", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
