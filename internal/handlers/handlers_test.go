package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/cache"
	"github.com/go-authgate/tokengate/internal/metrics"
	"github.com/go-authgate/tokengate/internal/middleware"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/session"
	"github.com/go-authgate/tokengate/internal/store"
	"github.com/go-authgate/tokengate/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL     = "http://localhost:8080"
	testLandingPath = "/articles"
	testRefreshTTL  = 24 * time.Hour
)

// fakeProvider is a ProfileExchanger that records what the callback replayed.
type fakeProvider struct {
	name      string
	profile   *auth.Profile
	err       error
	gotCode   string
	gotParams auth.AuthCodeParams
	exchangeN int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthCodeURL(state string, params auth.AuthCodeParams) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("nonce", params.Nonce)
	return "https://provider.test/authorize?" + q.Encode()
}

func (f *fakeProvider) ExchangeProfile(
	_ context.Context,
	code string,
	params auth.AuthCodeParams,
) (*auth.Profile, error) {
	f.exchangeN++
	f.gotCode = code
	f.gotParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type testEnv struct {
	db        *store.Store
	authority *token.Authority
	users     *services.UserService
	login     *services.LoginService
	provider  *fakeProvider
	router    *gin.Engine
}

type envOption func(*envConfig)

type envConfig struct {
	rotation bool
}

func withRotation() envOption {
	return func(c *envConfig) { c.rotation = true }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg envConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	noop := metrics.NewNoopMetrics()
	authority := token.NewAuthority(
		token.NewCodec("handlers-test-secret", testBaseURL),
		time.Hour, testRefreshTTL, noop,
	)
	users := services.NewUserService(db, cache.NewMemoryCache[models.User](), time.Minute, noop)
	login := services.NewLoginService(authority, db, noop)
	tokens := services.NewTokenService(authority, db, users, cfg.rotation, noop)
	articles := services.NewArticleService(db, noop)

	provider := &fakeProvider{
		name: "fake",
		profile: &auth.Profile{
			Provider:       "fake",
			ProviderUserID: "42",
			Email:          "alice@example.com",
			Nickname:       "alice",
		},
	}
	authRequests := session.NewAuthRequestStore([]byte("session-test-secret-32-bytes!!!!"), 18000, false)

	oauthHandler := NewOAuthHandler(
		auth.NewRegistry(provider),
		authRequests,
		users,
		login,
		http.DefaultClient,
		testBaseURL,
		testLandingPath,
		false,
		noop,
	)
	tokenHandler := NewTokenHandler(tokens, false)
	accountHandler := NewAccountHandler(users, login, false)
	articleHandler := NewArticleHandler(articles)

	r := gin.New()
	r.Use(authRequests.Middleware())
	r.Use(middleware.TokenAuth(authority))

	r.GET("/oauth2/providers", oauthHandler.Providers)
	r.GET("/oauth2/authorization/:provider", oauthHandler.LoginWithProvider)
	r.GET("/login/oauth2/code/:provider", oauthHandler.OAuthCallback)

	api := r.Group("/api")
	api.POST("/token", tokenHandler.CreateAccessToken)
	api.POST("/signup", accountHandler.Signup)
	api.POST("/login", accountHandler.Login)
	api.GET("/articles", articleHandler.List)
	api.GET("/articles/:id", articleHandler.Get)

	authed := api.Group("", middleware.RequireAuthenticated())
	authed.POST("/logout", accountHandler.Logout)
	authed.GET("/me", accountHandler.Me)
	authed.POST("/articles", articleHandler.Create)
	authed.PUT("/articles/:id", articleHandler.Update)
	authed.DELETE("/articles/:id", articleHandler.Delete)

	return &testEnv{
		db:        db,
		authority: authority,
		users:     users,
		login:     login,
		provider:  provider,
		router:    r,
	}
}

type request struct {
	method  string
	path    string
	body    any
	bearer  string
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if r.body != nil {
		raw, ok := r.body.(string)
		if !ok {
			encoded, err := json.Marshal(r.body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		body = bytes.NewReader([]byte(raw))
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// loginAs creates a local identity and returns its token pair.
func (e *testEnv) loginAs(t *testing.T, email string) (*models.User, *services.LoginTokens) {
	t.Helper()
	user := &models.User{Email: email, Nickname: email, AuthSource: models.AuthSourceLocal}
	require.NoError(t, e.db.CreateUser(context.Background(), user))
	tokens, err := e.login.IssueLoginTokens(context.Background(), user)
	require.NoError(t, err)
	return user, tokens
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	return data
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
