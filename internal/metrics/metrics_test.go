package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	m := Init(true)
	assert.NotNil(t, m)

	metrics, ok := m.(*Metrics)
	require.True(t, ok, "Init(true) should return *Metrics")
	assert.NotNil(t, metrics.TokensIssuedTotal)
	assert.NotNil(t, metrics.AuthOAuthCallbackTotal)
	assert.NotNil(t, metrics.HTTPRequestsTotal)

	// Second call returns the same registered instance
	assert.Same(t, metrics, Init(true))
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	assert.NotNil(t, m)

	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "Init(false) should return *NoopMetrics")
}

func TestRecordTokenIssued(t *testing.T) {
	m := Init(true).(*Metrics)

	before := testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("access"))
	m.RecordTokenIssued("access", 2*time.Millisecond)
	m.RecordTokenIssued("refresh", 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("access")))
}

func TestRecordTokenRefresh(t *testing.T) {
	m := Init(true).(*Metrics)

	success := testutil.ToFloat64(m.TokensRefreshedTotal.WithLabelValues(resultSuccess))
	failed := testutil.ToFloat64(m.TokensRefreshedTotal.WithLabelValues(resultError))

	m.RecordTokenRefresh(true)
	m.RecordTokenRefresh(false)
	m.RecordTokenRefresh(false)

	assert.Equal(t, success+1, testutil.ToFloat64(m.TokensRefreshedTotal.WithLabelValues(resultSuccess)))
	assert.Equal(t, failed+2, testutil.ToFloat64(m.TokensRefreshedTotal.WithLabelValues(resultError)))
}

func TestRecordOAuthCallbackAndLogin(t *testing.T) {
	m := Init(true).(*Metrics)

	before := testutil.ToFloat64(m.AuthOAuthCallbackTotal.WithLabelValues("github", resultError))
	m.RecordOAuthCallback("github", false)
	assert.Equal(
		t,
		before+1,
		testutil.ToFloat64(m.AuthOAuthCallbackTotal.WithLabelValues("github", resultError)),
	)

	loginBefore := testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues("local", resultFailure))
	m.RecordLogin("local", false)
	assert.Equal(
		t,
		loginBefore+1,
		testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues("local", resultFailure)),
	)

	// Remaining recorders must not panic
	m.RecordLogout()
	m.RecordExternalAPICall("github", 150*time.Millisecond)
	m.RecordTokenValidation("expired", time.Millisecond)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordDatabaseQueryError("upsert_refresh_token")
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()

	// All methods should be callable without panicking
	m.RecordTokenIssued("access", time.Millisecond)
	m.RecordTokenValidation("valid", time.Millisecond)
	m.RecordTokenRefresh(true)
	m.RecordLogin("local", true)
	m.RecordLogout()
	m.RecordOAuthCallback("google", true)
	m.RecordExternalAPICall("google", time.Millisecond)
	m.RecordCacheLookup(true)
	m.RecordDatabaseQueryError("get_user")
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := Init(true).(*Metrics)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(m))
	r.GET("/api/articles/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/articles/:id", "200"),
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/12", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(
		t,
		before+1,
		testutil.ToFloat64(
			m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/articles/:id", "200"),
		),
	)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestHTTPMetricsMiddleware_Noop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "unknown", normalizePath(""))
	assert.Equal(t, "/api/token", normalizePath("/api/token"))
}
