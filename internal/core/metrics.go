package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Token Operations
	RecordTokenIssued(tokenType string, generationTime time.Duration)
	RecordTokenValidation(result string, duration time.Duration)
	RecordTokenRefresh(success bool)

	// Authentication
	RecordLogin(authSource string, success bool)
	RecordLogout()
	RecordOAuthCallback(provider string, success bool)
	RecordExternalAPICall(provider string, duration time.Duration)

	// Identity cache
	RecordCacheLookup(hit bool)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}
