package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

// Token Operations - noop implementations
func (n *NoopMetrics) RecordTokenIssued(tokenType string, generationTime time.Duration) {}
func (n *NoopMetrics) RecordTokenValidation(result string, duration time.Duration)      {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)                                  {}

// Authentication - noop implementations
func (n *NoopMetrics) RecordLogin(authSource string, success bool)                   {}
func (n *NoopMetrics) RecordLogout()                                                 {}
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool)             {}
func (n *NoopMetrics) RecordExternalAPICall(provider string, duration time.Duration) {}

// Cache and database - noop implementations
func (n *NoopMetrics) RecordCacheLookup(hit bool)                {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
