package codeAuth

import (
	internalmetrics "github.com/MrEthical07/codeAuth/internal/metrics"
)

// MetricID identifies a counter or latency histogram.
type MetricID = internalmetrics.MetricID

const (
	MetricCodeIssued        = internalmetrics.MetricCodeIssued
	MetricCodeIssueFailure  = internalmetrics.MetricCodeIssueFailure
	MetricCodeRedeemed      = internalmetrics.MetricCodeRedeemed
	MetricCodeRedeemFailure = internalmetrics.MetricCodeRedeemFailure
	MetricLoginSuccess      = internalmetrics.MetricLoginSuccess
	MetricLoginFailure      = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited  = internalmetrics.MetricLoginRateLimited
	MetricIssueRateLimited  = internalmetrics.MetricIssueRateLimited
	MetricPasswordReset     = internalmetrics.MetricPasswordReset
	MetricPasswordSetup     = internalmetrics.MetricPasswordSetup
	MetricNotifyFailure     = internalmetrics.MetricNotifyFailure
	MetricValidationFailure = internalmetrics.MetricValidationFailure
	// MetricRedeemLatency is a histogram of credential redemption latency.
	MetricRedeemLatency = internalmetrics.MetricRedeemLatency
	// MetricIDCount is the number of defined metrics.
	MetricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
