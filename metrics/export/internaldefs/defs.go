package internaldefs

import (
	codeAuth "github.com/MrEthical07/codeAuth"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   codeAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one exported latency histogram.
type HistogramDef struct {
	ID   codeAuth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: codeAuth.MetricCodeIssued, Name: "codeauth_code_issued_total", Help: "Codes issued and stored."},
	{ID: codeAuth.MetricCodeIssueFailure, Name: "codeauth_code_issue_failure_total", Help: "Code requests that did not issue a code."},
	{ID: codeAuth.MetricCodeRedeemed, Name: "codeauth_code_redeemed_total", Help: "Codes redeemed successfully."},
	{ID: codeAuth.MetricCodeRedeemFailure, Name: "codeauth_code_redeem_failure_total", Help: "Code redemptions that matched nothing."},
	{ID: codeAuth.MetricLoginSuccess, Name: "codeauth_login_success_total", Help: "Sessions issued by any sign-in path."},
	{ID: codeAuth.MetricLoginFailure, Name: "codeauth_login_failure_total", Help: "Failed password logins."},
	{ID: codeAuth.MetricLoginRateLimited, Name: "codeauth_login_rate_limited_total", Help: "Password logins rejected by the login throttle."},
	{ID: codeAuth.MetricIssueRateLimited, Name: "codeauth_issue_rate_limited_total", Help: "Code requests rejected by the issuance throttle."},
	{ID: codeAuth.MetricPasswordReset, Name: "codeauth_password_reset_total", Help: "Passwords replaced by a reset code."},
	{ID: codeAuth.MetricPasswordSetup, Name: "codeauth_password_setup_total", Help: "Identities activated by a setup code."},
	{ID: codeAuth.MetricNotifyFailure, Name: "codeauth_notify_failure_total", Help: "Notifications the notifier failed to deliver."},
	{ID: codeAuth.MetricValidationFailure, Name: "codeauth_validation_failure_total", Help: "Requests rejected by input validation."},
}

var HistogramDefs = []HistogramDef{
	{ID: codeAuth.MetricRedeemLatency, Name: "codeauth_redeem_latency_seconds", Help: "Credential redemption latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// bucket of a snapshot is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// publish buckets as separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
