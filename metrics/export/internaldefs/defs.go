package internaldefs

import (
	"github.com/MrEthical07/reelauth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   reelauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   reelauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for dispatcher drops.
const AuditDroppedName = "reelauth_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: reelauth.MetricLoginSuccess, Name: "reelauth_login_success_total", Help: "Successful login attempts."},
	{ID: reelauth.MetricLoginFailure, Name: "reelauth_login_failure_total", Help: "Failed login attempts."},
	{ID: reelauth.MetricLoginRateLimited, Name: "reelauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: reelauth.MetricPasswordUpgraded, Name: "reelauth_password_upgraded_total", Help: "Stored password hashes upgraded after login."},
	{ID: reelauth.MetricRefreshSuccess, Name: "reelauth_refresh_success_total", Help: "Successful refresh operations."},
	{ID: reelauth.MetricRefreshFailure, Name: "reelauth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: reelauth.MetricRefreshRevoked, Name: "reelauth_refresh_revoked_total", Help: "Refresh attempts with a revoked refresh token."},
	{ID: reelauth.MetricLogout, Name: "reelauth_logout_total", Help: "Completed logout operations."},
	{ID: reelauth.MetricLogoutFailure, Name: "reelauth_logout_failure_total", Help: "Rejected logout operations."},
	{ID: reelauth.MetricTokenRevoked, Name: "reelauth_token_revoked_total", Help: "Revocation entries written."},
	{ID: reelauth.MetricValidateSuccess, Name: "reelauth_validate_success_total", Help: "Accepted access tokens."},
	{ID: reelauth.MetricValidateFailure, Name: "reelauth_validate_failure_total", Help: "Access tokens rejected as missing, malformed, expired or invalid."},
	{ID: reelauth.MetricValidateRevoked, Name: "reelauth_validate_revoked_total", Help: "Access tokens rejected by the revocation list."},
	{ID: reelauth.MetricStoreError, Name: "reelauth_store_error_total", Help: "Revocation or credential store failures."},
	{ID: reelauth.MetricRegisterSuccess, Name: "reelauth_register_success_total", Help: "Accounts created by registration."},
	{ID: reelauth.MetricRegisterFailure, Name: "reelauth_register_failure_total", Help: "Rejected registrations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: reelauth.MetricValidateLatency, Name: "reelauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the bucket upper bounds in seconds, as Prometheus le labels.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors [HistogramBounds] in a form usable inside instrument names.
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

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// or truncating as needed.
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
