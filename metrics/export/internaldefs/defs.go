package internaldefs

import (
	"github.com/MrEthical07/userauth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   userauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   userauth.MetricID
	Name string
	Help string
}

// Namespace prefixes every exported metric.
const Namespace = "userauth"

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: userauth.MetricRegisterSuccess, Name: "userauth_register_success_total", Help: "Successful registrations."},
	{ID: userauth.MetricRegisterFailure, Name: "userauth_register_failure_total", Help: "Registrations rejected for invalid input."},
	{ID: userauth.MetricRegisterDuplicate, Name: "userauth_register_duplicate_total", Help: "Registrations rejected because the email is taken."},
	{ID: userauth.MetricRegisterRateLimited, Name: "userauth_register_rate_limited_total", Help: "Rate-limited registrations."},
	{ID: userauth.MetricLoginSuccess, Name: "userauth_login_success_total", Help: "Successful logins."},
	{ID: userauth.MetricLoginFailure, Name: "userauth_login_failure_total", Help: "Failed logins."},
	{ID: userauth.MetricLoginRateLimited, Name: "userauth_login_rate_limited_total", Help: "Rate-limited logins."},
	{ID: userauth.MetricRefreshSuccess, Name: "userauth_refresh_success_total", Help: "Successful token refreshes."},
	{ID: userauth.MetricRefreshFailure, Name: "userauth_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: userauth.MetricRefreshRateLimited, Name: "userauth_refresh_rate_limited_total", Help: "Rate-limited token refreshes."},
	{ID: userauth.MetricProfileUpdate, Name: "userauth_profile_update_total", Help: "Successful profile updates."},
	{ID: userauth.MetricPasswordChangeSuccess, Name: "userauth_password_change_success_total", Help: "Successful password changes."},
	{ID: userauth.MetricPasswordChangeInvalidOld, Name: "userauth_password_change_invalid_old_total", Help: "Password changes rejected for a wrong current password."},
	{ID: userauth.MetricPasswordRehash, Name: "userauth_password_rehash_total", Help: "Password hashes upgraded on login."},
	{ID: userauth.MetricValidateSuccess, Name: "userauth_validate_success_total", Help: "Accepted access tokens."},
	{ID: userauth.MetricValidateFailure, Name: "userauth_validate_failure_total", Help: "Rejected access tokens."},
	{ID: userauth.MetricAuthorizeDenied, Name: "userauth_authorize_denied_total", Help: "Requests denied by role checks."},
	{ID: userauth.MetricRateLimitHit, Name: "userauth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: userauth.MetricBackendError, Name: "userauth_backend_error_total", Help: "Store, hashing or signing failures hidden behind ErrUnavailable."},
}

// HistogramDefs lists every latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: userauth.MetricValidateLatency, Name: "userauth_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's first
// seven buckets. The eighth bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "userauth_audit_dropped_total"

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with
// zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
