// Package metrics defines and registers the custom Prometheus metrics of the
// vetconsult auth API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vetconsult"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - principal: "user" or "admin"
//   - result: "success", "invalid_credentials", "inactive", "unverified", "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_login_attempts_total",
		Help:      "Total number of login attempts, by principal type and result.",
	},
	[]string{"principal", "result"},
)

// RefreshTotal counts refresh token redemptions.
// Label:
//   - result: "success", "rejected", "inactive", "error"
var RefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_refresh_total",
		Help:      "Total number of refresh token redemptions, by result.",
	},
	[]string{"result"},
)

// SessionsRevokedTotal counts revocation requests.
// Label:
//   - reason: "logout", "logout_all", "password_change", "password_reset", "deactivation"
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_sessions_revoked_total",
		Help:      "Total number of session revocation requests, by reason.",
	},
	[]string{"reason"},
)

// ── Verification metrics ──────────────────────────────────────────────────────

// VerificationCodesIssuedTotal counts codes handed to the SMS layer.
// Label:
//   - purpose: "REGISTRATION" or "PASSWORD_RESET"
var VerificationCodesIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_codes_issued_total",
		Help:      "Total number of verification codes issued, by purpose.",
	},
	[]string{"purpose"},
)

// VerificationFailuresTotal counts rejected code redemptions.
// Label:
//   - reason: "invalid_code", "not_found", "too_many_attempts"
var VerificationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_failures_total",
		Help:      "Total number of failed verification code redemptions, by reason.",
	},
	[]string{"reason"},
)

// SMSDeliveriesTotal counts queued SMS delivery outcomes.
// Label:
//   - result: "sent" or "failed"
var SMSDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sms_deliveries_total",
		Help:      "Total number of fire-and-forget SMS deliveries, by result.",
	},
	[]string{"result"},
)

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the token bucket.
// Label:
//   - route: the echo route path (e.g. "/auth/login")
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by route.",
	},
	[]string{"route"},
)

// ObserveSMS adapts SMSDeliveriesTotal to the dispatcher's result callback.
func ObserveSMS(ok bool) {
	if ok {
		SMSDeliveriesTotal.WithLabelValues("sent").Inc()
		return
	}
	SMSDeliveriesTotal.WithLabelValues("failed").Inc()
}
