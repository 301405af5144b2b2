// Package metrics defines the custom Prometheus metrics of the auth service.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is loaded; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts issued token pairs.
// Label:
//   - kind: "user" or "admin"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of token pairs issued, by kind.",
	},
	[]string{"kind"},
)

// AuthorizationDenialsTotal counts requests rejected by the authorization gate.
// Label:
//   - reason: the error code returned to the caller (e.g. "TOKEN_REVOKED")
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of requests denied by the authorization gate.",
	},
	[]string{"reason"},
)

// TokenVerificationsTotal counts access tokens checked by the authorization
// gate.
// Label:
//   - result: "valid", "expired", "invalid" or "revoked"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of access token verifications, by result.",
	},
	[]string{"result"},
)

// BlacklistSize tracks the number of revoked jtis held in process. It is not
// reported when the blacklist lives in Redis.
var BlacklistSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "blacklist_size",
		Help:      "Current number of blacklisted token ids in the validation store.",
	},
)

// ── Flow metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - kind: "user" or "admin"
//   - result: "success" or the failure code
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)

// KeyRedemptionsTotal counts validation key redemptions.
// Label:
//   - result: "redeemed" or "rejected"
var KeyRedemptionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_key_redemptions_total",
		Help:      "Total number of validation key redemption attempts.",
	},
	[]string{"result"},
)

// ── Background metrics ───────────────────────────────────────────────────────

// SweepRemovedTotal counts entries removed by the expiry sweep.
// Label:
//   - kind: "keys", "tokens" or "blacklist"
var SweepRemovedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_removed_total",
		Help:      "Total number of expired entries removed by the sweeper.",
	},
	[]string{"kind"},
)

// AuditEventsDroppedTotal counts audit events dropped because a worker
// buffer was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped on a full dispatcher buffer.",
	},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditPublishDuration measures how long publishing a single audit event takes.
// Label:
//   - result: "ok" or "error"
var AuditPublishDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_publish_duration_seconds",
		Help:      "Duration of audit event publishing from dequeue to delivery.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
