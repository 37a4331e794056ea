// Package metrics defines all custom Prometheus metrics for the marketplace
// API. It is the single source of truth for metric names, labels, and help
// strings; promauto registers everything with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// AuthzDecisionsTotal counts policy engine decisions.
// Labels:
//   - resource: "listing" or "post"
//   - action: the attempted action (create, read, update, delete, moderate)
//   - outcome: "allow", "unauthenticated", or "forbidden"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization decisions, by resource, action, and outcome.",
	},
	[]string{"resource", "action", "outcome"},
)

// TokenVerifyFailuresTotal counts credential verification failures at the
// gateway. All failures resolve to an anonymous identity; the reason label
// ("malformed", "signature", "expired") exists only server-side.
var TokenVerifyFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verify_failures_total",
		Help:      "Total number of bearer token verification failures, by reason.",
	},
	[]string{"reason"},
)

// ModerationTransitionsTotal counts moderation state changes.
// Labels:
//   - kind: "listing" or "post"
//   - to: the requested target state
//   - result: "applied" or "conflict" (lost compare-and-swap race)
var ModerationTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_transitions_total",
		Help:      "Total number of moderation transitions, by content kind, target state, and result.",
	},
	[]string{"kind", "to", "result"},
)

// ListingsCreatedTotal counts newly submitted listings.
var ListingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_created_total",
		Help:      "Total number of listings created, by property kind.",
	},
	[]string{"kind"},
)

// AuditQueueDepth tracks pending audit records per dispatcher worker.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
