// Package metrics defines and registers the custom Prometheus metrics of the
// weighbridge API. It is the single source of truth for metric names, labels
// and help strings.
//
// All metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weighbridge"

// ── Access control ────────────────────────────────────────────────────────────

// AuthFailuresTotal counts rejected authentication attempts.
// Label:
//   - reason: "no_token", "invalid_token", "user_not_found", "inactive", "api_key" or "error"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected during authentication.",
	},
	[]string{"reason"},
)

// GuardDenialsTotal counts requests refused by the path guard.
// Label:
//   - role: the role of the refused identity
var GuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_denials_total",
		Help:      "Total number of requests denied by the role/tenant guard.",
	},
	[]string{"role"},
)

// ── Weights ───────────────────────────────────────────────────────────────────

// WeightsRecordedTotal counts stored weigh tickets.
// Labels:
//   - source: "manual" or "scale"
//   - overweight: "true" or "false"
var WeightsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weights_recorded_total",
		Help:      "Total number of weigh tickets recorded.",
	},
	[]string{"source", "overweight"},
)

// IngestDedupTotal counts deduplication decisions on ingested tickets.
// Label:
//   - result: "hit" (duplicate, rejected) or "miss" (new ticket)
var IngestDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_dedup_total",
		Help:      "Total number of ingest deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Webhooks ──────────────────────────────────────────────────────────────────

// WebhookDeliveriesTotal counts webhook delivery attempts.
// Label:
//   - result: "ok", "failed" or "dropped"
var WebhookDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_deliveries_total",
		Help:      "Total number of webhook deliveries, labelled by result.",
	},
	[]string{"result"},
)

// WebhookQueueDepth tracks the number of deliveries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var WebhookQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "webhook_queue_depth",
		Help:      "Current number of deliveries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// WebhookDeliveryDuration measures a single outbound delivery.
// Label:
//   - result: "ok" or "failed"
var WebhookDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_delivery_duration_seconds",
		Help:      "Duration of outbound webhook deliveries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
