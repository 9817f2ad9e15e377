// Package metrics defines the Prometheus metrics of the VitalNotes client.
// They register with the default registry on import and are served by the
// console's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vitalnotes"

// RemoteRequestsTotal counts calls to the remote API.
// Labels:
//   - operation: "login", "list_patients", "create_patient", "update_patient", "delete_patient"
//   - outcome: "success", "http_error" or "transport_error"
var RemoteRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_requests_total",
		Help:      "Total number of remote API calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// RemoteRequestDuration measures remote API round trips.
var RemoteRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_request_duration_seconds",
		Help:      "Duration of remote API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// GuardDecisionsTotal counts access guard evaluations.
// Label:
//   - decision: "allow", "deny_not_logged_in" or "deny_insufficient_role"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard decisions, by result.",
	},
	[]string{"decision"},
)
