package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransitionsApplied counts successful visit lifecycle transitions by action.
	TransitionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldservice_visit_transitions_applied_total",
		Help: "Visit lifecycle transitions applied, by action.",
	}, []string{"action"})

	// TransitionsRejected counts transitions refused by a precondition.
	TransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldservice_visit_transitions_rejected_total",
		Help: "Visit lifecycle transitions rejected, by action and reason.",
	}, []string{"action", "reason"})

	// TransitionsDeduplicated counts replayed requests answered from the
	// transition log instead of being applied twice.
	TransitionsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldservice_visit_transitions_deduplicated_total",
		Help: "Transition requests answered idempotently via request ID.",
	})

	// SamplesRecorded counts location samples accepted into the ledger.
	SamplesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldservice_location_samples_recorded_total",
		Help: "Location samples written to the ledger.",
	})

	// SamplesThrottled counts location submissions rejected by the rate limiter.
	SamplesThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldservice_location_samples_throttled_total",
		Help: "Location submissions rejected with 429.",
	})

	// SyncOpsReplayed counts offline-queued operations the sync gateway
	// delivered and the server accepted.
	SyncOpsReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldservice_sync_operations_replayed_total",
		Help: "Queued operations accepted by the server during replay.",
	})
)

// Handler exposes the default registry for a /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
