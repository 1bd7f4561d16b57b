// Package metrics exposes Prometheus collectors for the food item lifecycle
// and the HTTP API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharebite/sharebite/internal/foodshare"
	"github.com/sharebite/sharebite/internal/model"
)

const namespace = "sharebite"

// Registry holds every collector this package defines.
var Registry = prometheus.NewRegistry()

var (
	requestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Count of food item requests entering each status.",
		},
		[]string{"status"},
	)
	allocationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_rejections_total",
			Help:      "Count of lifecycle operations rejected by a precondition, by reason.",
		},
		[]string{"reason"},
	)
	foodItemsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "food_items_created_total",
			Help:      "Count of food items posted.",
		},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(requestTransitions)
		Registry.MustRegister(allocationRejections)
		Registry.MustRegister(foodItemsCreated)
		Registry.MustRegister(httpRequestDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordTransition counts a request entering status.
func RecordTransition(status model.RequestStatus) {
	requestTransitions.WithLabelValues(string(status)).Inc()
}

// RecordFoodItemCreated counts a posted food item.
func RecordFoodItemCreated() {
	foodItemsCreated.Inc()
}

// RecordRejection counts err under its taxonomy reason. Errors outside the
// taxonomy are not counted.
func RecordRejection(err error) {
	if reason := RejectionReason(err); reason != "" {
		allocationRejections.WithLabelValues(reason).Inc()
	}
}

// RejectionReason returns the label used for err, or "" if err is not a
// lifecycle rejection.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, foodshare.ErrValidation):
		return "validation"
	case errors.Is(err, foodshare.ErrNotFound):
		return "not_found"
	case errors.Is(err, foodshare.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, foodshare.ErrDuplicateRequest):
		return "duplicate_request"
	case errors.Is(err, foodshare.ErrAlreadyAllocated):
		return "already_allocated"
	case errors.Is(err, foodshare.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, foodshare.ErrCommitFailed):
		return "commit_failed"
	}
	return ""
}

// RecordHTTPRequest observes the latency of one API request.
func RecordHTTPRequest(method string, code int, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, strconv.Itoa(code)).Observe(d.Seconds())
}
