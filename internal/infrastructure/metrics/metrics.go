// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vahire_lifecycle_transitions_total",
			Help: "State transitions applied to engagement entities",
		},
		[]string{"entity", "to_status"},
	)

	PaymentAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vahire_payment_amount_total",
			Help: "Gross payment amount recorded, by currency and resulting status",
		},
		[]string{"currency", "status"},
	)

	RatingRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vahire_rating_cas_retries_total",
			Help: "Optimistic rating updates retried after a version conflict",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// Recorder adapts the package collectors to the usecase layer.
type Recorder struct{}

func (Recorder) Transition(entity, toStatus string) {
	LifecycleTransitions.WithLabelValues(entity, toStatus).Inc()
}

func (Recorder) Payment(currency, status string, amount decimal.Decimal) {
	PaymentAmount.WithLabelValues(currency, status).Add(amount.InexactFloat64())
}

func (Recorder) RatingRetry() {
	RatingRetries.Inc()
}

func RecordHTTPRequestDuration(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
