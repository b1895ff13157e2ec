package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records outcomes of prescription fulfillments and order
// status transitions.
type FulfillmentMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	shortfall prometheus.Counter
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fulfillment_duration_seconds",
		Help:    "Duration of fulfillment operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_success_total",
		Help: "Successful fulfillment operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_failure_total",
		Help: "Failed fulfillment operations.",
	}, []string{"operation"})
	shortfall := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_stock_shortfall_total",
		Help: "Fulfillments rejected because requested stock was unavailable.",
	})
	reg.MustRegister(duration, success, failure, shortfall)
	return &FulfillmentMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		shortfall: shortfall,
	}
}

// ObserveDuration records the duration for the named operation.
func (f *FulfillmentMetrics) ObserveDuration(operation string, duration time.Duration) {
	if f == nil || f.duration == nil {
		return
	}
	f.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (f *FulfillmentMetrics) IncSuccess(operation string) {
	if f == nil || f.success == nil {
		return
	}
	f.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (f *FulfillmentMetrics) IncFailure(operation string) {
	if f == nil || f.failure == nil {
		return
	}
	f.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncShortfall increments the stock shortfall counter.
func (f *FulfillmentMetrics) IncShortfall() {
	if f == nil || f.shortfall == nil {
		return
	}
	f.shortfall.Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
