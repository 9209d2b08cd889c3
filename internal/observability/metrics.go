package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	inboxActivitiesTotal *prometheus.CounterVec
	inboxLatencySeconds  *prometheus.HistogramVec
	deliveriesTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for federation observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		inboxActivitiesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_activities_total",
			Help: "Total number of inbound activities by type and outcome.",
		}, []string{"type", "outcome"})

		inboxLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inbox_latency_seconds",
			Help:    "Latency distribution for inbox request handling.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"route"})

		deliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of outbound signed deliveries by activity type and outcome.",
		}, []string{"type", "outcome"})

		prometheus.MustRegister(inboxActivitiesTotal, inboxLatencySeconds, deliveriesTotal)
	})
}

// InboxActivities exposes the counter for inbound activities.
func InboxActivities() *prometheus.CounterVec {
	RegisterMetrics()
	return inboxActivitiesTotal
}

// InboxLatency exposes the latency histogram for inbox handling.
func InboxLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return inboxLatencySeconds
}

// Deliveries exposes the counter for outbound deliveries.
func Deliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return deliveriesTotal
}
