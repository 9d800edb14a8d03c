package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the dashboard backend.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: endpoint={current,forecast,historical}, outcome={success,not_found,error}
	ProviderDuration *prometheus.HistogramVec // labels: endpoint
	HistoryMissing   prometheus.Counter

	// Fetch cycle metrics.
	FetchCycles         *prometheus.CounterVec // labels: trigger={search,location,refresh}, outcome={ready,error,stale}
	LocationResolutions *prometheus.CounterVec // labels: outcome={success,fallback}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.HistoryMissing,
		m.FetchCycles,
		m.LocationResolutions,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "provider_requests_total",
			Help:      "Weather provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_dashboard",
			Name:      "provider_request_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		HistoryMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "history_days_missing_total",
			Help:      "Historical days omitted because their request failed.",
		}),
		FetchCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "fetch_cycles_total",
			Help:      "Completed fetch cycles by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		LocationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_dashboard",
			Name:      "location_resolutions_total",
			Help:      "Device location lookups by outcome.",
		}, []string{"outcome"}),
	}
}
