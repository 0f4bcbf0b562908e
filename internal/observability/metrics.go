package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hyperlocal_weather"

// Metrics holds the Prometheus counters and histograms for the forecast
// engine and its adapters.
type Metrics struct {
	// Forecast build metrics.
	ForecastBuilds        *prometheus.CounterVec   // labels: operation, outcome={success,invalid,error}
	ForecastBuildDuration *prometheus.HistogramVec // labels: operation
	ForecastCache         *prometheus.CounterVec   // labels: namespace={field,grid}, result={hit,miss,error}
	AlertsDetected        *prometheus.CounterVec   // labels: type, severity
	MicroclimatePoints    *prometheus.CounterVec   // labels: outcome={success,failed}

	// Upstream metrics.
	ProviderCalls    *prometheus.CounterVec // labels: operation={current,forecast}, outcome={success,absent,error,rejected}
	ElevationLookups *prometheus.CounterVec // labels: outcome={success,error}
	ElevationCache   *prometheus.CounterVec // labels: result={hit,miss}
	AlertsPublished  *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_builds_total",
			Help:      "Forecast pipeline runs by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ForecastBuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_build_duration_seconds",
			Help:      "Duration of a forecast operation, cache hits included.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
		AlertsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_detected_total",
			Help:      "Weather alerts raised by type and severity.",
		}, []string{"type", "severity"}),
		MicroclimatePoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "microclimate_points_total",
			Help:      "Sampled microclimate points by outcome.",
		}, []string{"outcome"}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Base weather provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ElevationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_lookups_total",
			Help:      "Elevation API lookups by outcome.",
		}, []string{"outcome"}),
		ElevationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_cache_total",
			Help:      "Elevation cache lookups by result.",
		}, []string{"result"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Alert messages written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ForecastBuilds,
		m.ForecastBuildDuration,
		m.ForecastCache,
		m.AlertsDetected,
		m.MicroclimatePoints,
		m.ProviderCalls,
		m.ElevationLookups,
		m.ElevationCache,
		m.AlertsPublished,
	}
}
