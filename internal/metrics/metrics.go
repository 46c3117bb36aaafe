package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FetchRequests    *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
	AnalysisRuns     *prometheus.CounterVec
	HighestCartValue prometheus.Gauge
	FarthestDistance prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		FetchRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "storelens_fetch_requests_total",
			Help: "Total number of requests sent to the store API.",
		}, []string{"resource", "status"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storelens_fetch_duration_seconds",
			Help:    "Duration of requests to the store API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		AnalysisRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "storelens_analysis_runs_total",
			Help: "Total number of analysis runs.",
		}, []string{"status"}),
		HighestCartValue: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "storelens_highest_cart_value",
			Help: "Value of the most expensive cart found by the last successful run.",
		}),
		FarthestDistance: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "storelens_farthest_users_distance_km",
			Help: "Distance between the two users living farthest apart, in kilometers.",
		}),
	}
}
