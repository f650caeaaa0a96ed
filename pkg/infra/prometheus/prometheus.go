package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	decisionLabels = []string{"policy", "algorithm", "outcome"}

	// Latency buckets in milliseconds. A local check is sub-millisecond, a
	// shared store round trip a few milliseconds.
	latencyBuckets = []float64{
		0.05, 0.1, 0.25, // local checks
		0.5, 1, 2.5, // contended locks
		5, 10, 25, // shared store round trips
		50, 100, // timeouts
	}

	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"method", "status"},
	)

	RateLimitDecisions = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_ratelimit_decisions_total",
			Help: "Admission decisions by policy, algorithm and outcome",
		},
		decisionLabels,
	)

	RateLimitDegraded = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_ratelimit_degraded_total",
			Help: "Checks decided locally because the shared store was unavailable",
		},
		[]string{"operation"},
	)

	RateLimitCheckLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gate_ratelimit_check_latency_ms",
			Help:    "Admission check latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"algorithm"},
	)

	RateLimitStoreEntries = promauto.With(registerer).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gate_ratelimit_store_entries",
			Help: "Live entries held by the in-process counter store",
		},
		[]string{"kind"},
	)

	RateLimitCleanupRemoved = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_ratelimit_cleanup_removed_total",
			Help: "Entries removed by the cleanup task",
		},
		[]string{"kind"},
	)

	InflightRequests = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_inflight_requests",
			Help: "Requests currently being served",
		},
	)
)

type MetricsConfig struct {
	EnableProcess bool
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableProcess: true,
	}
}

var Config MetricsConfig

func Initialize(cfg MetricsConfig) {
	Config = cfg
	if cfg.EnableProcess {
		_ = registry.Register(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// Handler serves the private registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
