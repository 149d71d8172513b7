package batch

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks batch outcomes on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	results  *prometheus.CounterVec
	cacheHit prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redoscan",
			Name:      "patterns_total",
			Help:      "Analyzed patterns by verdict (safe, vulnerable, error) and error class.",
		}, []string{"verdict", "class"}),
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redoscan",
			Name:      "cache_hits_total",
			Help:      "Analyses served from the verdict cache.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "redoscan",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of uncached analyses.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	m.Registry.MustRegister(m.results, m.cacheHit, m.duration)
	return m
}

func (m *Metrics) observe(r *Outcome) {
	m.results.WithLabelValues(r.Verdict, r.ErrorClass).Inc()
	if r.Cached {
		m.cacheHit.Inc()
		return
	}
	m.duration.Observe(r.Duration.Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
