package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics holds Prometheus metrics for the build pipeline.
type PipelineMetrics struct {
	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	ActiveBuilds  prometheus.Gauge
}

// NewPipelineMetrics creates and registers pipeline metrics on the given registry.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "builds_total",
			Help:      "Total number of builds run, by final status.",
		}, []string{"status"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "build_duration_seconds",
			Help:      "Duration of builds in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ActiveBuilds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "active_builds",
			Help:      "Number of builds currently running.",
		}),
	}

	reg.MustRegister(m.BuildsTotal, m.BuildDuration, m.ActiveBuilds)
	return m
}
