package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	triggers       *prometheus.CounterVec
	markupAttempts prometheus.Counter
	resolutions    *prometheus.CounterVec
	duration       prometheus.Histogram
	inflight       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &metrics{
		triggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetint_triggers_total",
				Help: "Resolution triggers by result (accepted, dropped, superseding, disabled)",
			},
			[]string{"result"},
		),
		markupAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sitetint_markup_attempts_total",
				Help: "Markup requests made to the retrieval collaborator",
			},
		),
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetint_resolutions_total",
				Help: "Applied colours by source",
			},
			[]string{"source"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitetint_resolution_duration_seconds",
				Help:    "Time from trigger to applied colour",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		inflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitetint_inflight_resolutions",
				Help: "Resolutions currently in progress",
			},
		),
	}
}
