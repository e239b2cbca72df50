package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equitylens",
		Subsystem: "pipeline",
		Name:      "analyses_total",
		Help:      "Completed per-identifier analyses by outcome.",
	}, []string{"outcome"})

	moduleOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equitylens",
		Subsystem: "pipeline",
		Name:      "module_outcomes_total",
		Help:      "Metric module computations by module and outcome.",
	}, []string{"metric", "outcome"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "equitylens",
		Subsystem: "pipeline",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of one per-identifier analysis.",
		Buckets:   prometheus.DefBuckets,
	})
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

func observeModule(metric string, err error) {
	if err != nil {
		moduleOutcomes.WithLabelValues(metric, outcomeFailed).Inc()
		return
	}
	moduleOutcomes.WithLabelValues(metric, outcomeOK).Inc()
}
