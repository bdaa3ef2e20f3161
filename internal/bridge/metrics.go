package bridge

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelbridge",
			Subsystem: "bridge",
			Name:      "runs_total",
			Help:      "Completed RunModel calls by outcome and failure kind",
		},
		[]string{"outcome", "kind"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelbridge",
			Subsystem: "bridge",
			Name:      "run_duration_seconds",
			Help:      "Duration of RunModel calls from dispatch to completion",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	inflightRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "modelbridge",
			Subsystem: "bridge",
			Name:      "inflight",
			Help:      "RunModel calls currently executing",
		},
	)

	releaseErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelbridge",
			Subsystem: "bridge",
			Name:      "release_errors_total",
			Help:      "Errors returned while releasing sessions or model handles",
		},
		[]string{"resource"},
	)

	duplicateDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelbridge",
			Subsystem: "bridge",
			Name:      "duplicate_completions_total",
			Help:      "Completion deliveries dropped because one was already made",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration, inflightRuns, releaseErrors, duplicateDeliveries)
}

func recordOutcome(f *Failure, seconds float64) {
	if f == nil {
		runsTotal.WithLabelValues("resolved", "").Inc()
		runDuration.WithLabelValues("resolved").Observe(seconds)
		return
	}
	runsTotal.WithLabelValues("rejected", f.Kind.String()).Inc()
	runDuration.WithLabelValues("rejected").Observe(seconds)
}
