package loader

import "github.com/prometheus/client_golang/prometheus"

const (
	modeMmap = "mmap"
	modeRead = "read"
)

var (
	acquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelbridge",
			Subsystem: "loader",
			Name:      "acquisitions_total",
			Help:      "Model files acquired, by mode (mmap or read)",
		},
		[]string{"mode"},
	)

	acquiredBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelbridge",
			Subsystem: "loader",
			Name:      "acquired_bytes_total",
			Help:      "Total bytes of model files acquired",
		},
	)

	openHandles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "modelbridge",
			Subsystem: "loader",
			Name:      "mappings_open",
			Help:      "Model handles acquired and not yet released",
		},
	)
)

func init() {
	prometheus.MustRegister(acquisitionsTotal, acquiredBytes, openHandles)
}

func recordAcquire(mode string, size int64) {
	acquisitionsTotal.WithLabelValues(mode).Inc()
	acquiredBytes.Add(float64(size))
	openHandles.Inc()
}

func recordRelease() {
	openHandles.Dec()
}
