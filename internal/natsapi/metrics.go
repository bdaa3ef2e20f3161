package natsapi

import "github.com/prometheus/client_golang/prometheus"

var (
	natsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelbridge",
			Subsystem: "nats",
			Name:      "requests_total",
			Help:      "Run requests received over NATS by outcome",
		},
		[]string{"outcome"},
	)
	natsErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelbridge",
		Subsystem: "nats",
		Name:      "errors_total",
		Help:      "Asynchronous NATS errors and failed replies",
	})
)

func init() {
	prometheus.MustRegister(natsRequests, natsErrors)
}
