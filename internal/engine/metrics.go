package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcticd",
			Subsystem: "downloads",
			Name:      "transfers_total",
			Help:      "Total transfers by terminal outcome",
		},
		[]string{"kind", "outcome"},
	)

	bytesReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcticd",
			Subsystem: "downloads",
			Name:      "bytes_received_total",
			Help:      "Total bytes streamed from remote hosts",
		},
	)

	batchActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arcticd",
			Subsystem: "downloads",
			Name:      "batch_active",
			Help:      "1 while a download batch is running",
		},
	)
)

func init() {
	prometheus.MustRegister(transfersTotal, bytesReceivedTotal, batchActive)
}
