package commitmap

import "github.com/prometheus/client_golang/prometheus"

var (
	watermarkGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tso",
			Subsystem: "commitmap",
			Name:      "largest_deleted_timestamp",
			Help:      "Largest commit timestamp evicted from the commit map.",
		})

	evictionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tso",
			Subsystem: "commitmap",
			Name:      "evictions",
			Help:      "Counter of commit map slot evictions.",
		})

	halfAbortedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tso",
			Subsystem: "commitmap",
			Name:      "half_aborted_txns",
			Help:      "Number of transactions in the half-aborted set.",
		})
)

func init() {
	prometheus.MustRegister(watermarkGauge)
	prometheus.MustRegister(evictionCounter)
	prometheus.MustRegister(halfAbortedGauge)
}
