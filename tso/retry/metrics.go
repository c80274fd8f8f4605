package retry

import "github.com/prometheus/client_golang/prometheus"

var (
	txAlreadyCommittedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tso",
			Subsystem: "retries",
			Name:      "tx_already_committed",
			Help:      "Counter of retries resolved as already committed.",
		})

	invalidTxCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tso",
			Subsystem: "retries",
			Name:      "tx_invalid",
			Help:      "Counter of retries aborted because the commit record was invalidated.",
		})

	noCommitTimestampCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tso",
			Subsystem: "retries",
			Name:      "tx_without_commit_timestamp",
			Help:      "Counter of retries aborted because no commit record was found.",
		})
)

func init() {
	prometheus.MustRegister(txAlreadyCommittedCounter)
	prometheus.MustRegister(invalidTxCounter)
	prometheus.MustRegister(noCommitTimestampCounter)
}
