package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	functionLabel = "function"
	outcomeLabel  = "outcome"
)

var (
	readOnlyCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alerimpool",
			Name:      "readonly_calls_total",
			Help:      "read-only contract calls by function and outcome",
		},
		[]string{functionLabel, outcomeLabel},
	)

	readOnlyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "alerimpool",
			Name:      "readonly_call_duration_seconds",
			Help:      "latency of read-only contract calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{functionLabel},
	)

	fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alerimpool",
			Name:      "fetch_batch_failures_total",
			Help:      "list fetch batches that failed",
		},
		[]string{functionLabel},
	)

	submittedCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alerimpool",
			Name:      "contract_calls_submitted_total",
			Help:      "state-changing contract calls by function and outcome",
		},
		[]string{functionLabel, outcomeLabel},
	)
)

func init() {
	prometheus.MustRegister(readOnlyCalls, readOnlyDuration, fetchFailures, submittedCalls)
}
