package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sift_signals_accepted_total",
		Help: "Signals accepted and handed to the active sink.",
	}, []string{"schema_id"})

	signalsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sift_signals_rejected_total",
		Help: "Signals rejected before reaching the sink.",
	}, []string{"reason"})

	sinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sift_sink_failures_total",
		Help: "Sink-level failures surfaced to ingestion callers.",
	}, []string{"sink"})

	batchSizes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sift_ingest_batch_size",
		Help:    "Accepted batch sizes.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Rejection reason labels.
const (
	reasonValidation = "validation"
	reasonSchema     = "schema_not_found"
	reasonBatchLimit = "batch_limit"
)
