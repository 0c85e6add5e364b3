package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "archetype"

var (
	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Pipeline invocations by operation and outcome",
		},
		[]string{"operation", "outcome"}, // "success", "error"
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"stage"},
	)

	degradedResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_results_total",
			Help:      "Results produced from fallback values after a collaborator failure",
		},
		[]string{"kind"}, // "similarity", "label", "influence"
	)

	clustersFormedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_formed_total",
			Help:      "Clusters surviving the minimum-size filter",
		},
	)

	embeddingBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Embedding provider batches by outcome",
		},
		[]string{"outcome"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

func RecordBatch(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	batchesTotal.WithLabelValues(operation, outcome).Inc()
}

func ObserveStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func RecordDegraded(kind string) {
	degradedResultsTotal.WithLabelValues(kind).Inc()
}

func RecordClusters(n int) {
	clustersFormedTotal.Add(float64(n))
}

func RecordEmbeddingBatch(err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	embeddingBatchesTotal.WithLabelValues(outcome).Inc()
}
