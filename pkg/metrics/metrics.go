// Package metrics exposes the table-state engine's Prometheus metrics:
// commit outcomes, compaction throughput, snapshot cache behavior, and
// lifecycle sweep cycles.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Commits
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakesoul_commits_total",
			Help: "Total number of commit attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	CommitConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakesoul_commit_conflicts_total",
			Help: "Total number of commit conflicts by conflict kind",
		},
		[]string{"conflict_kind"},
	)

	CommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lakesoul_commit_duration_seconds",
			Help:    "Commit latency from submission to catalog acceptance or rejection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	CommitRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakesoul_commit_retries_total",
			Help: "Total number of append-retry-by-rebase attempts",
		},
		[]string{"table"},
	)

	// Compaction
	CompactionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakesoul_compaction_runs_total",
			Help: "Total number of compaction executions by outcome",
		},
		[]string{"outcome"},
	)

	CompactionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lakesoul_compaction_duration_seconds",
			Help:    "Time to merge a bucket's candidate files",
			Buckets: prometheus.DefBuckets,
		},
	)

	CompactionBytesMerged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lakesoul_compaction_bytes_merged_total",
			Help: "Total bytes read as compaction input",
		},
	)

	CompactionFilesDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lakesoul_compaction_files_discarded_total",
			Help: "Total files recorded to the discard log by compaction",
		},
	)

	// Snapshot cache
	SnapshotCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakesoul_snapshot_cache_hits_total",
			Help: "Total snapshot cache lookups by hit/miss",
		},
		[]string{"result"},
	)

	// Lifecycle
	LifecycleSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lakesoul_lifecycle_sweep_duration_seconds",
			Help:    "Duration of one TTL/discard-log sweep cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	LifecycleSweepCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lakesoul_lifecycle_sweep_cycles_total",
			Help: "Total number of completed lifecycle sweep cycles",
		},
	)

	LifecyclePartitionsTombstonedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lakesoul_lifecycle_partitions_tombstoned_total",
			Help: "Total partitions tombstoned for exceeding partition_ttl_days",
		},
	)

	LifecycleFilesDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lakesoul_lifecycle_files_deleted_total",
			Help: "Total discard-log entries physically deleted",
		},
	)
)

func init() {
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitConflictsTotal)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(CommitRetriesTotal)

	prometheus.MustRegister(CompactionRunsTotal)
	prometheus.MustRegister(CompactionDuration)
	prometheus.MustRegister(CompactionBytesMerged)
	prometheus.MustRegister(CompactionFilesDiscarded)

	prometheus.MustRegister(SnapshotCacheHitsTotal)

	prometheus.MustRegister(LifecycleSweepDuration)
	prometheus.MustRegister(LifecycleSweepCyclesTotal)
	prometheus.MustRegister(LifecyclePartitionsTombstonedTotal)
	prometheus.MustRegister(LifecycleFilesDeletedTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec
// with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
