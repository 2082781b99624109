package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/commit"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/lakesoul-io/lakesoul-go/pkg/ioengine"
	"github.com/lakesoul-io/lakesoul-go/pkg/log"
	"github.com/lakesoul-io/lakesoul-go/pkg/metrics"
)

// Executor merges compaction candidates through an ioengine.Engine and
// commits the result through a commit.Engine.
type Executor struct {
	client catalog.Client
	engine ioengine.Engine
	commit *commit.Engine
}

// NewExecutor wires a compaction executor over a catalog client and
// the external IO collaborator that performs the actual file merge.
func NewExecutor(client catalog.Client, engine ioengine.Engine) *Executor {
	return &Executor{client: client, engine: engine, commit: commit.New(client)}
}

// Run merges one candidate bucket: it asks the IO engine to produce
// the merged output and the delete/add ops, submits a compaction
// commit for those ops, and records the deleted inputs to the discard
// log for the lifecycle sweeper's later physical deletion. If the merge
// or the commit fails, any output files the engine reported are
// recorded in the discard log (best effort) before the error returns.
func (e *Executor) Run(ctx context.Context, table catalog.Table, candidate Candidate) (catalog.PartitionVersion, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CompactionDuration)

	logger := log.WithTableID(table.ID.String())

	recordLeaked := func(ops []catalog.DataFileOp) {
		var leaked []catalog.DiscardEntry
		for _, op := range ops {
			if op.Kind == catalog.OpAdd {
				leaked = append(leaked, catalog.DiscardEntry{TableID: table.ID, PartitionDesc: candidate.PartitionDesc, File: op.File, DiscardedAt: time.Now()})
			}
		}
		if len(leaked) > 0 {
			_ = e.client.RecordDiscard(ctx, table.ID, leaked)
		}
	}

	var inputSize int64
	for _, f := range candidate.Files {
		inputSize += f.SizeBytes
	}
	metrics.CompactionBytesMerged.Add(float64(inputSize))

	ops, err := e.engine.MergeBucket(ctx, table, string(candidate.PartitionDesc), candidate.BucketID, candidate.Files)
	if err != nil {
		metrics.CompactionRunsTotal.WithLabelValues("error").Inc()
		recordLeaked(ops)
		return catalog.PartitionVersion{}, fmt.Errorf("compaction: merge bucket %d: %w", candidate.BucketID, err)
	}

	pv, err := e.client.GetSinglePartition(ctx, table.ID, candidate.PartitionDesc)
	if err != nil {
		return catalog.PartitionVersion{}, fmt.Errorf("compaction: load partition: %w", err)
	}

	dc := catalog.DataCommitInfo{
		CommitID:       ids.NewCommitID(),
		TableID:        table.ID,
		PartitionDesc:  candidate.PartitionDesc,
		Kind:           catalog.CommitCompaction,
		FileOps:        ops,
		CommittedAt:    time.Now(),
		BasedOnVersion: pv.Version,
	}
	newPV, err := e.commit.Submit(ctx, dc)
	if err != nil {
		metrics.CompactionRunsTotal.WithLabelValues("conflict").Inc()
		recordLeaked(ops)
		return catalog.PartitionVersion{}, fmt.Errorf("compaction: commit: %w", err)
	}

	var discards []catalog.DiscardEntry
	now := time.Now()
	for _, op := range ops {
		if op.Kind != catalog.OpDelete {
			continue
		}
		discards = append(discards, catalog.DiscardEntry{
			TableID:       table.ID,
			PartitionDesc: candidate.PartitionDesc,
			File:          op.File,
			DiscardedAt:   now,
			SourceCommit:  dc.CommitID,
		})
	}
	if len(discards) > 0 {
		if err := e.client.RecordDiscard(ctx, table.ID, discards); err != nil {
			return catalog.PartitionVersion{}, fmt.Errorf("compaction: record discard: %w", err)
		}
		metrics.CompactionFilesDiscarded.Add(float64(len(discards)))
	}

	metrics.CompactionRunsTotal.WithLabelValues("success").Inc()
	logger.Info().
		Str("partition_desc", string(candidate.PartitionDesc)).
		Int("bucket_id", candidate.BucketID).
		Int("files_merged", len(candidate.Files)).
		Msg("compaction committed")

	return newPV, nil
}
