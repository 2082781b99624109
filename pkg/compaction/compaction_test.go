package compaction_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/boltcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/compaction"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/lakesoul-io/lakesoul-go/pkg/ioengine"
	"github.com/lakesoul-io/lakesoul-go/pkg/ioengine/iotest"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *boltcatalog.Store {
	t.Helper()
	store, err := boltcatalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPlanPartitionSelectsOverThresholdBucket(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	table := catalog.Table{
		ID: ids.NewTableID(), Namespace: "d", Name: "t",
		Properties: map[string]string{"level1_file_num_limit": "2"},
	}
	require.NoError(t, client.CreateTable(ctx, table))
	desc := ids.Empty

	var pv catalog.PartitionVersion
	for i := 0; i < 3; i++ {
		var err error
		pv, err = client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
			CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitAppend,
			FileOps: []catalog.DataFileOp{{Kind: catalog.OpAdd, File: catalog.DataFileInfo{
				Path: fmt.Sprintf("part-%d.parquet", i), BucketID: 0, SizeBytes: 10,
			}}},
			CommittedAt: time.Now(),
		}, ExpectedVersion: pv.Version})
		require.NoError(t, err)
	}

	candidates, err := compaction.PlanPartition(ctx, client, table, desc)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, 0, candidates[0].BucketID)
	require.Len(t, candidates[0].Files, 3)
}

func TestExecutorMergesAndRecordsDiscard(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	table := catalog.Table{ID: ids.NewTableID(), Namespace: "d", Name: "t", TablePath: "s3://bucket/t"}
	require.NoError(t, client.CreateTable(ctx, table))
	desc := ids.Empty

	engine := iotest.New()
	engine.PutRows("a.parquet", []ioengine.Row{{"id": "1"}})
	engine.PutRows("b.parquet", []ioengine.Row{{"id": "2"}})

	pv, err := client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "a.parquet", BucketID: 0}}},
		CommittedAt: time.Now(),
	}})
	require.NoError(t, err)
	pv, err = client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "b.parquet", BucketID: 0}}},
		CommittedAt: time.Now(),
	}, ExpectedVersion: pv.Version})
	require.NoError(t, err)

	candidates, err := compaction.PlanPartition(ctx, client, table, desc)
	require.NoError(t, err)
	require.Len(t, candidates, 0) // below default thresholds; force a candidate manually below

	candidate := compaction.Candidate{
		PartitionDesc: desc,
		BucketID:      0,
		Files: []catalog.DataFileInfo{
			{Path: "a.parquet", BucketID: 0},
			{Path: "b.parquet", BucketID: 0},
		},
	}

	executor := compaction.NewExecutor(client, engine)
	newPV, err := executor.Run(ctx, table, candidate)
	require.NoError(t, err)
	require.Greater(t, newPV.Version, pv.Version)

	entries, err := client.ListDiscardEntries(ctx, table.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

