package boltcatalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/boltcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *boltcatalog.Store {
	t.Helper()
	store, err := boltcatalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreateTable(t *testing.T, store *boltcatalog.Store, id ids.TableID) catalog.Table {
	t.Helper()
	table := catalog.Table{
		ID:            id,
		Namespace:     "default",
		Name:          "events",
		TablePath:     "s3://bucket/events",
		RangeColumns:  []string{"dt"},
		HashColumns:   []string{"user_id"},
		HashBucketNum: 4,
		Properties:    map[string]string{},
	}
	require.NoError(t, store.CreateTable(context.Background(), table))
	return table
}

func TestCreateAndGetTableInfo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	table := mustCreateTable(t, store, ids.NewTableID())

	got, err := store.GetTableInfo(ctx, "default", "events")
	require.NoError(t, err)
	require.Equal(t, table.ID, got.ID)
	require.Equal(t, table.TablePath, got.TablePath)
}

func TestGetTableInfoNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetTableInfo(context.Background(), "default", "missing")
	require.Error(t, err)
	var nf *catalog.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCommitAppendAdvancesVersionChain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	table := mustCreateTable(t, store, ids.NewTableID())
	desc := ids.PartitionDescriptor("dt=2024-01-01")

	commit1 := catalog.DataCommitInfo{
		CommitID:      ids.NewCommitID(),
		TableID:       table.ID,
		PartitionDesc: desc,
		Kind:          catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{
			{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "part-1-bucket0.parquet"}},
		},
		CommittedAt: time.Now(),
	}
	pv, err := store.Commit(ctx, catalog.CommitEnvelope{Commit: commit1, ExpectedVersion: 0})
	require.NoError(t, err)
	require.EqualValues(t, 1, pv.Version)
	require.Len(t, pv.CommitIDs, 1)

	commit2 := catalog.DataCommitInfo{
		CommitID:      ids.NewCommitID(),
		TableID:       table.ID,
		PartitionDesc: desc,
		Kind:          catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{
			{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "part-2-bucket0.parquet"}},
		},
		CommittedAt: time.Now(),
	}
	pv2, err := store.Commit(ctx, catalog.CommitEnvelope{Commit: commit2, ExpectedVersion: 1})
	require.NoError(t, err)
	require.EqualValues(t, 2, pv2.Version)
	require.Len(t, pv2.CommitIDs, 2)

	latest, err := store.GetSinglePartition(ctx, table.ID, desc)
	require.NoError(t, err)
	require.EqualValues(t, 2, latest.Version)
}

func TestCommitStaleUpdateConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	table := mustCreateTable(t, store, ids.NewTableID())
	desc := ids.PartitionDescriptor("dt=2024-01-01")

	first := catalog.DataCommitInfo{
		CommitID:      ids.NewCommitID(),
		TableID:       table.ID,
		PartitionDesc: desc,
		Kind:          catalog.CommitAppend,
		CommittedAt:   time.Now(),
	}
	_, err := store.Commit(ctx, catalog.CommitEnvelope{Commit: first, ExpectedVersion: 0})
	require.NoError(t, err)

	stale := catalog.DataCommitInfo{
		CommitID:      ids.NewCommitID(),
		TableID:       table.ID,
		PartitionDesc: desc,
		Kind:          catalog.CommitUpdate,
		CommittedAt:   time.Now(),
	}
	_, err = store.Commit(ctx, catalog.CommitEnvelope{Commit: stale, ExpectedVersion: 0})
	require.Error(t, err)
	var conflict *catalog.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, catalog.ConflictStalePartition, conflict.Kind)
}

func TestGetPartitionsByEqFiltersOnBoundColumns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	table := mustCreateTable(t, store, ids.NewTableID())

	for _, dt := range []string{"2024-01-01", "2024-01-02"} {
		desc, err := ids.BuildPartitionDescriptor([]string{"dt"}, map[string]string{"dt": dt})
		require.NoError(t, err)
		commit := catalog.DataCommitInfo{
			CommitID:      ids.NewCommitID(),
			TableID:       table.ID,
			PartitionDesc: desc,
			Kind:          catalog.CommitAppend,
			CommittedAt:   time.Now(),
		}
		_, err = store.Commit(ctx, catalog.CommitEnvelope{Commit: commit, ExpectedVersion: 0})
		require.NoError(t, err)
	}

	matches, err := store.GetPartitionsByEq(ctx, table.ID, []catalog.EqualityPredicate{{Column: "dt", Value: "2024-01-01"}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, ids.PartitionDescriptor("dt=2024-01-01"), matches[0].PartitionDesc)
}

func TestRecordAndListDiscardEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	table := mustCreateTable(t, store, ids.NewTableID())

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	err := store.RecordDiscard(ctx, table.ID, []catalog.DiscardEntry{
		{TableID: table.ID, File: catalog.DataFileInfo{Path: "old.parquet"}, DiscardedAt: past},
		{TableID: table.ID, File: catalog.DataFileInfo{Path: "new.parquet"}, DiscardedAt: future},
	})
	require.NoError(t, err)

	eligible, err := store.ListDiscardEntries(ctx, table.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, "old.parquet", eligible[0].File.Path)
}
