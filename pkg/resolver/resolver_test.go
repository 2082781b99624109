package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/boltcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/lakesoul-io/lakesoul-go/pkg/resolver"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *boltcatalog.Store {
	t.Helper()
	store, err := boltcatalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestResolveAppliesAddsAcrossCommits(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	table := catalog.Table{ID: ids.NewTableID(), Namespace: "d", Name: "t"}
	require.NoError(t, client.CreateTable(ctx, table))
	desc := ids.Empty

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

	files, err := resolver.Resolve(ctx, client, table.ID, pv)
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.Equal(t, []string{"a.parquet", "b.parquet"}, paths)
}

func TestResolveCompactionBarrierDropsPreCompactionFiles(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	table := catalog.Table{ID: ids.NewTableID(), Namespace: "d", Name: "t"}
	require.NoError(t, client.CreateTable(ctx, table))
	desc := ids.Empty

	pv, err := client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "part-1.parquet", BucketID: 0}}},
		CommittedAt: time.Now(),
	}})
	require.NoError(t, err)

	pv, err = client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "part-2.parquet", BucketID: 0}}},
		CommittedAt: time.Now(),
	}, ExpectedVersion: pv.Version})
	require.NoError(t, err)

	pv, err = client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitCompaction,
		FileOps: []catalog.DataFileOp{
			{Kind: catalog.OpDelete, File: catalog.DataFileInfo{Path: "part-1.parquet", BucketID: 0}},
			{Kind: catalog.OpDelete, File: catalog.DataFileInfo{Path: "part-2.parquet", BucketID: 0}},
			{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "compact-1.parquet", BucketID: 0, Compacted: true}},
		},
		CommittedAt: time.Now(),
	}, ExpectedVersion: pv.Version})
	require.NoError(t, err)

	pv, err = client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc, Kind: catalog.CommitAppend,
		FileOps: []catalog.DataFileOp{{Kind: catalog.OpAdd, File: catalog.DataFileInfo{Path: "part-3.parquet", BucketID: 0}}},
		CommittedAt: time.Now(),
	}, ExpectedVersion: pv.Version})
	require.NoError(t, err)

	files, err := resolver.Resolve(ctx, client, table.ID, pv)
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.Equal(t, []string{"compact-1.parquet", "part-3.parquet"}, paths)
}

func TestGroupByBucket(t *testing.T) {
	files := []catalog.DataFileInfo{
		{Path: "a", BucketID: 0},
		{Path: "b", BucketID: 1},
		{Path: "c", BucketID: 0},
	}
	groups := resolver.GroupByBucket(files)
	require.Len(t, groups[0], 2)
	require.Len(t, groups[1], 1)
}
