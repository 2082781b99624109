package raftcatalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/raftcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/stretchr/testify/require"
)

func newBootstrappedNode(t *testing.T) *raftcatalog.Node {
	t.Helper()
	node, err := raftcatalog.NewNode(raftcatalog.Config{
		NodeID:   "test-node",
		BindAddr: "127.0.0.1:0",
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Shutdown() })

	require.NoError(t, node.Bootstrap())

	for i := 0; i < 50; i++ {
		if node.IsLeader() {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.True(t, node.IsLeader(), "node failed to become leader")
	return node
}

func TestNodeBootstrapAndCommit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping raft integration test in short mode")
	}
	node := newBootstrappedNode(t)
	ctx := context.Background()

	table := catalog.Table{
		ID:            ids.NewTableID(),
		Namespace:     "default",
		Name:          "events",
		TablePath:     "s3://bucket/events",
		RangeColumns:  []string{"dt"},
		HashBucketNum: 1,
	}
	require.NoError(t, node.CreateTable(ctx, table))

	got, err := node.GetTableInfo(ctx, "default", "events")
	require.NoError(t, err)
	require.Equal(t, table.ID, got.ID)

	desc := ids.PartitionDescriptor("dt=2024-01-01")
	commit := catalog.DataCommitInfo{
		CommitID:      ids.NewCommitID(),
		TableID:       table.ID,
		PartitionDesc: desc,
		Kind:          catalog.CommitAppend,
		CommittedAt:   time.Now(),
	}
	pv, err := node.Commit(ctx, catalog.CommitEnvelope{Commit: commit, ExpectedVersion: 0})
	require.NoError(t, err)
	require.EqualValues(t, 1, pv.Version)

	partitions, err := node.ListPartitions(ctx, table.ID)
	require.NoError(t, err)
	require.Equal(t, []ids.PartitionDescriptor{desc}, partitions)
}

func TestNodeRejectsWritesWhenNotLeader(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping raft integration test in short mode")
	}
	node, err := raftcatalog.NewNode(raftcatalog.Config{
		NodeID:   "follower",
		BindAddr: "127.0.0.1:0",
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Shutdown() })
	require.NoError(t, node.Join())

	err = node.CreateTable(context.Background(), catalog.Table{ID: ids.NewTableID(), Namespace: "d", Name: "t"})
	require.Error(t, err)
	var unavailable *catalog.CatalogUnavailableError
	require.ErrorAs(t, err, &unavailable)
}
