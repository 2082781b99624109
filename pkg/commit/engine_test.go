package commit_test

import (
	"context"
	"testing"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/boltcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/commit"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *boltcatalog.Store {
	t.Helper()
	store, err := boltcatalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSubmitAppendRebasesPastConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	table := catalog.Table{ID: ids.NewTableID(), Namespace: "d", Name: "t"}
	require.NoError(t, client.CreateTable(ctx, table))
	desc := ids.Empty

	// Simulate a concurrent writer landing first.
	_, err := client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc,
		Kind: catalog.CommitAppend, CommittedAt: time.Now(),
	}})
	require.NoError(t, err)

	engine := commit.New(client)
	pv, err := engine.Submit(ctx, catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc,
		Kind: catalog.CommitAppend, CommittedAt: time.Now(), BasedOnVersion: 0,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, pv.Version)
}

func TestSubmitUpdateSurfacesConflictWithoutRetry(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	table := catalog.Table{ID: ids.NewTableID(), Namespace: "d", Name: "t"}
	require.NoError(t, client.CreateTable(ctx, table))
	desc := ids.Empty

	_, err := client.Commit(ctx, catalog.CommitEnvelope{Commit: catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc,
		Kind: catalog.CommitAppend, CommittedAt: time.Now(),
	}})
	require.NoError(t, err)

	engine := commit.New(client)
	_, err = engine.Submit(ctx, catalog.DataCommitInfo{
		CommitID: ids.NewCommitID(), TableID: table.ID, PartitionDesc: desc,
		Kind: catalog.CommitUpdate, CommittedAt: time.Now(), BasedOnVersion: 0,
	})
	require.Error(t, err)
	var conflict *catalog.ConflictError
	require.ErrorAs(t, err, &conflict)
}
