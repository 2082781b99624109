package catalog

import (
	"context"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
)

// EqualityPredicate is a single range-column equality binding used by
// GetPartitionsByEq; the planner narrows arbitrary predicates down to
// these before calling into the catalog.
type EqualityPredicate struct {
	Column string
	Value  string
}

// Client is the abstract contract every catalog backend (boltcatalog,
// raftcatalog, the rpc client stub) satisfies. All operations are
// read-committed against the catalog's latest applied state except
// where noted.
type Client interface {
	// GetTableInfo fetches a table's metadata by namespace and name.
	GetTableInfo(ctx context.Context, namespace, name string) (Table, error)

	// CreateTable registers a new table.
	CreateTable(ctx context.Context, table Table) error

	// ListPartitions returns every partition descriptor with at least
	// one committed version.
	ListPartitions(ctx context.Context, tableID ids.TableID) ([]ids.PartitionDescriptor, error)

	// GetSinglePartition returns the latest version of one partition.
	GetSinglePartition(ctx context.Context, tableID ids.TableID, desc ids.PartitionDescriptor) (PartitionVersion, error)

	// GetPartitionsByEq returns the latest version of every partition
	// matching an all-equality predicate set. The boltcatalog backend
	// answers it by filtering its full partition list.
	GetPartitionsByEq(ctx context.Context, tableID ids.TableID, eq []EqualityPredicate) ([]PartitionVersion, error)

	// VersionUpToTS returns the latest partition version committed at
	// or before asOf, for time-travel reads.
	VersionUpToTS(ctx context.Context, tableID ids.TableID, desc ids.PartitionDescriptor, asOf time.Time) (PartitionVersion, error)

	// GetCommits resolves a set of commit IDs to their DataCommitInfo,
	// in the order requested.
	GetCommits(ctx context.Context, tableID ids.TableID, commitIDs []ids.CommitID) ([]DataCommitInfo, error)

	// Commit submits a CommitEnvelope for conflict-checked application.
	// On success it returns the resulting PartitionVersion. On conflict
	// it returns a *ConflictError.
	Commit(ctx context.Context, envelope CommitEnvelope) (PartitionVersion, error)

	// UpdateProperties merges the given properties into a table's
	// property map (e.g. tuning TTLs or compaction thresholds).
	UpdateProperties(ctx context.Context, tableID ids.TableID, properties map[string]string) error

	// RecordDiscard appends entries to the discard log for files that
	// a compaction or tombstone made unreachable, for later physical
	// deletion by the lifecycle sweeper.
	RecordDiscard(ctx context.Context, tableID ids.TableID, entries []DiscardEntry) error

	// ListDiscardEntries returns discard-log entries recorded at or
	// before cutoff, for the lifecycle sweeper's GC pass.
	ListDiscardEntries(ctx context.Context, tableID ids.TableID, cutoff time.Time) ([]DiscardEntry, error)

	// Close releases any resources held by the client.
	Close() error
}

// DiscardEntry is one discard-log row: a file made unreachable by a
// compaction or tombstoning commit, pending physical deletion.
type DiscardEntry struct {
	TableID       ids.TableID
	PartitionDesc ids.PartitionDescriptor
	File          DataFileInfo
	DiscardedAt   time.Time
	// SourceCommit is the compaction/tombstone commit that made File
	// unreachable, kept for audit.
	SourceCommit ids.CommitID
}
