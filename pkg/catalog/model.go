// Package catalog defines the transactional metadata catalog's domain
// model and abstract client contract: tables, partition versions, data
// commits, and the commit envelope used for conflict-checked writes.
package catalog

import (
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
)

// Table is a table's top-level, rarely-changing metadata: identity,
// storage location, schema, range/hash partitioning configuration, and
// properties (which carry CDC and TTL settings).
type Table struct {
	ID             ids.TableID
	Namespace      string
	Name           string
	TablePath      string
	Schema         string
	RangeColumns   []string
	HashColumns    []string
	HashBucketNum  int
	Properties     map[string]string
	CreatedAt      time.Time
}

// CDCColumn returns the configured CDC change-type column, if any.
func (t Table) CDCColumn() (string, bool) {
	v, ok := t.Properties["cdc_column"]
	return v, ok
}

// PartitionTTLDays returns the partition tombstone TTL in days, if set.
func (t Table) PartitionTTLDays() (int, bool) {
	return intProperty(t.Properties, "partition_ttl_days")
}

// CompactionTTLDays returns the discard-log physical-delete TTL in days.
func (t Table) CompactionTTLDays() (int, bool) {
	return intProperty(t.Properties, "compaction_ttl_days")
}

// OnlySaveOnceCompaction reports whether only the most recent
// compaction's outputs are retained (older compacted bases become
// immediately discard-eligible rather than waiting out the TTL).
func (t Table) OnlySaveOnceCompaction() bool {
	return t.Properties["only_save_once_compaction"] == "true"
}

func intProperty(props map[string]string, key string) (int, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// PartitionVersion is one entry in a partition's version chain: the
// cumulative, as-of-this-version set of commits that make up the
// partition's data files.
type PartitionVersion struct {
	TableID         ids.TableID
	PartitionDesc   ids.PartitionDescriptor
	Version         int64
	CommitIDs       []ids.CommitID
	CommittedAt     time.Time
	IsCompactionBar bool
}

// DataFileOpKind distinguishes appended files from tombstoned ones
// within a single commit.
type DataFileOpKind string

const (
	// OpAdd records a file that became visible as of this commit.
	OpAdd DataFileOpKind = "add"
	// OpDelete records a file that a compaction, CDC or merge commit
	// invalidates.
	OpDelete DataFileOpKind = "del"
)

// DataFileOp is a single file add/delete recorded by a commit.
type DataFileOp struct {
	Kind DataFileOpKind
	File DataFileInfo
}

// DataFileInfo describes one physical data file.
type DataFileInfo struct {
	Path       string
	BucketID   int
	SizeBytes  int64
	RowCount   int64
	ModifiedAt time.Time
	Compacted  bool
}

// DataCommitInfo is the unit of atomic change to a partition: the set
// of file adds/deletes a writer or compactor produced, plus the commit
// kind used for conflict classification.
type DataCommitInfo struct {
	CommitID      ids.CommitID
	TableID       ids.TableID
	PartitionDesc ids.PartitionDescriptor
	Kind          CommitKind
	FileOps       []DataFileOp
	CommittedAt   time.Time
	// BasedOnVersion is the partition version this commit was planned
	// against; the catalog uses it to detect staleness.
	BasedOnVersion int64
}

// CommitKind classifies a commit for the conflict-rule table in §4.6.
type CommitKind string

const (
	CommitAppend      CommitKind = "append"
	CommitUpdate      CommitKind = "update"
	CommitDelete      CommitKind = "delete"
	CommitCompaction  CommitKind = "compaction"
	CommitMerge       CommitKind = "merge"
)

// CommitEnvelope is the unit submitted to Client.Commit: the proposed
// DataCommitInfo plus the version it was planned against, allowing the
// catalog to apply the conflict-rule table before accepting it.
type CommitEnvelope struct {
	Commit         DataCommitInfo
	ExpectedVersion int64
}

// ConflictKind enumerates the ways Client.Commit can reject an envelope.
type ConflictKind string

const (
	// ConflictStalePartition: the partition advanced past ExpectedVersion
	// and the commit kind requires it to still be the latest.
	ConflictStalePartition ConflictKind = "stale_partition"
	// ConflictCompactionRaced: a compaction committed concurrently with
	// a writer commit targeting the same bucket's pre-compaction files.
	ConflictCompactionRaced ConflictKind = "compaction_raced"
	// ConflictSchemaChanged: the table schema changed since the commit
	// was planned.
	ConflictSchemaChanged ConflictKind = "schema_changed"
	// ConflictTombstoneRaced: a delete/merge commit raced a concurrent
	// delete/merge over an overlapping file set.
	ConflictTombstoneRaced ConflictKind = "tombstone_raced"
)
