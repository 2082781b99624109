package catalog

import "fmt"

// NotFoundError reports that a table, partition, or commit referenced
// by a catalog operation does not exist.
type NotFoundError struct {
	Kind string // "table", "partition", or "commit"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: %s %q not found", e.Kind, e.Key)
}

// ConflictError reports that Commit rejected an envelope under the
// §4.6 conflict-rule table.
type ConflictError struct {
	Kind          ConflictKind
	PartitionDesc string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("catalog: commit conflict (%s) on partition %q", e.Kind, e.PartitionDesc)
}

// InvalidStateError reports a request that is well-formed but violates
// an invariant given the catalog's current state. The rpc transport
// carries it across the wire; the boltcatalog and raftcatalog backends
// do not return it.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("catalog: invalid state: %s", e.Reason)
}

// CatalogUnavailableError reports that the catalog could not be
// reached or has no leader (raft-backed deployments) to serve a
// linearizable request.
type CatalogUnavailableError struct {
	Reason string
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog: unavailable: %s", e.Reason)
}

// SchemaIncompatibleError reports that a commit's implied schema does
// not match the table's current schema.
type SchemaIncompatibleError struct {
	TableID string
	Reason  string
}

func (e *SchemaIncompatibleError) Error() string {
	return fmt.Sprintf("catalog: schema incompatible for table %s: %s", e.TableID, e.Reason)
}

// StorageError wraps an underlying storage-layer failure (bbolt, disk,
// network) encountered while serving a catalog operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog: storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
