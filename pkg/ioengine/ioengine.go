// Package ioengine defines the seam between the table-state engine
// and the external component that actually reads and writes Parquet
// bytes: the row scanner and the bucket merge-writer compaction needs.
// This package only declares the interface; a concrete engine (backed
// by a Parquet library, object storage client, etc.) is out of scope
// for the catalog/compaction/lifecycle engine itself.
package ioengine

import (
	"context"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/planner"
)

// Row is one decoded record; column name to value.
type Row map[string]any

// RowIter iterates rows produced by a scan. Callers must call Close
// once done, even after an error from Next.
type RowIter interface {
	Next(ctx context.Context) (Row, bool, error)
	Close() error
}

// Engine is the external IO collaborator: it owns the actual file
// format and storage access, and is driven by the table-state engine
// to merge compaction buckets and to scan resolved file sets.
type Engine interface {
	// MergeBucket reads every file in files (already ordered
	// compacted-base-first by pkg/resolver) and writes one merged
	// output file per the table's CDC semantics, returning the
	// DataFileOps a compaction commit should record: a delete for
	// every input file and an add for the merged output.
	MergeBucket(ctx context.Context, table catalog.Table, partitionDesc string, bucketID int, files []catalog.DataFileInfo) ([]catalog.DataFileOp, error)

	// ReadScan opens a merge-on-read iterator over files, applying any
	// residual data predicates the planner couldn't push into
	// partition pruning.
	ReadScan(ctx context.Context, table catalog.Table, files []catalog.DataFileInfo, dataPredicates []planner.Expr) (RowIter, error)
}
