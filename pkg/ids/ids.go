// Package ids implements the identifier and descriptor model: table and
// commit identifiers, and the partition descriptor and file path
// grammars from the catalog wire contract.
package ids

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// TableID is a table's stable identifier.
type TableID string

// NewTableID generates a fresh table identifier.
func NewTableID() TableID {
	return TableID(uuid.New().String())
}

func (id TableID) String() string { return string(id) }

// CommitID identifies a single DataCommitInfo.
type CommitID string

// NewCommitID generates a fresh commit identifier.
func NewCommitID() CommitID {
	return CommitID(uuid.New().String())
}

func (id CommitID) String() string { return string(id) }

// PartitionDescriptor is the canonical "col1=v1,col2=v2" encoding of a
// partition's range-column bindings, in declared column order. The
// empty string denotes the unpartitioned singleton.
type PartitionDescriptor string

// Empty is the unpartitioned singleton descriptor.
const Empty PartitionDescriptor = ""

// BuildPartitionDescriptor renders a descriptor from range columns (in
// declared order) and a value binding. Every column must be bound;
// values are percent-escaped per the wire grammar.
func BuildPartitionDescriptor(rangeColumns []string, values map[string]string) (PartitionDescriptor, error) {
	if len(rangeColumns) == 0 {
		return Empty, nil
	}
	parts := make([]string, 0, len(rangeColumns))
	for _, col := range rangeColumns {
		v, ok := values[col]
		if !ok {
			return "", fmt.Errorf("ids: missing value for range column %q", col)
		}
		parts = append(parts, col+"="+url.QueryEscape(v))
	}
	return PartitionDescriptor(strings.Join(parts, ",")), nil
}

// Parse splits a descriptor into its ordered column=value bindings,
// unescaping values. Returns an empty, non-nil slice for Empty.
func (d PartitionDescriptor) Parse() ([]Binding, error) {
	if d == Empty {
		return []Binding{}, nil
	}
	rawParts := strings.Split(string(d), ",")
	out := make([]Binding, 0, len(rawParts))
	for _, p := range rawParts {
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			return nil, fmt.Errorf("ids: malformed partition descriptor segment %q", p)
		}
		col := p[:eq]
		val, err := url.QueryUnescape(p[eq+1:])
		if err != nil {
			return nil, fmt.Errorf("ids: malformed partition descriptor value in %q: %w", p, err)
		}
		out = append(out, Binding{Column: col, Value: val})
	}
	return out, nil
}

// Binding is a single column=value pair within a partition descriptor.
type Binding struct {
	Column string
	Value  string
}

// ToMap collapses a parsed descriptor into a column->value map, the
// shape the planner's expression evaluator consumes.
func ToMap(bindings []Binding) map[string]string {
	m := make(map[string]string, len(bindings))
	for _, b := range bindings {
		m[b.Column] = b.Value
	}
	return m
}

func (d PartitionDescriptor) String() string { return string(d) }

// DataFilePath renders the file path grammar for a freshly written
// file: <table_path>/<partition_desc-url-encoded>/part-<commit_id>-bucket<id>.parquet
func DataFilePath(tablePath string, desc PartitionDescriptor, commit CommitID, bucketID int) string {
	return joinPath(tablePath, desc, fmt.Sprintf("part-%s-bucket%d.parquet", commit, bucketID))
}

// CompactedFilePath renders the file path grammar for a compaction
// output file: <table_path>/<partition_desc-url-encoded>/compact-<commit_id>-bucket<id>.parquet
func CompactedFilePath(tablePath string, desc PartitionDescriptor, commit CommitID, bucketID int) string {
	return joinPath(tablePath, desc, fmt.Sprintf("compact-%s-bucket%d.parquet", commit, bucketID))
}

func joinPath(tablePath string, desc PartitionDescriptor, fileName string) string {
	tablePath = strings.TrimSuffix(tablePath, "/")
	if desc == Empty {
		return tablePath + "/" + fileName
	}
	return tablePath + "/" + url.QueryEscape(string(desc)) + "/" + fileName
}
