// Package compaction selects hash buckets whose small-file count or
// total size justify a merge, and drives the merge through an
// ioengine.Engine, committing the result and recording discard
// entries for the files it replaces.
package compaction

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/lakesoul-io/lakesoul-go/pkg/resolver"
)

const (
	defaultFileNumLimit  = 20
	defaultMergeSizeLimit int64 = 1 << 30 // 1 GiB
)

// Candidate is one bucket eligible for compaction.
type Candidate struct {
	PartitionDesc ids.PartitionDescriptor
	BucketID      int
	Files         []catalog.DataFileInfo
	TotalSize     int64
}

func thresholds(table catalog.Table) (fileNumLimit int, mergeSizeLimit int64) {
	fileNumLimit = defaultFileNumLimit
	mergeSizeLimit = defaultMergeSizeLimit
	if v, ok := table.Properties["level1_file_num_limit"]; ok {
		if n, err := parseInt(v); err == nil {
			fileNumLimit = n
		}
	}
	if v, ok := table.Properties["level1_merge_size_limit"]; ok {
		if n, err := parseInt(v); err == nil {
			mergeSizeLimit = int64(n)
		}
	}
	return
}

func parseInt(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("compaction: invalid integer %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// PlanPartition selects every bucket within one partition whose
// uncompacted file count or total size crosses the table's
// level1_file_num_limit / level1_merge_size_limit thresholds.
func PlanPartition(ctx context.Context, client catalog.Client, table catalog.Table, desc ids.PartitionDescriptor) ([]Candidate, error) {
	pv, err := client.GetSinglePartition(ctx, table.ID, desc)
	if err != nil {
		return nil, fmt.Errorf("compaction: load partition: %w", err)
	}
	files, err := resolver.Resolve(ctx, client, table.ID, pv)
	if err != nil {
		return nil, fmt.Errorf("compaction: resolve files: %w", err)
	}

	fileNumLimit, mergeSizeLimit := thresholds(table)
	var candidates []Candidate
	for bucketID, bucketFiles := range resolver.GroupByBucket(files) {
		deltas := uncompactedTail(bucketFiles)
		if len(deltas) == 0 {
			continue
		}
		var size int64
		for _, f := range deltas {
			size += f.SizeBytes
		}
		if len(deltas) >= fileNumLimit || size >= mergeSizeLimit {
			candidates = append(candidates, Candidate{
				PartitionDesc: desc,
				BucketID:      bucketID,
				Files:         bucketFiles,
				TotalSize:     size,
			})
		}
	}

	sortCandidates(candidates)
	return candidates, nil
}

// uncompactedTail returns the delta files appended after a bucket's
// most recent compacted base (or every file, if none is compacted
// yet) — the files a fresh compaction run would actually need to
// merge beyond what's already consolidated.
func uncompactedTail(files []catalog.DataFileInfo) []catalog.DataFileInfo {
	lastBase := -1
	for i, f := range files {
		if f.Compacted {
			lastBase = i
		}
	}
	return files[lastBase+1:]
}

// sortCandidates applies the tie-break rule: smallest total size
// first, then oldest modification time, so a bounded worker pool
// compacts the cheapest, most overdue buckets first.
func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TotalSize != candidates[j].TotalSize {
			return candidates[i].TotalSize < candidates[j].TotalSize
		}
		return oldestMtime(candidates[i].Files).Before(oldestMtime(candidates[j].Files))
	})
}

func oldestMtime(files []catalog.DataFileInfo) time.Time {
	var oldest time.Time
	for i, f := range files {
		if i == 0 || f.ModifiedAt.Before(oldest) {
			oldest = f.ModifiedAt
		}
	}
	return oldest
}
