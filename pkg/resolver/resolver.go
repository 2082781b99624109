// Package resolver computes a partition's effective, deduplicated file
// set from its version chain: applying each commit's adds and deletes
// in order, and stopping early per hash bucket once a compaction
// barrier makes earlier commits' files for that bucket unreachable.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
)

// Resolve walks pv's commit chain and returns the partition's current
// data files: the files a reader must scan to see every live row.
func Resolve(ctx context.Context, client catalog.Client, tableID ids.TableID, pv catalog.PartitionVersion) ([]catalog.DataFileInfo, error) {
	commits, err := client.GetCommits(ctx, tableID, pv.CommitIDs)
	if err != nil {
		return nil, fmt.Errorf("resolver: load commits: %w", err)
	}
	return resolveCommits(commits), nil
}

type orderedFile struct {
	file  catalog.DataFileInfo
	order int
}

// resolveCommits applies adds/deletes walking from the newest commit
// backward, so a bucket's compaction barrier can stop the walk for
// that bucket without first materializing every older file.
func resolveCommits(commits []catalog.DataCommitInfo) []catalog.DataFileInfo {
	live := make(map[string]orderedFile)
	deleted := make(map[string]struct{})
	barrier := make(map[int]bool)

	for i := len(commits) - 1; i >= 0; i-- {
		commit := commits[i]

		for _, op := range commit.FileOps {
			bucket := op.File.BucketID
			if barrier[bucket] {
				continue
			}
			switch op.Kind {
			case catalog.OpDelete:
				deleted[op.File.Path] = struct{}{}
			case catalog.OpAdd:
				if _, gone := deleted[op.File.Path]; gone {
					continue
				}
				if _, seen := live[op.File.Path]; !seen {
					live[op.File.Path] = orderedFile{file: op.File, order: i}
				}
			}
		}

		if commit.Kind == catalog.CommitCompaction {
			for _, op := range commit.FileOps {
				if op.Kind == catalog.OpAdd {
					barrier[op.File.BucketID] = true
				}
			}
		}
	}

	out := make([]orderedFile, 0, len(live))
	for _, f := range live {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].file.BucketID != out[j].file.BucketID {
			return out[i].file.BucketID < out[j].file.BucketID
		}
		return out[i].order < out[j].order
	})

	files := make([]catalog.DataFileInfo, len(out))
	for i, f := range out {
		files[i] = f.file
	}
	return files
}

// GroupByBucket splits a resolved file set into per-bucket slices,
// preserving the compacted-base-first, deltas-after ordering Resolve
// already established.
func GroupByBucket(files []catalog.DataFileInfo) map[int][]catalog.DataFileInfo {
	out := make(map[int][]catalog.DataFileInfo)
	for _, f := range files {
		out[f.BucketID] = append(out[f.BucketID], f)
	}
	return out
}
