// Package boltcatalog implements a single-process catalog.Client backed
// by a local bbolt database: one file holds every table's metadata,
// partition version chains, commit records, and discard log.
package boltcatalog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketTables       = []byte("tables")
	bucketTablesByName = []byte("tables_by_name")
	bucketPartitions   = []byte("partitions")
	bucketLatest       = []byte("latest")
	bucketCommits      = []byte("commits")
	bucketDiscard      = []byte("discard")
)

// Store implements catalog.Client directly against a local bbolt file.
// It performs no replication; raftcatalog.FSM wraps a Store to get
// consensus-replicated commits.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt catalog file under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "catalog.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltcatalog: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketTables,
			bucketTablesByName,
			bucketPartitions,
			bucketLatest,
			bucketCommits,
			bucketDiscard,
		}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func tableNameKey(namespace, name string) []byte {
	return []byte(namespace + "\x00" + name)
}

// CreateTable registers a new table.
func (s *Store) CreateTable(_ context.Context, table catalog.Table) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(table)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketTables).Put([]byte(table.ID), data); err != nil {
			return err
		}
		if err := tx.Bucket(bucketTablesByName).Put(tableNameKey(table.Namespace, table.Name), []byte(table.ID)); err != nil {
			return err
		}
		if _, err := tx.Bucket(bucketPartitions).CreateBucketIfNotExists([]byte(table.ID)); err != nil {
			return err
		}
		if _, err := tx.Bucket(bucketLatest).CreateBucketIfNotExists([]byte(table.ID)); err != nil {
			return err
		}
		if _, err := tx.Bucket(bucketCommits).CreateBucketIfNotExists([]byte(table.ID)); err != nil {
			return err
		}
		if _, err := tx.Bucket(bucketDiscard).CreateBucketIfNotExists([]byte(table.ID)); err != nil {
			return err
		}
		return nil
	})
}

// GetTableInfo fetches a table by namespace and name.
func (s *Store) GetTableInfo(_ context.Context, namespace, name string) (catalog.Table, error) {
	var table catalog.Table
	err := s.db.View(func(tx *bolt.Tx) error {
		tableID := tx.Bucket(bucketTablesByName).Get(tableNameKey(namespace, name))
		if tableID == nil {
			return &catalog.NotFoundError{Kind: "table", Key: namespace + "." + name}
		}
		data := tx.Bucket(bucketTables).Get(tableID)
		if data == nil {
			return &catalog.NotFoundError{Kind: "table", Key: namespace + "." + name}
		}
		return json.Unmarshal(data, &table)
	})
	return table, err
}

func (s *Store) getTableByID(tx *bolt.Tx, tableID ids.TableID) (catalog.Table, error) {
	var table catalog.Table
	data := tx.Bucket(bucketTables).Get([]byte(tableID))
	if data == nil {
		return table, &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
	}
	return table, json.Unmarshal(data, &table)
}

// UpdateProperties merges properties into a table's property map.
func (s *Store) UpdateProperties(_ context.Context, tableID ids.TableID, properties map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		table, err := s.getTableByID(tx, tableID)
		if err != nil {
			return err
		}
		if table.Properties == nil {
			table.Properties = make(map[string]string, len(properties))
		}
		for k, v := range properties {
			table.Properties[k] = v
		}
		data, err := json.Marshal(table)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTables).Put([]byte(tableID), data)
	})
}

// versionKey encodes a partition version entry's key: desc\x00version,
// with version big-endian so lexicographic and numeric order agree.
func versionKey(desc ids.PartitionDescriptor, version int64) []byte {
	key := make([]byte, len(desc)+1+8)
	copy(key, desc)
	key[len(desc)] = 0
	binary.BigEndian.PutUint64(key[len(desc)+1:], uint64(version))
	return key
}

func versionKeyPrefix(desc ids.PartitionDescriptor) []byte {
	key := make([]byte, len(desc)+1)
	copy(key, desc)
	key[len(desc)] = 0
	return key
}

// ListPartitions returns every partition descriptor with a committed
// version, derived from the per-table "latest" index.
func (s *Store) ListPartitions(_ context.Context, tableID ids.TableID) ([]ids.PartitionDescriptor, error) {
	var out []ids.PartitionDescriptor
	err := s.db.View(func(tx *bolt.Tx) error {
		latest := tx.Bucket(bucketLatest).Bucket([]byte(tableID))
		if latest == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		return latest.ForEach(func(k, _ []byte) error {
			out = append(out, ids.PartitionDescriptor(k))
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

func (s *Store) getLatestVersion(tx *bolt.Tx, tableID ids.TableID, desc ids.PartitionDescriptor) (int64, bool, error) {
	latest := tx.Bucket(bucketLatest).Bucket([]byte(tableID))
	if latest == nil {
		return 0, false, &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
	}
	v := latest.Get([]byte(desc))
	if v == nil {
		return 0, false, nil
	}
	return int64(binary.BigEndian.Uint64(v)), true, nil
}

func (s *Store) getVersion(tx *bolt.Tx, tableID ids.TableID, desc ids.PartitionDescriptor, version int64) (catalog.PartitionVersion, error) {
	var pv catalog.PartitionVersion
	versions := tx.Bucket(bucketPartitions).Bucket([]byte(tableID))
	if versions == nil {
		return pv, &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
	}
	data := versions.Get(versionKey(desc, version))
	if data == nil {
		return pv, &catalog.NotFoundError{Kind: "partition", Key: string(desc)}
	}
	return pv, json.Unmarshal(data, &pv)
}

// GetSinglePartition returns the latest version of one partition.
func (s *Store) GetSinglePartition(_ context.Context, tableID ids.TableID, desc ids.PartitionDescriptor) (catalog.PartitionVersion, error) {
	var pv catalog.PartitionVersion
	err := s.db.View(func(tx *bolt.Tx) error {
		version, ok, err := s.getLatestVersion(tx, tableID, desc)
		if err != nil {
			return err
		}
		if !ok {
			return &catalog.NotFoundError{Kind: "partition", Key: string(desc)}
		}
		pv, err = s.getVersion(tx, tableID, desc, version)
		return err
	})
	return pv, err
}

// GetPartitionsByEq returns the latest version of every partition whose
// descriptor binds every given equality predicate. Descriptor prefix
// scanning isn't applicable here since range columns may appear in any
// order within the descriptor's declared order, so this filters the
// full partition list; callers with a selective predicate should
// narrow further with pkg/planner before reaching the catalog.
func (s *Store) GetPartitionsByEq(ctx context.Context, tableID ids.TableID, eq []catalog.EqualityPredicate) ([]catalog.PartitionVersion, error) {
	descs, err := s.ListPartitions(ctx, tableID)
	if err != nil {
		return nil, err
	}
	var out []catalog.PartitionVersion
	for _, desc := range descs {
		bindings, err := desc.Parse()
		if err != nil {
			return nil, fmt.Errorf("boltcatalog: %w", err)
		}
		values := ids.ToMap(bindings)
		matched := true
		for _, p := range eq {
			if values[p.Column] != p.Value {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		pv, err := s.GetSinglePartition(ctx, tableID, desc)
		if err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, nil
}

// VersionUpToTS returns the latest version committed at or before asOf.
func (s *Store) VersionUpToTS(_ context.Context, tableID ids.TableID, desc ids.PartitionDescriptor, asOf time.Time) (catalog.PartitionVersion, error) {
	var result catalog.PartitionVersion
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		versions := tx.Bucket(bucketPartitions).Bucket([]byte(tableID))
		if versions == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		c := versions.Cursor()
		prefix := versionKeyPrefix(desc)
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var pv catalog.PartitionVersion
			if err := json.Unmarshal(v, &pv); err != nil {
				return err
			}
			if pv.CommittedAt.After(asOf) {
				break
			}
			result = pv
			found = true
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	if !found {
		return result, &catalog.NotFoundError{Kind: "partition", Key: string(desc) + " as of " + asOf.String()}
	}
	return result, nil
}

// GetCommits resolves commit IDs to their DataCommitInfo, in order.
func (s *Store) GetCommits(_ context.Context, tableID ids.TableID, commitIDs []ids.CommitID) ([]catalog.DataCommitInfo, error) {
	out := make([]catalog.DataCommitInfo, 0, len(commitIDs))
	err := s.db.View(func(tx *bolt.Tx) error {
		commits := tx.Bucket(bucketCommits).Bucket([]byte(tableID))
		if commits == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		for _, id := range commitIDs {
			data := commits.Get([]byte(id))
			if data == nil {
				return &catalog.NotFoundError{Kind: "commit", Key: id.String()}
			}
			var dc catalog.DataCommitInfo
			if err := json.Unmarshal(data, &dc); err != nil {
				return err
			}
			out = append(out, dc)
		}
		return nil
	})
	return out, err
}

// Commit applies the §4.6 conflict-rule table and, if accepted, writes
// the new commit record and advances the partition's version chain.
func (s *Store) Commit(_ context.Context, envelope catalog.CommitEnvelope) (catalog.PartitionVersion, error) {
	var result catalog.PartitionVersion
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := envelope.Commit
		tableID := c.TableID

		if _, err := s.getTableByID(tx, tableID); err != nil {
			return err
		}

		currentVersion, hasPrior, err := s.getLatestVersion(tx, tableID, c.PartitionDesc)
		if err != nil {
			return err
		}

		if conflict := classifyConflict(c.Kind, envelope.ExpectedVersion, currentVersion, hasPrior); conflict != "" {
			return &catalog.ConflictError{Kind: conflict, PartitionDesc: string(c.PartitionDesc)}
		}

		commitData, err := json.Marshal(c)
		if err != nil {
			return err
		}
		commits := tx.Bucket(bucketCommits).Bucket([]byte(tableID))
		if commits == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		if err := commits.Put([]byte(c.CommitID), commitData); err != nil {
			return err
		}

		nextVersion := currentVersion + 1
		carried := []ids.CommitID{}
		if hasPrior {
			prior, err := s.getVersion(tx, tableID, c.PartitionDesc, currentVersion)
			if err != nil {
				return err
			}
			carried = prior.CommitIDs
		}
		pv := catalog.PartitionVersion{
			TableID:         tableID,
			PartitionDesc:   c.PartitionDesc,
			Version:         nextVersion,
			CommitIDs:       append(append([]ids.CommitID{}, carried...), c.CommitID),
			CommittedAt:     c.CommittedAt,
			IsCompactionBar: c.Kind == catalog.CommitCompaction,
		}
		pvData, err := json.Marshal(pv)
		if err != nil {
			return err
		}
		versions := tx.Bucket(bucketPartitions).Bucket([]byte(tableID))
		if versions == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		if err := versions.Put(versionKey(c.PartitionDesc, nextVersion), pvData); err != nil {
			return err
		}

		latest := tx.Bucket(bucketLatest).Bucket([]byte(tableID))
		if latest == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		versionBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(versionBytes, uint64(nextVersion))
		if err := latest.Put([]byte(c.PartitionDesc), versionBytes); err != nil {
			return err
		}

		result = pv
		return nil
	})
	return result, err
}

// classifyConflict implements the §4.6 conflict-rule table: append
// commits may rebase onto a newer version (the caller retries with an
// updated ExpectedVersion), while update/delete/compaction/merge
// commits must still be targeting the latest version.
func classifyConflict(kind catalog.CommitKind, expected, current int64, hasPrior bool) catalog.ConflictKind {
	if !hasPrior {
		if expected != 0 {
			return catalog.ConflictStalePartition
		}
		return ""
	}
	if expected == current {
		return ""
	}
	switch kind {
	case catalog.CommitAppend:
		return catalog.ConflictStalePartition
	case catalog.CommitCompaction:
		return catalog.ConflictCompactionRaced
	case catalog.CommitDelete, catalog.CommitMerge:
		return catalog.ConflictTombstoneRaced
	default:
		return catalog.ConflictStalePartition
	}
}

// RecordDiscard appends discard-log entries for a table.
func (s *Store) RecordDiscard(_ context.Context, tableID ids.TableID, entries []catalog.DiscardEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		discard := tx.Bucket(bucketDiscard).Bucket([]byte(tableID))
		if discard == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		for _, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			key := []byte(entry.DiscardedAt.UTC().Format(time.RFC3339Nano) + "\x00" + entry.File.Path)
			if err := discard.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListDiscardEntries returns discard-log entries recorded at or before
// cutoff, for the lifecycle sweeper's physical-deletion pass.
func (s *Store) ListDiscardEntries(_ context.Context, tableID ids.TableID, cutoff time.Time) ([]catalog.DiscardEntry, error) {
	var out []catalog.DiscardEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		discard := tx.Bucket(bucketDiscard).Bucket([]byte(tableID))
		if discard == nil {
			return &catalog.NotFoundError{Kind: "table", Key: tableID.String()}
		}
		return discard.ForEach(func(_, v []byte) error {
			var entry catalog.DiscardEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			if !entry.DiscardedAt.After(cutoff) {
				out = append(out, entry)
			}
			return nil
		})
	})
	return out, err
}
