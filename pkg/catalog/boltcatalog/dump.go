package boltcatalog

import (
	"context"
	"encoding/json"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	bolt "go.etcd.io/bbolt"
)

// Dump is a full, JSON-serializable copy of a Store's state, used by
// raftcatalog.FSM to snapshot and restore the catalog without
// shipping the raw bbolt file across the cluster.
type Dump struct {
	Tables     []catalog.Table
	Versions   map[ids.TableID][]catalog.PartitionVersion
	Commits    map[ids.TableID][]catalog.DataCommitInfo
	Discards   map[ids.TableID][]catalog.DiscardEntry
}

// Dump snapshots the entire store's contents.
func (s *Store) Dump(_ context.Context) (*Dump, error) {
	dump := &Dump{
		Versions: make(map[ids.TableID][]catalog.PartitionVersion),
		Commits:  make(map[ids.TableID][]catalog.DataCommitInfo),
		Discards: make(map[ids.TableID][]catalog.DiscardEntry),
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTables).ForEach(func(k, v []byte) error {
			var table catalog.Table
			if err := json.Unmarshal(v, &table); err != nil {
				return err
			}
			dump.Tables = append(dump.Tables, table)

			if versions := tx.Bucket(bucketPartitions).Bucket(k); versions != nil {
				if err := versions.ForEach(func(_, vv []byte) error {
					var pv catalog.PartitionVersion
					if err := json.Unmarshal(vv, &pv); err != nil {
						return err
					}
					dump.Versions[table.ID] = append(dump.Versions[table.ID], pv)
					return nil
				}); err != nil {
					return err
				}
			}

			if commits := tx.Bucket(bucketCommits).Bucket(k); commits != nil {
				if err := commits.ForEach(func(_, vv []byte) error {
					var dc catalog.DataCommitInfo
					if err := json.Unmarshal(vv, &dc); err != nil {
						return err
					}
					dump.Commits[table.ID] = append(dump.Commits[table.ID], dc)
					return nil
				}); err != nil {
					return err
				}
			}

			if discard := tx.Bucket(bucketDiscard).Bucket(k); discard != nil {
				if err := discard.ForEach(func(_, vv []byte) error {
					var entry catalog.DiscardEntry
					if err := json.Unmarshal(vv, &entry); err != nil {
						return err
					}
					dump.Discards[table.ID] = append(dump.Discards[table.ID], entry)
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
	})
	return dump, err
}

// LoadDump replaces the store's contents with a previously captured
// Dump. Used on raft snapshot restore.
func (s *Store) LoadDump(_ context.Context, dump *Dump) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketTables, bucketTablesByName, bucketPartitions, bucketLatest, bucketCommits, bucketDiscard} {
			if err := tx.DeleteBucket(b); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}

		for _, table := range dump.Tables {
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
			versions, err := tx.Bucket(bucketPartitions).CreateBucketIfNotExists([]byte(table.ID))
			if err != nil {
				return err
			}
			latest, err := tx.Bucket(bucketLatest).CreateBucketIfNotExists([]byte(table.ID))
			if err != nil {
				return err
			}
			for _, pv := range dump.Versions[table.ID] {
				pvData, err := json.Marshal(pv)
				if err != nil {
					return err
				}
				if err := versions.Put(versionKey(pv.PartitionDesc, pv.Version), pvData); err != nil {
					return err
				}
				cur, ok, err := s.getLatestVersion(tx, table.ID, pv.PartitionDesc)
				if err != nil {
					return err
				}
				if !ok || pv.Version > cur {
					vb := make([]byte, 8)
					putUint64(vb, uint64(pv.Version))
					if err := latest.Put([]byte(pv.PartitionDesc), vb); err != nil {
						return err
					}
				}
			}

			commits, err := tx.Bucket(bucketCommits).CreateBucketIfNotExists([]byte(table.ID))
			if err != nil {
				return err
			}
			for _, dc := range dump.Commits[table.ID] {
				data, err := json.Marshal(dc)
				if err != nil {
					return err
				}
				if err := commits.Put([]byte(dc.CommitID), data); err != nil {
					return err
				}
			}

			discard, err := tx.Bucket(bucketDiscard).CreateBucketIfNotExists([]byte(table.ID))
			if err != nil {
				return err
			}
			for _, entry := range dump.Discards[table.ID] {
				data, err := json.Marshal(entry)
				if err != nil {
					return err
				}
				key := []byte(entry.DiscardedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00") + "\x00" + entry.File.Path)
				if err := discard.Put(key, data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}
