// Package snapshot provides an immutable, cached view of a table at a
// fixed version (or as of a fixed timestamp, for time-travel reads),
// backed by a catalog.Client.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
)

// Snapshot is a read-only, cached view of one table. A Snapshot never
// changes what it returns once constructed; callers that want to see
// newer commits take a fresh Snapshot.
type Snapshot struct {
	client  catalog.Client
	table   catalog.Table
	asOf    *time.Time

	mu              sync.RWMutex
	partitionsCache []ids.PartitionDescriptor
	versionCache    map[ids.PartitionDescriptor]catalog.PartitionVersion
	readPartitions  map[ids.PartitionDescriptor]struct{}
}

// tableInfoCacheEntry holds one namespace/name lookup's result along
// with when it was fetched, so repeated snapshot opens against the
// same table within the TTL window skip the catalog round-trip.
type tableInfoCacheEntry struct {
	table   catalog.Table
	fetched time.Time
}

var (
	tableInfoMu    sync.RWMutex
	tableInfoCache = make(map[string]tableInfoCacheEntry)
	tableInfoTTL   = time.Second // default; overridden via SetTableInfoCacheTTL
)

// SetTableInfoCacheTTL sets how long a table-info lookup stays valid in
// the process-wide cache before New/AsOf re-fetch it from the catalog.
// A TTL of zero disables caching entirely.
func SetTableInfoCacheTTL(ttl time.Duration) {
	tableInfoMu.Lock()
	defer tableInfoMu.Unlock()
	tableInfoTTL = ttl
}

func tableInfoCacheKey(namespace, name string) string { return namespace + "/" + name }

func loadTableInfo(ctx context.Context, client catalog.Client, namespace, name string) (catalog.Table, error) {
	key := tableInfoCacheKey(namespace, name)

	tableInfoMu.RLock()
	ttl := tableInfoTTL
	entry, ok := tableInfoCache[key]
	tableInfoMu.RUnlock()

	if ttl > 0 && ok && time.Since(entry.fetched) < ttl {
		return entry.table, nil
	}

	table, err := client.GetTableInfo(ctx, namespace, name)
	if err != nil {
		return catalog.Table{}, err
	}

	if ttl > 0 {
		tableInfoMu.Lock()
		tableInfoCache[key] = tableInfoCacheEntry{table: table, fetched: time.Now()}
		tableInfoMu.Unlock()
	}
	return table, nil
}

// InvalidateTableInfo drops any cached table-info entry for
// namespace/name, forcing the next New/AsOf call to re-fetch it. Callers
// that commit DDL (e.g. CreateTable, UpdateProperties) against a table
// should call this so readers don't see a stale cached schema for up to
// a full TTL window.
func InvalidateTableInfo(namespace, name string) {
	tableInfoMu.Lock()
	delete(tableInfoCache, tableInfoCacheKey(namespace, name))
	tableInfoMu.Unlock()
}

// New takes a snapshot of a table at its latest committed state.
func New(ctx context.Context, client catalog.Client, namespace, name string) (*Snapshot, error) {
	table, err := loadTableInfo(ctx, client, namespace, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load table: %w", err)
	}
	return &Snapshot{
		client:         client,
		table:          table,
		versionCache:   make(map[ids.PartitionDescriptor]catalog.PartitionVersion),
		readPartitions: make(map[ids.PartitionDescriptor]struct{}),
	}, nil
}

// AsOf takes a time-travel snapshot: every partition read through it
// resolves to the latest version committed at or before asOf.
func AsOf(ctx context.Context, client catalog.Client, namespace, name string, asOf time.Time) (*Snapshot, error) {
	s, err := New(ctx, client, namespace, name)
	if err != nil {
		return nil, err
	}
	s.asOf = &asOf
	return s, nil
}

// Table returns the table metadata this snapshot was taken against.
func (s *Snapshot) Table() catalog.Table { return s.table }

// ListPartitions returns every partition descriptor with committed
// data, cached after the first call.
func (s *Snapshot) ListPartitions(ctx context.Context) ([]ids.PartitionDescriptor, error) {
	s.mu.RLock()
	if s.partitionsCache != nil {
		defer s.mu.RUnlock()
		return s.partitionsCache, nil
	}
	s.mu.RUnlock()

	descs, err := s.client.ListPartitions(ctx, s.table.ID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.partitionsCache = descs
	s.mu.Unlock()
	return descs, nil
}

// GetPartition resolves one partition's version as of this snapshot,
// caching the result for subsequent calls within the snapshot's
// lifetime.
func (s *Snapshot) GetPartition(ctx context.Context, desc ids.PartitionDescriptor) (catalog.PartitionVersion, error) {
	s.mu.RLock()
	if pv, ok := s.versionCache[desc]; ok {
		s.mu.RUnlock()
		return pv, nil
	}
	s.mu.RUnlock()

	var pv catalog.PartitionVersion
	var err error
	if s.asOf != nil {
		pv, err = s.client.VersionUpToTS(ctx, s.table.ID, desc, *s.asOf)
	} else {
		pv, err = s.client.GetSinglePartition(ctx, s.table.ID, desc)
	}
	if err != nil {
		return pv, err
	}

	s.mu.Lock()
	s.versionCache[desc] = pv
	s.readPartitions[desc] = struct{}{}
	s.mu.Unlock()
	return pv, nil
}

// GetPartitionsByEq resolves every partition matching an all-equality
// predicate set as of this snapshot.
func (s *Snapshot) GetPartitionsByEq(ctx context.Context, eq []catalog.EqualityPredicate) ([]catalog.PartitionVersion, error) {
	if s.asOf == nil {
		pvs, err := s.client.GetPartitionsByEq(ctx, s.table.ID, eq)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		for _, pv := range pvs {
			s.versionCache[pv.PartitionDesc] = pv
			s.readPartitions[pv.PartitionDesc] = struct{}{}
		}
		s.mu.Unlock()
		return pvs, nil
	}

	descs, err := s.ListPartitions(ctx)
	if err != nil {
		return nil, err
	}
	var out []catalog.PartitionVersion
	for _, desc := range descs {
		bindings, err := desc.Parse()
		if err != nil {
			return nil, err
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
		pv, err := s.GetPartition(ctx, desc)
		if err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, nil
}

// RecordPartitionRead marks a partition as having been read through
// this snapshot, independent of the caching path used (e.g. when a
// caller resolves file sets from an already-cached PartitionVersion
// without calling GetPartition again).
func (s *Snapshot) RecordPartitionRead(desc ids.PartitionDescriptor) {
	s.mu.Lock()
	s.readPartitions[desc] = struct{}{}
	s.mu.Unlock()
}

// PartitionsRead returns every partition descriptor read through this
// snapshot so far, for read-set auditing or adaptive prefetch.
func (s *Snapshot) PartitionsRead() []ids.PartitionDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.PartitionDescriptor, 0, len(s.readPartitions))
	for d := range s.readPartitions {
		out = append(out, d)
	}
	return out
}

// Invalidate drops every cached partition list and version, so the
// next read re-fetches from the catalog. The snapshot's AsOf bound is
// unaffected: invalidating a time-travel snapshot still only reveals
// state committed at or before AsOf, it just forces a re-fetch of it
// (e.g. after a rollback the caller knows changed that history).
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitionsCache = nil
	s.versionCache = make(map[ids.PartitionDescriptor]catalog.PartitionVersion)
}
