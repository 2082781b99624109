// Package lifecycle implements the TTL and discard-log cleanup sweep:
// tombstoning partitions that outlived partition_ttl_days and
// physically deleting discard-log entries that outlived
// compaction_ttl_days, on a ticker loop in the teacher reconciler's
// shape.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/lakesoul-io/lakesoul-go/pkg/log"
	"github.com/lakesoul-io/lakesoul-go/pkg/metrics"
	"github.com/rs/zerolog"
)

// FileDeleter physically removes a discarded data file; satisfied by
// whatever storage client the deployment already uses for file IO.
// The sweeper only decides *when* a file is eligible, not how its
// bytes are removed.
type FileDeleter interface {
	Delete(ctx context.Context, path string) error
}

// TableRef names a table by its catalog-facing namespace/name, since
// the Client contract resolves tables that way rather than by ID.
type TableRef struct {
	Namespace string
	Name      string
}

// Sweeper runs the periodic TTL/discard-log cleanup cycle for every
// registered table.
type Sweeper struct {
	client  catalog.Client
	deleter FileDeleter
	logger  zerolog.Logger
	mu      sync.Mutex
	stopCh  chan struct{}
	tables  []TableRef
}

// NewSweeper creates a lifecycle sweeper over the given tables.
func NewSweeper(client catalog.Client, deleter FileDeleter, tables []TableRef) *Sweeper {
	return &Sweeper{
		client:  client,
		deleter: deleter,
		logger:  log.WithComponent("lifecycle"),
		stopCh:  make(chan struct{}),
		tables:  tables,
	}
}

// Start begins the sweep loop on a 10-minute cadence, matching the
// teacher's reconciler's "log and continue" error handling per table
// so one table's failure doesn't block the rest.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	s.logger.Info().Msg("lifecycle sweeper started")

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			s.logger.Info().Msg("lifecycle sweeper stopped")
			return
		}
	}
}

// Sweep runs one TTL/discard-log cleanup cycle synchronously, across
// every registered table.
func (s *Sweeper) Sweep(ctx context.Context) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.LifecycleSweepDuration)
		metrics.LifecycleSweepCyclesTotal.Inc()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ref := range s.tables {
		if err := s.sweepTable(ctx, ref); err != nil {
			s.logger.Error().Err(err).Str("namespace", ref.Namespace).Str("name", ref.Name).Msg("lifecycle sweep failed")
		}
	}
}

func (s *Sweeper) sweepTable(ctx context.Context, ref TableRef) error {
	table, err := s.client.GetTableInfo(ctx, ref.Namespace, ref.Name)
	if err != nil {
		return err
	}

	if err := s.tombstoneExpiredPartitions(ctx, table); err != nil {
		s.logger.Error().Err(err).Str("table_id", table.ID.String()).Msg("partition tombstone sweep failed")
	}

	if err := s.deleteExpiredDiscards(ctx, table); err != nil {
		s.logger.Error().Err(err).Str("table_id", table.ID.String()).Msg("discard-log deletion sweep failed")
	}

	return nil
}

// tombstoneExpiredPartitions commits a delete for every partition
// whose latest version is older than partition_ttl_days, if the table
// configures one.
func (s *Sweeper) tombstoneExpiredPartitions(ctx context.Context, table catalog.Table) error {
	ttlDays, ok := table.PartitionTTLDays()
	if !ok {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -ttlDays)

	descs, err := s.client.ListPartitions(ctx, table.ID)
	if err != nil {
		return err
	}
	for _, desc := range descs {
		pv, err := s.client.GetSinglePartition(ctx, table.ID, desc)
		if err != nil {
			s.logger.Error().Err(err).Str("partition_desc", string(desc)).Msg("could not load partition for ttl check")
			continue
		}
		if pv.CommittedAt.After(cutoff) {
			continue
		}

		dc := catalog.DataCommitInfo{
			CommitID:       ids.NewCommitID(),
			TableID:        table.ID,
			PartitionDesc:  desc,
			Kind:           catalog.CommitDelete,
			CommittedAt:    time.Now(),
			BasedOnVersion: pv.Version,
		}
		if _, err := s.client.Commit(ctx, catalog.CommitEnvelope{Commit: dc, ExpectedVersion: pv.Version}); err != nil {
			s.logger.Error().Err(err).Str("partition_desc", string(desc)).Msg("failed to tombstone expired partition")
			continue
		}
		metrics.LifecyclePartitionsTombstonedTotal.Inc()
		s.logger.Info().Str("partition_desc", string(desc)).Msg("tombstoned expired partition")
	}
	return nil
}

// deleteExpiredDiscards physically deletes every discard-log entry
// older than compaction_ttl_days. When only_save_once_compaction is
// set, every discard entry is immediately eligible regardless of age,
// since the table keeps no second-most-recent compacted base around
// to fall back to.
func (s *Sweeper) deleteExpiredDiscards(ctx context.Context, table catalog.Table) error {
	var cutoff time.Time
	if table.OnlySaveOnceCompaction() {
		cutoff = time.Now()
	} else {
		ttlDays, ok := table.CompactionTTLDays()
		if !ok {
			return nil
		}
		cutoff = time.Now().AddDate(0, 0, -ttlDays)
	}

	entries, err := s.client.ListDiscardEntries(ctx, table.ID, cutoff)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if s.deleter == nil {
			continue
		}
		if err := s.deleter.Delete(ctx, entry.File.Path); err != nil {
			s.logger.Error().Err(err).Str("path", entry.File.Path).Msg("failed to delete discarded file")
			continue
		}
		metrics.LifecycleFilesDeletedTotal.Inc()
	}
	return nil
}
