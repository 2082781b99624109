// Package commit implements the commit engine: submitting a planned
// DataCommitInfo to the catalog, interpreting the conflicts the
// catalog's §4.6 rule table can raise, and retrying append commits by
// rebasing onto the partition's latest version.
package commit

import (
	"context"
	"errors"
	"fmt"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/lakesoul-io/lakesoul-go/pkg/log"
	"github.com/lakesoul-io/lakesoul-go/pkg/metrics"
)

// MaxAppendRetries bounds how many times Submit rebases an append
// commit onto a newer partition version before giving up.
const MaxAppendRetries = 5

// Engine submits commits to a catalog.Client, applying metrics and
// the append-retry-by-rebase policy.
type Engine struct {
	client catalog.Client
}

// New creates a commit engine over the given catalog client.
func New(client catalog.Client) *Engine {
	return &Engine{client: client}
}

// Submit commits a DataCommitInfo against the partition's current
// latest version. Append commits that lose a race are rebased onto
// the new latest version and resubmitted up to MaxAppendRetries times;
// every other commit kind surfaces the conflict to the caller, since
// only an append can be safely replayed without re-planning against
// the new state (the planner produced its file ops independent of
// what else landed concurrently).
func (e *Engine) Submit(ctx context.Context, dc catalog.DataCommitInfo) (catalog.PartitionVersion, error) {
	logger := log.WithTableID(dc.TableID.String())
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.CommitDuration, string(dc.Kind))

	expected := dc.BasedOnVersion
	for attempt := 0; ; attempt++ {
		pv, err := e.client.Commit(ctx, catalog.CommitEnvelope{Commit: dc, ExpectedVersion: expected})
		if err == nil {
			metrics.CommitsTotal.WithLabelValues(string(dc.Kind), "accepted").Inc()
			return pv, nil
		}

		var conflict *catalog.ConflictError
		if !errors.As(err, &conflict) {
			metrics.CommitsTotal.WithLabelValues(string(dc.Kind), "error").Inc()
			return catalog.PartitionVersion{}, fmt.Errorf("commit: submit %s: %w", dc.Kind, err)
		}

		metrics.CommitConflictsTotal.WithLabelValues(string(conflict.Kind)).Inc()

		if dc.Kind != catalog.CommitAppend || conflict.Kind != catalog.ConflictStalePartition || attempt >= MaxAppendRetries {
			metrics.CommitsTotal.WithLabelValues(string(dc.Kind), "conflict").Inc()
			return catalog.PartitionVersion{}, err
		}

		current, getErr := e.client.GetSinglePartition(ctx, dc.TableID, dc.PartitionDesc)
		if getErr != nil {
			return catalog.PartitionVersion{}, fmt.Errorf("commit: rebase lookup: %w", getErr)
		}
		logger.Info().
			Str("partition_desc", string(dc.PartitionDesc)).
			Int64("stale_version", expected).
			Int64("rebase_version", current.Version).
			Int("attempt", attempt+1).
			Msg("rebasing append commit onto newer partition version")
		metrics.CommitRetriesTotal.WithLabelValues(dc.TableID.String()).Inc()
		expected = current.Version
	}
}
