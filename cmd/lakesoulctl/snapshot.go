package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/snapshot"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <namespace/name>",
	Short: "Print a table's current or as-of partition snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().String("data-dir", "./lakesoul-data", "Directory holding the catalog store")
	snapshotCmd.Flags().String("as-of", "", "RFC3339 timestamp for a time-travel read (default: latest)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	asOfRaw, _ := cmd.Flags().GetString("as-of")
	namespace, name, err := splitNamespaceName(args[0])
	if err != nil {
		return err
	}

	store, err := openStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var snap *snapshot.Snapshot
	if asOfRaw != "" {
		asOf, err := time.Parse(time.RFC3339, asOfRaw)
		if err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
		snap, err = snapshot.AsOf(ctx, store, namespace, name, asOf)
		if err != nil {
			return err
		}
	} else {
		snap, err = snapshot.New(ctx, store, namespace, name)
		if err != nil {
			return err
		}
	}

	descs, err := snap.ListPartitions(ctx)
	if err != nil {
		return fmt.Errorf("list partitions: %w", err)
	}

	table := snap.Table()
	fmt.Printf("table %s/%s (%s), %d partition(s)\n", table.Namespace, table.Name, table.ID, len(descs))
	for _, desc := range descs {
		pv, err := snap.GetPartition(ctx, desc)
		if err != nil {
			return fmt.Errorf("partition %q: %w", desc, err)
		}
		label := string(desc)
		if label == "" {
			label = "<unpartitioned>"
		}
		fmt.Printf("  %s  version=%d  commits=%d  committed_at=%s\n",
			label, pv.Version, len(pv.CommitIDs), pv.CommittedAt.Format(time.RFC3339))
	}
	return nil
}
