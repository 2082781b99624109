package main

import (
	"context"
	"fmt"

	"github.com/lakesoul-io/lakesoul-go/pkg/lifecycle"
	"github.com/spf13/cobra"
)

var ttlSweepCmd = &cobra.Command{
	Use:   "ttl-sweep <namespace/name>...",
	Short: "Run one partition-TTL/discard-log cleanup pass for the given tables",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTTLSweep,
}

func init() {
	ttlSweepCmd.Flags().String("data-dir", "./lakesoul-data", "Directory holding the catalog store")
}

// cliDeleter logs the files a sweep pass would remove; this command is
// for local inspection, so it reports discard-eligible files without
// requiring a real object-storage client to actually delete them.
type cliDeleter struct{}

func (cliDeleter) Delete(_ context.Context, path string) error {
	fmt.Printf("  delete %s\n", path)
	return nil
}

func runTTLSweep(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	refs, err := parseTableRefs(args)
	if err != nil {
		return err
	}

	store, err := openStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	sweeper := lifecycle.NewSweeper(store, cliDeleter{}, refs)
	sweeper.Sweep(context.Background())
	fmt.Println("ttl sweep complete")
	return nil
}
