package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/raftcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/rpc"
	"github.com/lakesoul-io/lakesoul-go/pkg/lifecycle"
	"github.com/lakesoul-io/lakesoul-go/pkg/log"
	"github.com/lakesoul-io/lakesoul-go/pkg/metrics"
	"github.com/spf13/cobra"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage a catalog cluster node",
}

var clusterInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a brand-new single-node catalog cluster",
	RunE:  runClusterInit,
}

func init() {
	clusterInitCmd.Flags().String("node-id", "catalog-1", "This node's raft server ID")
	clusterInitCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Raft transport bind address")
	clusterInitCmd.Flags().String("rpc-addr", "127.0.0.1:9090", "Catalog rpc server bind address")
	clusterInitCmd.Flags().String("metrics-addr", "127.0.0.1:9100", "Prometheus /metrics bind address")
	clusterInitCmd.Flags().String("data-dir", "./lakesoul-data", "Directory for raft log/snapshot and catalog storage")
	clusterInitCmd.Flags().StringSlice("tables", nil, "namespace/name pairs to register with the lifecycle sweeper")
	clusterCmd.AddCommand(clusterInitCmd)
}

func runClusterInit(cmd *cobra.Command, _ []string) error {
	nodeID, _ := cmd.Flags().GetString("node-id")
	bindAddr, _ := cmd.Flags().GetString("bind-addr")
	rpcAddr, _ := cmd.Flags().GetString("rpc-addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	tableFlags, _ := cmd.Flags().GetStringSlice("tables")

	logger := log.WithComponent("lakesoulctl")

	node, err := raftcatalog.NewNode(raftcatalog.Config{NodeID: nodeID, BindAddr: bindAddr, DataDir: dataDir})
	if err != nil {
		return fmt.Errorf("create catalog node: %w", err)
	}
	if err := node.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap raft cluster: %w", err)
	}
	metrics.SetVersion(Version)
	metrics.RegisterComponent("catalog", true, "")

	tables, err := parseTableRefs(tableFlags)
	if err != nil {
		return err
	}
	sweeper := lifecycle.NewSweeper(node, nil, tables)
	sweeper.Start()

	rpcServer := rpc.NewServer(node)
	rpcErrCh := make(chan error, 1)
	go func() {
		if err := rpcServer.Serve(rpcAddr); err != nil {
			rpcErrCh <- err
		}
	}()
	metrics.RegisterComponent("rpc", true, "")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.HandleFunc("/health", metrics.HealthHandler())
	metricsMux.HandleFunc("/ready", metrics.ReadyHandler())
	metricsMux.HandleFunc("/live", metrics.LivenessHandler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()

	logger.Info().
		Str("node_id", nodeID).
		Str("bind_addr", bindAddr).
		Str("rpc_addr", rpcAddr).
		Str("metrics_addr", metricsAddr).
		Msg("catalog node started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-rpcErrCh:
		logger.Error().Err(err).Msg("catalog rpc server failed")
	}

	sweeper.Stop()
	rpcServer.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	if err := node.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("error shutting down catalog node")
	}
	return nil
}
