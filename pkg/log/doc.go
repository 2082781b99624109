/*
Package log provides structured logging for the table-state engine using
zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from every package in this module
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs (e.g. "catalog", "rpc")
  - WithNodeID: Add raft node ID context
  - WithTableID: Add table ID context
  - WithPartitionDesc: Add partition descriptor context

# Usage

Initializing the Logger:

	import "github.com/lakesoul-io/lakesoul-go/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("catalog node started")
	log.Debug("checking partition version chain")
	log.Warn("compaction bucket skipped: empty file set")
	log.Error("commit rejected: stale partition version")
	log.Fatal("cannot open catalog store") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("table_id", table.ID.String()).
		Int("version", int(pv.Version)).
		Msg("partition committed")

	log.Logger.Error().
		Err(err).
		Str("partition_desc", string(desc)).
		Msg("commit conflict")

Component Loggers:

	// Create component-specific logger
	catalogLog := log.WithComponent("catalog")
	catalogLog.Info().Msg("raft leader elected")

	// Table/partition-scoped logging
	tableLog := log.WithTableID(table.ID.String())
	tableLog.Info().Msg("compaction planned")

	partitionLog := log.WithPartitionDesc(string(desc))
	partitionLog.Debug().Msg("resolving file set as of version")

Complete Example:

	package main

	import (
		"os"

		"github.com/lakesoul-io/lakesoul-go/pkg/log"
	)

	func main() {
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		log.Info("lakesoulctl starting")

		catalogLog := log.WithComponent("catalog")
		catalogLog.Info().
			Str("node_id", "catalog-1").
			Msg("bootstrapping raft cluster")

		log.Info("lakesoulctl stopped")
	}

# Integration Points

This package is used by:

  - pkg/catalog/rpc: logs server startup
  - pkg/commit: logs append commits rebased onto a newer version
  - pkg/compaction: logs bucket planning and executor progress
  - pkg/lifecycle: logs TTL sweep cycles and discard-log entries
  - cmd/lakesoulctl: logs process bootstrap and shutdown

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"catalog","time":"2024-10-13T10:30:00Z","message":"raft leader elected"}
	{"level":"info","table_id":"3f9c...","time":"2024-10-13T10:30:01Z","message":"partition committed"}
	{"level":"error","component":"rpc","time":"2024-10-13T10:30:02Z","error":"conflict: stale partition","message":"commit rejected"}

Console Format (Development):

	2024-10-13T10:30:00Z INF raft leader elected component=catalog
	2024-10-13T10:30:01Z INF partition committed table_id=3f9c...
	2024-10-13T10:30:02Z ERR commit rejected component=rpc error="conflict: stale partition"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at process start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
