package raftcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/boltcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
)

// Config configures a single catalog cluster node.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// Node is a raft-replicated catalog.Client: writes go through Apply and
// are linearized by the raft log, reads are served straight from the
// local FSM's embedded store (read-committed, not linearizable).
type Node struct {
	nodeID   string
	bindAddr string
	dataDir  string

	raft          *raft.Raft
	fsm           *FSM
	store         *boltcatalog.Store
	transportAddr raft.ServerAddress
}

// NewNode creates a catalog node's on-disk store and FSM without
// starting raft; call Bootstrap or Join next.
func NewNode(cfg Config) (*Node, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("raftcatalog: create data dir: %w", err)
	}

	store, err := boltcatalog.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("raftcatalog: open store: %w", err)
	}

	return &Node{
		nodeID:   cfg.NodeID,
		bindAddr: cfg.BindAddr,
		dataDir:  cfg.DataDir,
		fsm:      NewFSM(store),
		store:    store,
	}, nil
}

// raftConfig applies the same LAN-tuned timeouts the teacher manager
// used for sub-10s failover, rather than hashicorp/raft's WAN-oriented
// defaults.
func raftConfig(nodeID string) *raft.Config {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(nodeID)
	config.HeartbeatTimeout = 500 * time.Millisecond
	config.ElectionTimeout = 500 * time.Millisecond
	config.CommitTimeout = 50 * time.Millisecond
	config.LeaderLeaseTimeout = 250 * time.Millisecond
	return config
}

func (n *Node) startRaft() error {
	config := raftConfig(n.nodeID)

	addr, err := net.ResolveTCPAddr("tcp", n.bindAddr)
	if err != nil {
		return fmt.Errorf("raftcatalog: resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(n.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return fmt.Errorf("raftcatalog: create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(n.dataDir, 2, os.Stderr)
	if err != nil {
		return fmt.Errorf("raftcatalog: create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(n.dataDir, "raft-log.db"))
	if err != nil {
		return fmt.Errorf("raftcatalog: create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(n.dataDir, "raft-stable.db"))
	if err != nil {
		return fmt.Errorf("raftcatalog: create stable store: %w", err)
	}

	r, err := raft.NewRaft(config, n.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return fmt.Errorf("raftcatalog: create raft: %w", err)
	}
	n.raft = r
	n.transportAddr = transport.LocalAddr()
	return nil
}

// Bootstrap starts raft and forms a brand-new single-node cluster.
func (n *Node) Bootstrap() error {
	if err := n.startRaft(); err != nil {
		return err
	}
	future := n.raft.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: raft.ServerID(n.nodeID), Address: n.transportAddr}},
	})
	return future.Error()
}

// Join starts raft for a node that will be added to an existing
// cluster by the current leader (via AddVoter on the leader's Node).
func (n *Node) Join() error {
	return n.startRaft()
}

// AddVoter adds a new member to the cluster; must be called on the
// current leader.
func (n *Node) AddVoter(nodeID, addr string) error {
	future := n.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, 0)
	return future.Error()
}

// IsLeader reports whether this node currently holds raft leadership.
func (n *Node) IsLeader() bool {
	return n.raft.State() == raft.Leader
}

// Shutdown stops raft and closes the local store.
func (n *Node) Shutdown() error {
	if n.raft != nil {
		if err := n.raft.Shutdown().Error(); err != nil {
			return err
		}
	}
	return n.store.Close()
}

func (n *Node) apply(cmd Command) (applyResult, error) {
	if n.raft.State() != raft.Leader {
		return applyResult{}, &catalog.CatalogUnavailableError{Reason: "not leader"}
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return applyResult{}, err
	}
	future := n.raft.Apply(data, 10*time.Second)
	if err := future.Error(); err != nil {
		return applyResult{}, &catalog.CatalogUnavailableError{Reason: err.Error()}
	}
	result, ok := future.Response().(applyResult)
	if !ok {
		return applyResult{}, fmt.Errorf("raftcatalog: unexpected apply response type %T", future.Response())
	}
	return result, result.Err
}

// CreateTable replicates table creation through raft.
func (n *Node) CreateTable(_ context.Context, table catalog.Table) error {
	data, err := json.Marshal(createTableCmd{Table: table})
	if err != nil {
		return err
	}
	_, err = n.apply(Command{Op: opCreateTable, Data: data})
	return err
}

// GetTableInfo reads straight from the local FSM's store.
func (n *Node) GetTableInfo(ctx context.Context, namespace, name string) (catalog.Table, error) {
	return n.store.GetTableInfo(ctx, namespace, name)
}

// ListPartitions reads straight from the local FSM's store.
func (n *Node) ListPartitions(ctx context.Context, tableID ids.TableID) ([]ids.PartitionDescriptor, error) {
	return n.store.ListPartitions(ctx, tableID)
}

// GetSinglePartition reads straight from the local FSM's store.
func (n *Node) GetSinglePartition(ctx context.Context, tableID ids.TableID, desc ids.PartitionDescriptor) (catalog.PartitionVersion, error) {
	return n.store.GetSinglePartition(ctx, tableID, desc)
}

// GetPartitionsByEq reads straight from the local FSM's store.
func (n *Node) GetPartitionsByEq(ctx context.Context, tableID ids.TableID, eq []catalog.EqualityPredicate) ([]catalog.PartitionVersion, error) {
	return n.store.GetPartitionsByEq(ctx, tableID, eq)
}

// VersionUpToTS reads straight from the local FSM's store.
func (n *Node) VersionUpToTS(ctx context.Context, tableID ids.TableID, desc ids.PartitionDescriptor, asOf time.Time) (catalog.PartitionVersion, error) {
	return n.store.VersionUpToTS(ctx, tableID, desc, asOf)
}

// GetCommits reads straight from the local FSM's store.
func (n *Node) GetCommits(ctx context.Context, tableID ids.TableID, commitIDs []ids.CommitID) ([]catalog.DataCommitInfo, error) {
	return n.store.GetCommits(ctx, tableID, commitIDs)
}

// Commit replicates a commit envelope through raft, applying §4.6
// conflict detection inside the FSM so every replica agrees on the
// outcome.
func (n *Node) Commit(_ context.Context, envelope catalog.CommitEnvelope) (catalog.PartitionVersion, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return catalog.PartitionVersion{}, err
	}
	result, err := n.apply(Command{Op: opCommit, Data: data})
	if err != nil {
		return catalog.PartitionVersion{}, err
	}
	return result.Version, nil
}

// UpdateProperties replicates a property merge through raft.
func (n *Node) UpdateProperties(_ context.Context, tableID ids.TableID, properties map[string]string) error {
	data, err := json.Marshal(updatePropertiesCmd{TableID: tableID, Properties: properties})
	if err != nil {
		return err
	}
	_, err = n.apply(Command{Op: opUpdateProperties, Data: data})
	return err
}

// RecordDiscard replicates discard-log entries through raft.
func (n *Node) RecordDiscard(_ context.Context, tableID ids.TableID, entries []catalog.DiscardEntry) error {
	data, err := json.Marshal(recordDiscardCmd{TableID: tableID, Entries: entries})
	if err != nil {
		return err
	}
	_, err = n.apply(Command{Op: opRecordDiscard, Data: data})
	return err
}

// ListDiscardEntries reads straight from the local FSM's store.
func (n *Node) ListDiscardEntries(ctx context.Context, tableID ids.TableID, cutoff time.Time) ([]catalog.DiscardEntry, error) {
	return n.store.ListDiscardEntries(ctx, tableID, cutoff)
}

// Close shuts the node down; satisfies catalog.Client.
func (n *Node) Close() error {
	return n.Shutdown()
}

var _ catalog.Client = (*Node)(nil)
