package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"google.golang.org/grpc"
)

// Client implements catalog.Client over a gRPC connection to a Server,
// so a remote boltcatalog/raftcatalog is a drop-in substitute for an
// in-process one everywhere a catalog.Client is accepted (the
// planner, resolver, commit engine, compaction executor, lifecycle
// sweeper).
type Client struct {
	conn *grpc.ClientConn
}

var _ catalog.Client = (*Client)(nil)

// Dial connects to a catalog rpc Server at addr. dialOpts is passed
// through to grpc.Dial verbatim so a caller can add transport
// credentials; callers that don't need TLS should pass
// grpc.WithTransportCredentials(insecure.NewCredentials()) explicitly,
// matching how the teacher's client wrapper leaves credential choice
// to the caller rather than defaulting silently.
func Dial(addr string, dialOpts ...grpc.DialOption) (*Client, error) {
	conn, err := grpc.Dial(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, resp, grpc.CallContentSubtype(jsonCodec{}.Name()))
}

func (c *Client) GetTableInfo(ctx context.Context, namespace, name string) (catalog.Table, error) {
	resp := new(GetTableInfoResponse)
	if err := c.invoke(ctx, "GetTableInfo", &GetTableInfoRequest{Namespace: namespace, Name: name}, resp); err != nil {
		return catalog.Table{}, err
	}
	if resp.Error != nil {
		return catalog.Table{}, fromWireError(resp.Error)
	}
	return resp.Table, nil
}

func (c *Client) CreateTable(ctx context.Context, table catalog.Table) error {
	resp := new(CreateTableResponse)
	if err := c.invoke(ctx, "CreateTable", &CreateTableRequest{Table: table}, resp); err != nil {
		return err
	}
	return fromWireError(resp.Error)
}

func (c *Client) ListPartitions(ctx context.Context, tableID ids.TableID) ([]ids.PartitionDescriptor, error) {
	resp := new(ListPartitionsResponse)
	if err := c.invoke(ctx, "ListPartitions", &ListPartitionsRequest{TableID: tableID}, resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fromWireError(resp.Error)
	}
	return resp.Descriptors, nil
}

func (c *Client) GetSinglePartition(ctx context.Context, tableID ids.TableID, desc ids.PartitionDescriptor) (catalog.PartitionVersion, error) {
	resp := new(GetSinglePartitionResponse)
	if err := c.invoke(ctx, "GetSinglePartition", &GetSinglePartitionRequest{TableID: tableID, Desc: desc}, resp); err != nil {
		return catalog.PartitionVersion{}, err
	}
	if resp.Error != nil {
		return catalog.PartitionVersion{}, fromWireError(resp.Error)
	}
	return resp.Version, nil
}

func (c *Client) GetPartitionsByEq(ctx context.Context, tableID ids.TableID, eq []catalog.EqualityPredicate) ([]catalog.PartitionVersion, error) {
	resp := new(GetPartitionsByEqResponse)
	if err := c.invoke(ctx, "GetPartitionsByEq", &GetPartitionsByEqRequest{TableID: tableID, Eq: eq}, resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fromWireError(resp.Error)
	}
	return resp.Versions, nil
}

func (c *Client) VersionUpToTS(ctx context.Context, tableID ids.TableID, desc ids.PartitionDescriptor, asOf time.Time) (catalog.PartitionVersion, error) {
	resp := new(VersionUpToTSResponse)
	req := &VersionUpToTSRequest{TableID: tableID, Desc: desc, AsOf: toTimestamp(asOf)}
	if err := c.invoke(ctx, "VersionUpToTS", req, resp); err != nil {
		return catalog.PartitionVersion{}, err
	}
	if resp.Error != nil {
		return catalog.PartitionVersion{}, fromWireError(resp.Error)
	}
	return resp.Version, nil
}

func (c *Client) GetCommits(ctx context.Context, tableID ids.TableID, commitIDs []ids.CommitID) ([]catalog.DataCommitInfo, error) {
	resp := new(GetCommitsResponse)
	if err := c.invoke(ctx, "GetCommits", &GetCommitsRequest{TableID: tableID, CommitIDs: commitIDs}, resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fromWireError(resp.Error)
	}
	return resp.Commits, nil
}

func (c *Client) Commit(ctx context.Context, envelope catalog.CommitEnvelope) (catalog.PartitionVersion, error) {
	resp := new(CommitResponse)
	if err := c.invoke(ctx, "Commit", &CommitRequest{Envelope: envelope}, resp); err != nil {
		return catalog.PartitionVersion{}, err
	}
	if resp.Error != nil {
		return catalog.PartitionVersion{}, fromWireError(resp.Error)
	}
	return resp.Version, nil
}

func (c *Client) UpdateProperties(ctx context.Context, tableID ids.TableID, properties map[string]string) error {
	resp := new(UpdatePropertiesResponse)
	req := &UpdatePropertiesRequest{TableID: tableID, Properties: properties}
	if err := c.invoke(ctx, "UpdateProperties", req, resp); err != nil {
		return err
	}
	return fromWireError(resp.Error)
}

func (c *Client) RecordDiscard(ctx context.Context, tableID ids.TableID, entries []catalog.DiscardEntry) error {
	resp := new(RecordDiscardResponse)
	req := &RecordDiscardRequest{TableID: tableID, Entries: entries}
	if err := c.invoke(ctx, "RecordDiscard", req, resp); err != nil {
		return err
	}
	return fromWireError(resp.Error)
}

func (c *Client) ListDiscardEntries(ctx context.Context, tableID ids.TableID, cutoff time.Time) ([]catalog.DiscardEntry, error) {
	resp := new(ListDiscardEntriesResponse)
	req := &ListDiscardEntriesRequest{TableID: tableID, Cutoff: toTimestamp(cutoff)}
	if err := c.invoke(ctx, "ListDiscardEntries", req, resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fromWireError(resp.Error)
	}
	return resp.Entries, nil
}
