package rpc

import (
	"context"
	"fmt"
	"net"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/log"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// Server exposes a local catalog.Client (a *boltcatalog.Store or a
// *raftcatalog.Node) to remote callers. It never contains catalog
// logic itself: every method translates a wire request into the
// underlying client call and translates the result or error back.
type Server struct {
	impl   catalog.Client
	server *grpc.Server
	logger zerolog.Logger
}

// NewServer wraps impl for network access. grpcOpts is passed through
// to grpc.NewServer verbatim, so callers can add transport credentials
// (e.g. mTLS, matching the teacher's api server) without this package
// needing to know about certificate management.
func NewServer(impl catalog.Client, grpcOpts ...grpc.ServerOption) *Server {
	s := &Server{impl: impl, server: grpc.NewServer(grpcOpts...), logger: log.WithComponent("catalog-rpc")}
	s.server.RegisterService(&serviceDesc, s)
	return s
}

// Serve blocks accepting connections on addr until Stop is called.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen on %s: %w", addr, err)
	}
	return s.ServeListener(lis)
}

// ServeListener blocks accepting connections on an already-bound
// listener until Stop is called, letting callers bind an ephemeral
// port and learn its address before Serve takes over.
func (s *Server) ServeListener(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("catalog rpc server listening")
	return s.server.Serve(lis)
}

// Stop gracefully drains in-flight RPCs and stops the listener.
func (s *Server) Stop() {
	s.server.GracefulStop()
}

func (s *Server) GetTableInfo(ctx context.Context, req *GetTableInfoRequest) (*GetTableInfoResponse, error) {
	table, err := s.impl.GetTableInfo(ctx, req.Namespace, req.Name)
	if err != nil {
		return &GetTableInfoResponse{Error: toWireError(err)}, nil
	}
	return &GetTableInfoResponse{Table: table}, nil
}

func (s *Server) CreateTable(ctx context.Context, req *CreateTableRequest) (*CreateTableResponse, error) {
	if err := s.impl.CreateTable(ctx, req.Table); err != nil {
		return &CreateTableResponse{Error: toWireError(err)}, nil
	}
	return &CreateTableResponse{}, nil
}

func (s *Server) ListPartitions(ctx context.Context, req *ListPartitionsRequest) (*ListPartitionsResponse, error) {
	descs, err := s.impl.ListPartitions(ctx, req.TableID)
	if err != nil {
		return &ListPartitionsResponse{Error: toWireError(err)}, nil
	}
	return &ListPartitionsResponse{Descriptors: descs}, nil
}

func (s *Server) GetSinglePartition(ctx context.Context, req *GetSinglePartitionRequest) (*GetSinglePartitionResponse, error) {
	pv, err := s.impl.GetSinglePartition(ctx, req.TableID, req.Desc)
	if err != nil {
		return &GetSinglePartitionResponse{Error: toWireError(err)}, nil
	}
	return &GetSinglePartitionResponse{Version: pv}, nil
}

func (s *Server) GetPartitionsByEq(ctx context.Context, req *GetPartitionsByEqRequest) (*GetPartitionsByEqResponse, error) {
	versions, err := s.impl.GetPartitionsByEq(ctx, req.TableID, req.Eq)
	if err != nil {
		return &GetPartitionsByEqResponse{Error: toWireError(err)}, nil
	}
	return &GetPartitionsByEqResponse{Versions: versions}, nil
}

func (s *Server) VersionUpToTS(ctx context.Context, req *VersionUpToTSRequest) (*VersionUpToTSResponse, error) {
	pv, err := s.impl.VersionUpToTS(ctx, req.TableID, req.Desc, fromTimestamp(req.AsOf))
	if err != nil {
		return &VersionUpToTSResponse{Error: toWireError(err)}, nil
	}
	return &VersionUpToTSResponse{Version: pv}, nil
}

func (s *Server) GetCommits(ctx context.Context, req *GetCommitsRequest) (*GetCommitsResponse, error) {
	commits, err := s.impl.GetCommits(ctx, req.TableID, req.CommitIDs)
	if err != nil {
		return &GetCommitsResponse{Error: toWireError(err)}, nil
	}
	return &GetCommitsResponse{Commits: commits}, nil
}

func (s *Server) Commit(ctx context.Context, req *CommitRequest) (*CommitResponse, error) {
	pv, err := s.impl.Commit(ctx, req.Envelope)
	if err != nil {
		return &CommitResponse{Error: toWireError(err)}, nil
	}
	return &CommitResponse{Version: pv}, nil
}

func (s *Server) UpdateProperties(ctx context.Context, req *UpdatePropertiesRequest) (*UpdatePropertiesResponse, error) {
	if err := s.impl.UpdateProperties(ctx, req.TableID, req.Properties); err != nil {
		return &UpdatePropertiesResponse{Error: toWireError(err)}, nil
	}
	return &UpdatePropertiesResponse{}, nil
}

func (s *Server) RecordDiscard(ctx context.Context, req *RecordDiscardRequest) (*RecordDiscardResponse, error) {
	if err := s.impl.RecordDiscard(ctx, req.TableID, req.Entries); err != nil {
		return &RecordDiscardResponse{Error: toWireError(err)}, nil
	}
	return &RecordDiscardResponse{}, nil
}

func (s *Server) ListDiscardEntries(ctx context.Context, req *ListDiscardEntriesRequest) (*ListDiscardEntriesResponse, error) {
	entries, err := s.impl.ListDiscardEntries(ctx, req.TableID, fromTimestamp(req.Cutoff))
	if err != nil {
		return &ListDiscardEntriesResponse{Error: toWireError(err)}, nil
	}
	return &ListDiscardEntriesResponse{Entries: entries}, nil
}
