package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName matches the logical RPC namespace; there is no .proto
// file behind it since no protoc toolchain is available here, but the
// full method path still follows the usual /package.Service/Method
// shape grpc.Server and grpc.ClientConn expect.
const serviceName = "lakesoul.catalog.v1.Catalog"

// catalogServer is the server-side handler contract the hand-declared
// ServiceDesc below dispatches to. Server implements it by wrapping a
// catalog.Client.
type catalogServer interface {
	GetTableInfo(context.Context, *GetTableInfoRequest) (*GetTableInfoResponse, error)
	CreateTable(context.Context, *CreateTableRequest) (*CreateTableResponse, error)
	ListPartitions(context.Context, *ListPartitionsRequest) (*ListPartitionsResponse, error)
	GetSinglePartition(context.Context, *GetSinglePartitionRequest) (*GetSinglePartitionResponse, error)
	GetPartitionsByEq(context.Context, *GetPartitionsByEqRequest) (*GetPartitionsByEqResponse, error)
	VersionUpToTS(context.Context, *VersionUpToTSRequest) (*VersionUpToTSResponse, error)
	GetCommits(context.Context, *GetCommitsRequest) (*GetCommitsResponse, error)
	Commit(context.Context, *CommitRequest) (*CommitResponse, error)
	UpdateProperties(context.Context, *UpdatePropertiesRequest) (*UpdatePropertiesResponse, error)
	RecordDiscard(context.Context, *RecordDiscardRequest) (*RecordDiscardResponse, error)
	ListDiscardEntries(context.Context, *ListDiscardEntriesRequest) (*ListDiscardEntriesResponse, error)
}

func unaryHandler[Req, Resp any](method string, call func(catalogServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	name := method
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(catalogServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// serviceDesc is the hand-declared substitute for what protoc-gen-go-grpc
// would otherwise generate from a catalog.proto file.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*catalogServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetTableInfo", catalogServer.GetTableInfo),
		unaryHandler("CreateTable", catalogServer.CreateTable),
		unaryHandler("ListPartitions", catalogServer.ListPartitions),
		unaryHandler("GetSinglePartition", catalogServer.GetSinglePartition),
		unaryHandler("GetPartitionsByEq", catalogServer.GetPartitionsByEq),
		unaryHandler("VersionUpToTS", catalogServer.VersionUpToTS),
		unaryHandler("GetCommits", catalogServer.GetCommits),
		unaryHandler("Commit", catalogServer.Commit),
		unaryHandler("UpdateProperties", catalogServer.UpdateProperties),
		unaryHandler("RecordDiscard", catalogServer.RecordDiscard),
		unaryHandler("ListDiscardEntries", catalogServer.ListDiscardEntries),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/catalog/rpc/catalog.proto",
}
