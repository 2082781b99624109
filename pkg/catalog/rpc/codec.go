// Package rpc exposes a catalog.Client implementation over gRPC: a
// hand-declared grpc.ServiceDesc (no protoc codegen is available in
// this environment) paired with a JSON encoding.Codec, so the wire
// messages stay plain Go structs while still riding real grpc.Server /
// grpc.ClientConn plumbing.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec so grpc dispatches request and
// response bodies through encoding/json instead of protobuf wire
// format. Registered under content-subtype "json".
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
