package rpc

import (
	"time"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func toTimestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

func fromTimestamp(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.AsTime()
}

type GetTableInfoRequest struct {
	Namespace string
	Name      string
}

type GetTableInfoResponse struct {
	Table catalog.Table
	Error *wireError
}

type CreateTableRequest struct {
	Table catalog.Table
}

type CreateTableResponse struct {
	Error *wireError
}

type ListPartitionsRequest struct {
	TableID ids.TableID
}

type ListPartitionsResponse struct {
	Descriptors []ids.PartitionDescriptor
	Error       *wireError
}

type GetSinglePartitionRequest struct {
	TableID ids.TableID
	Desc    ids.PartitionDescriptor
}

type GetSinglePartitionResponse struct {
	Version catalog.PartitionVersion
	Error   *wireError
}

type GetPartitionsByEqRequest struct {
	TableID ids.TableID
	Eq      []catalog.EqualityPredicate
}

type GetPartitionsByEqResponse struct {
	Versions []catalog.PartitionVersion
	Error    *wireError
}

type VersionUpToTSRequest struct {
	TableID ids.TableID
	Desc    ids.PartitionDescriptor
	AsOf    *timestamppb.Timestamp
}

type VersionUpToTSResponse struct {
	Version catalog.PartitionVersion
	Error   *wireError
}

type GetCommitsRequest struct {
	TableID   ids.TableID
	CommitIDs []ids.CommitID
}

type GetCommitsResponse struct {
	Commits []catalog.DataCommitInfo
	Error   *wireError
}

type CommitRequest struct {
	Envelope catalog.CommitEnvelope
}

type CommitResponse struct {
	Version catalog.PartitionVersion
	Error   *wireError
}

type UpdatePropertiesRequest struct {
	TableID    ids.TableID
	Properties map[string]string
}

type UpdatePropertiesResponse struct {
	Error *wireError
}

type RecordDiscardRequest struct {
	TableID ids.TableID
	Entries []catalog.DiscardEntry
}

type RecordDiscardResponse struct {
	Error *wireError
}

type ListDiscardEntriesRequest struct {
	TableID ids.TableID
	Cutoff  *timestamppb.Timestamp
}

type ListDiscardEntriesResponse struct {
	Entries []catalog.DiscardEntry
	Error   *wireError
}
