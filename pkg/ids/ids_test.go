package ids_test

import (
	"testing"

	"github.com/lakesoul-io/lakesoul-go/pkg/ids"
	"github.com/stretchr/testify/require"
)

func TestBuildAndParsePartitionDescriptor(t *testing.T) {
	desc, err := ids.BuildPartitionDescriptor(
		[]string{"region", "dt"},
		map[string]string{"region": "us,west", "dt": "2024-01-01"},
	)
	require.NoError(t, err)
	require.Equal(t, ids.PartitionDescriptor("region=us%2Cwest,dt=2024-01-01"), desc)

	bindings, err := desc.Parse()
	require.NoError(t, err)
	require.Equal(t, []ids.Binding{
		{Column: "region", Value: "us,west"},
		{Column: "dt", Value: "2024-01-01"},
	}, bindings)
}

func TestBuildPartitionDescriptorMissingColumn(t *testing.T) {
	_, err := ids.BuildPartitionDescriptor([]string{"region", "dt"}, map[string]string{"region": "us"})
	require.Error(t, err)
}

func TestEmptyDescriptorIsUnpartitionedSingleton(t *testing.T) {
	desc, err := ids.BuildPartitionDescriptor(nil, nil)
	require.NoError(t, err)
	require.Equal(t, ids.Empty, desc)

	bindings, err := desc.Parse()
	require.NoError(t, err)
	require.Empty(t, bindings)
}

func TestDataFilePathGrammar(t *testing.T) {
	commit := ids.CommitID("c-1")
	path := ids.DataFilePath("s3://bucket/t", ids.PartitionDescriptor("dt=2024-01-01"), commit, 3)
	require.Equal(t, "s3://bucket/t/dt%3D2024-01-01/part-c-1-bucket3.parquet", path)

	compacted := ids.CompactedFilePath("s3://bucket/t", ids.Empty, commit, 0)
	require.Equal(t, "s3://bucket/t/compact-c-1-bucket0.parquet", compacted)
}

func TestBucketIDFromPath(t *testing.T) {
	id, err := ids.BucketIDFromPath("s3://bucket/t/part-abc-bucket12.parquet")
	require.NoError(t, err)
	require.Equal(t, 12, id)

	id, err = ids.BucketIDFromPath("s3://bucket/t/part-abc.parquet")
	require.NoError(t, err)
	require.Equal(t, 0, id)
}

func TestIsCompactedPath(t *testing.T) {
	require.True(t, ids.IsCompactedPath("s3://bucket/t/compact-abc-bucket0.parquet"))
	require.False(t, ids.IsCompactedPath("s3://bucket/t/part-abc-bucket0.parquet"))
}
