package ids

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
)

var bucketSuffix = regexp.MustCompile(`-bucket(\d+)\.parquet$`)

// BucketIDFromPath derives the hash bucket a data file belongs to from
// its filename suffix convention ("...-bucket<ID>.parquet"). Files from
// unhashed tables (no suffix) belong to bucket 0.
func BucketIDFromPath(filePath string) (int, error) {
	name := path.Base(filePath)
	m := bucketSuffix.FindStringSubmatch(name)
	if m == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("ids: invalid bucket suffix in %q: %w", name, err)
	}
	return n, nil
}

// IsCompactedPath reports whether a file path was produced by a
// compaction (the "compact-" prefix) as opposed to a writer's "part-"
// prefix.
func IsCompactedPath(filePath string) bool {
	name := path.Base(filePath)
	return len(name) >= len("compact-") && name[:len("compact-")] == "compact-"
}
