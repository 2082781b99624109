// Package config models the full configuration surface: the tunables
// in spec.md's "Configuration surface" table, loaded from a YAML file
// and overridable per table via the catalog's properties map.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized global tunable. Field names mirror the
// dotted option names from the configuration surface table
// (e.g. CompactionLevel1FileNumberLimit <-> compaction.level1.file.number.limit).
type Config struct {
	SchemaAutoMergeEnabled bool
	NativeIOEnable         bool

	CompactionLevel1FileNumberLimit int
	CompactionLevel1MergeSizeLimit  int64
	CompactionLevel1MergeNumLimit   int
	CompactionLevelMaxFileSize      int64

	ScanFileNumberLimit int

	LakesoulCompactRename bool

	SnapshotCacheExpireSeconds int

	PartitionTTLDays       int
	CompactionTTLDays      int
	OnlySaveOnceCompaction bool
	CDCColumn              string
}

// Default returns the configuration surface's documented defaults.
func Default() Config {
	return Config{
		SchemaAutoMergeEnabled:           false,
		NativeIOEnable:                   true,
		CompactionLevel1FileNumberLimit:  20,
		CompactionLevel1MergeSizeLimit:   1 << 30, // 1GiB
		CompactionLevel1MergeNumLimit:    5,
		CompactionLevelMaxFileSize:       5 << 30, // 5GiB
		LakesoulCompactRename:            false,
		SnapshotCacheExpireSeconds:       1,
	}
}

// LoadFile reads and parses a YAML config file, seeded with Default()
// for any option the file doesn't set.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// fieldSetters maps a dotted option name (exactly as documented in the
// configuration surface table) to a parser/setter pair, so both the
// nested-mapping and flat-dotted-key YAML forms resolve identically
// once flattened to dotted paths.
var fieldSetters = map[string]func(*Config, string) error{
	"schema.autoMerge.enabled": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.SchemaAutoMergeEnabled = b
		return err
	},
	"native.io.enable": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.NativeIOEnable = b
		return err
	},
	"compaction.level1.file.number.limit": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.CompactionLevel1FileNumberLimit = n
		return err
	},
	"compaction.level1.merge.size.limit": func(c *Config, v string) error {
		n, err := parseSize(v)
		c.CompactionLevel1MergeSizeLimit = n
		return err
	},
	"compaction.level1.merge.num.limit": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.CompactionLevel1MergeNumLimit = n
		return err
	},
	"compaction.level.max.file.size": func(c *Config, v string) error {
		n, err := parseSize(v)
		c.CompactionLevelMaxFileSize = n
		return err
	},
	"scan.file.number.limit": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.ScanFileNumberLimit = n
		return err
	},
	"lakesoul.compact.rename": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.LakesoulCompactRename = b
		return err
	},
	"snapshot.cache.expire.seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.SnapshotCacheExpireSeconds = n
		return err
	},
	"partition.ttl.days": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.PartitionTTLDays = n
		return err
	},
	"compaction.ttl.days": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.CompactionTTLDays = n
		return err
	},
	"only.save.once.compaction": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.OnlySaveOnceCompaction = b
		return err
	},
	"cdc.column": func(c *Config, v string) error {
		c.CDCColumn = v
		return nil
	},
}

// UnmarshalYAML accepts either a nested mapping (compaction: {level1:
// {file: {number: {limit: 20}}}}) or a flat mapping keyed by the
// dotted option name directly ("compaction.level1.file.number.limit":
// 20) — both flatten to the same dotted path. A table's properties map
// uses its own snake_case keys and is applied by ApplyTableOverrides.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	flat := map[string]string{}
	if err := flattenYAMLNode(node, "", flat); err != nil {
		return err
	}
	return c.applyFlat(flat)
}

func (c *Config) applyFlat(flat map[string]string) error {
	for key, value := range flat {
		setter, ok := fieldSetters[key]
		if !ok {
			continue
		}
		if err := setter(c, value); err != nil {
			return fmt.Errorf("config: option %q: %w", key, err)
		}
	}
	return nil
}

func flattenYAMLNode(node *yaml.Node, prefix string, out map[string]string) error {
	if node == nil {
		return nil
	}
	// A top-level document node wraps the real mapping in Content[0].
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return flattenYAMLNode(node.Content[0], prefix, out)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("config: expected a mapping at %q, got kind %d", prefix, node.Kind)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch value.Kind {
		case yaml.MappingNode:
			if err := flattenYAMLNode(value, path, out); err != nil {
				return err
			}
		default:
			out[path] = value.Value
		}
	}
	return nil
}

// ApplyTableOverrides returns a copy of c with any matching key from
// props applied on top. props uses the same snake_case keys the
// catalog model and compaction planner already read directly off
// catalog.Table.Properties, so a table's properties map is a reduced,
// per-table view of the same tunables a config file sets globally.
func (c Config) ApplyTableOverrides(props map[string]string) Config {
	out := c
	if v, ok := props["partition_ttl_days"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.PartitionTTLDays = n
		}
	}
	if v, ok := props["compaction_ttl_days"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.CompactionTTLDays = n
		}
	}
	if v, ok := props["only_save_once_compaction"]; ok {
		out.OnlySaveOnceCompaction = v == "true"
	}
	if v, ok := props["cdc_column"]; ok {
		out.CDCColumn = v
	}
	if v, ok := props["level1_file_num_limit"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.CompactionLevel1FileNumberLimit = n
		}
	}
	if v, ok := props["level1_merge_size_limit"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out.CompactionLevel1MergeSizeLimit = n
		}
	}
	return out
}

// ToProperties renders c's per-table tunables into the snake_case
// property keys catalog.Table.Properties already carries, so a loaded
// Config can seed CreateTable's default properties.
func (c Config) ToProperties() map[string]string {
	props := map[string]string{}
	if c.PartitionTTLDays > 0 {
		props["partition_ttl_days"] = strconv.Itoa(c.PartitionTTLDays)
	}
	if c.CompactionTTLDays > 0 {
		props["compaction_ttl_days"] = strconv.Itoa(c.CompactionTTLDays)
	}
	if c.OnlySaveOnceCompaction {
		props["only_save_once_compaction"] = "true"
	}
	if c.CDCColumn != "" {
		props["cdc_column"] = c.CDCColumn
	}
	props["level1_file_num_limit"] = strconv.Itoa(c.CompactionLevel1FileNumberLimit)
	props["level1_merge_size_limit"] = strconv.FormatInt(c.CompactionLevel1MergeSizeLimit, 10)
	return props
}

// parseSize parses a byte size with an optional binary unit suffix
// (KiB/MiB/GiB), matching the configuration surface table's "size"
// option kind (e.g. "1GiB", "256MiB"). A bare number is bytes.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	units := []struct {
		suffix string
		factor int64
	}{
		{"GiB", 1 << 30},
		{"MiB", 1 << 20},
		{"KiB", 1 << 10},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			n, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid size %q: %w", s, err)
			}
			return int64(n * float64(u.factor)), nil
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
