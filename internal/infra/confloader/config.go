// Package confloader provides configuration loading for docmirror.
package confloader

import (
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Store    StoreConfig    `koanf:"store"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Restore  RestoreConfig  `koanf:"restore"`
	Agent    AgentConfig    `koanf:"agent"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreConfig selects and configures the document store engine.
type StoreConfig struct {
	// Engine is "badger" or "memory".
	Engine string `koanf:"engine"`

	// Path is the data directory for the badger engine.
	Path string `koanf:"path"`

	// GCInterval is how often the badger value log is compacted.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SnapshotConfig controls the snapshot directory.
type SnapshotConfig struct {
	// Root is the directory snapshots are written under.
	Root string `koanf:"root"`

	// Passphrase enables snapshot encryption when non-empty.
	Passphrase string `koanf:"passphrase"`

	// Key is a hex-free raw key alternative to the passphrase.
	Key string `koanf:"key"`

	// RetentionCount is the number of snapshots Prune keeps, 0 to
	// disable count-based pruning.
	RetentionCount int `koanf:"retention_count"`

	// RetentionDays is the age in days past which Prune removes
	// snapshots, 0 to disable age-based pruning.
	RetentionDays int `koanf:"retention_days"`
}

// RestoreConfig controls restore behavior.
type RestoreConfig struct {
	// WriteRate limits applied mutations per second, 0 for unlimited.
	WriteRate float64 `koanf:"write_rate"`

	// WriteBurst is the limiter burst size when WriteRate is set.
	WriteBurst int `koanf:"write_burst"`
}

// AgentConfig controls the long-running agent mode.
type AgentConfig struct {
	// MetricsAddress is the listen address of the /metrics endpoint.
	MetricsAddress string `koanf:"metrics_address"`

	// DumpInterval is how often the agent writes a snapshot.
	DumpInterval time.Duration `koanf:"dump_interval"`

	// PruneOnDump runs snapshot pruning after every scheduled dump.
	PruneOnDump bool `koanf:"prune_on_dump"`
}

// DefaultConfig returns the built-in defaults, overridden by file and
// environment sources during Load.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Engine:     "badger",
			Path:       "./data",
			GCInterval: 5 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			Root: "./backups",
		},
		Restore: RestoreConfig{
			WriteBurst: 100,
		},
		Agent: AgentConfig{
			MetricsAddress: "127.0.0.1:9716",
			DumpInterval:   time.Hour,
		},
	}
}

// Validate checks the configuration for contradictions a run cannot
// recover from.
func (c Config) Validate() error {
	switch c.Store.Engine {
	case "badger", "memory":
	default:
		return fmt.Errorf("store.engine: unknown engine %q", c.Store.Engine)
	}
	if c.Store.Engine == "badger" && c.Store.Path == "" {
		return fmt.Errorf("store.path: required for the badger engine")
	}
	if c.Snapshot.Root == "" {
		return fmt.Errorf("snapshot.root: required")
	}
	if c.Snapshot.Passphrase != "" && c.Snapshot.Key != "" {
		return fmt.Errorf("snapshot: passphrase and key are mutually exclusive")
	}
	if c.Restore.WriteRate < 0 {
		return fmt.Errorf("restore.write_rate: must be >= 0")
	}
	if c.Restore.WriteRate > 0 && c.Restore.WriteBurst < 1 {
		return fmt.Errorf("restore.write_burst: must be >= 1 when write_rate is set")
	}
	if c.Agent.DumpInterval < time.Minute {
		return fmt.Errorf("agent.dump_interval: must be at least one minute")
	}
	return nil
}
