// Package config loads the single YAML configuration file (SPEC_FULL.md
// §4.8) declaring the gateway's listen address, worker pool size, storage
// directory, and per-column-family LSM tuning knobs — the teacher's own
// config format (gopkg.in/yaml.v3).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lattice-graph/latticedb/internal/lsm"
)

// FamilyTuning is the YAML shape for one column family's LSM knobs.
type FamilyTuning struct {
	WriteBufferBytes  int    `yaml:"write_buffer_bytes"`
	BlockCacheEntries int    `yaml:"block_cache_entries"`
	BloomBitsPerKey   int    `yaml:"bloom_bits_per_key"`
	MaxTablesPerLevel int    `yaml:"max_tables_per_level"`
	Durability        string `yaml:"durability"` // "durable" | "bulk"
}

func (f FamilyTuning) toOptions(dir, family string) lsm.Options {
	opts := lsm.DefaultOptions(dir, family)
	if f.WriteBufferBytes > 0 {
		opts.WriteBufferBytes = f.WriteBufferBytes
	}
	if f.BlockCacheEntries > 0 {
		opts.BlockCacheEntries = f.BlockCacheEntries
	}
	if f.BloomBitsPerKey > 0 {
		opts.BloomBitsPerKey = f.BloomBitsPerKey
	}
	if f.MaxTablesPerLevel > 0 {
		opts.MaxTablesPerLevel = f.MaxTablesPerLevel
	}
	if f.Durability == "bulk" {
		opts.Durability = lsm.ModeBulk
	}
	return opts
}

// Config is the gateway + storage process's full configuration (spec §6
// "Configuration": listen address, worker pool size, storage directory
// path — extended here with the tuning-contract knobs SPEC_FULL.md §4.8
// names explicitly).
type Config struct {
	ListenAddress  string       `yaml:"listen_address"`
	WorkerPoolSize int          `yaml:"worker_pool_size"`
	StorageDir     string       `yaml:"storage_dir"`
	LogLevel       string       `yaml:"log_level"`
	Nodes          FamilyTuning `yaml:"nodes"`
	Edges          FamilyTuning `yaml:"edges"`
	Indices        FamilyTuning `yaml:"indices"`

	// AuthSecret, if set, turns on the gateway's bearer-token auth
	// middleware (internal/auth); empty disables it.
	AuthSecret       string `yaml:"auth_secret"`
	AuthTokenSeconds int    `yaml:"auth_token_seconds"`
}

// Default returns a config with the spec's stated defaults (worker pool
// size 10, per §5 "Resource policy").
func Default() Config {
	return Config{
		ListenAddress:  "127.0.0.1:8080",
		WorkerPoolSize: 10,
		StorageDir:     "./data",
		LogLevel:       "info",
	}
}

// Load reads and parses a YAML config file at path, filling in spec
// defaults for anything left unset.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 10
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:8080"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "./data"
	}
	return cfg, nil
}

// StorageTuning derives per-family lsm.Options from the config, rooted at
// cfg.StorageDir, for use with storage.Open.
func (c Config) StorageTuning() (nodes, edges, indices lsm.Options) {
	return c.Nodes.toOptions(c.StorageDir, "nodes"),
		c.Edges.toOptions(c.StorageDir, "edges"),
		c.Indices.toOptions(c.StorageDir, "indices")
}
