package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/lsm"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_dir: /var/lib/latticedb\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.WorkerPoolSize)
	require.Equal(t, "127.0.0.1:8080", cfg.ListenAddress)
	require.Equal(t, "/var/lib/latticedb", cfg.StorageDir)
}

func TestLoadParsesFamilyTuning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlSrc := `
listen_address: "0.0.0.0:9090"
worker_pool_size: 32
storage_dir: ./data
indices:
  bloom_bits_per_key: 10
  durability: durable
nodes:
  durability: bulk
`
	require.NoError(t, os.WriteFile(path, []byte(yamlSrc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.WorkerPoolSize)

	nodes, _, indices := cfg.StorageTuning()
	require.Equal(t, lsm.ModeBulk, nodes.Durability)
	require.Equal(t, 10, indices.BloomBitsPerKey)
}

func TestLoadParsesAuthSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlSrc := "storage_dir: ./data\nauth_secret: some-secret-value\nauth_token_seconds: 600\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlSrc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "some-secret-value", cfg.AuthSecret)
	require.Equal(t, 600, cfg.AuthTokenSeconds)
}
