package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codeindex-mcp/internal/embedder"
	"github.com/dshills/codeindex-mcp/internal/storage"
)

var envKeys = []string{
	EnvConfigFile, EnvBackend, EnvCollection, EnvDBPath, EnvMilvusAddress,
	EnvCachePolicy, EnvCacheSize, EnvVerbose,
	embedder.EnvProvider, embedder.EnvModel,
	embedder.EnvOpenAIAPIKey, embedder.EnvJinaAPIKey, embedder.EnvOllamaURL,
}

// isolate clears every variable Load reads and points HOME and the working
// directory at empty temp dirs
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, storage.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, storage.DefaultCollection, cfg.Store.Collection)
	assert.Equal(t, filepath.Join(home, ".codeindex", "index.db"), cfg.Store.SQLitePath)
	assert.Equal(t, embedder.ProviderLocal, cfg.Embedding.Provider, "no API keys means the local provider")
	assert.Equal(t, embedder.PolicyLRU, cfg.Embedding.CachePolicy)
	assert.Equal(t, 1000, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Contains(t, cfg.Index.ExcludeDirs, "node_modules")
	assert.Empty(t, cfg.Source)
	assert.False(t, cfg.Verbose)
}

func TestLoad_TOMLFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "codeindex.toml"), `
verbose = true

[store]
backend = "milvus"
collection = "myrepo"
milvus_address = "milvus:19530"
batch_size = 50

[embedding]
provider = "ollama"
model = "mxbai-embed-large"
cache_policy = "expirable"
cache_ttl_seconds = 60

[chunking]
max_chunk_size = 2000
overlap = 200

[index]
exclude_dirs = ["gen"]
max_file_size = 4096
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, storage.BackendMilvus, cfg.Store.Backend)
	assert.Equal(t, "myrepo", cfg.Store.Collection)
	assert.Equal(t, "milvus:19530", cfg.Store.MilvusAddress)
	assert.Equal(t, 50, cfg.Store.BatchSize)
	assert.Equal(t, embedder.ProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, embedder.DefaultCacheSize, cfg.Embedding.CacheSize, "unset keys keep defaults")
	assert.Equal(t, time.Minute, cfg.CacheConfig().TTL)
	assert.Equal(t, 2000, cfg.ChunkerOptions().MaxChunkSize)
	assert.Equal(t, []string{"gen"}, cfg.IndexerConfig().ExcludeDirs)
	assert.Equal(t, int64(4096), cfg.IndexerConfig().MaxFileSize)

	opts := cfg.StorageOptions()
	assert.Equal(t, "myrepo", opts.Collection)
	assert.Equal(t, "milvus:19530", opts.MilvusAddress)
}

func TestLoad_ConfigFileFromEnvAndHome(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".codeindex", "config.toml"), "[store]\ncollection = \"from-home\"\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-home", cfg.Store.Collection)

	envPath := writeFile(t, filepath.Join(t.TempDir(), "env.toml"), "[store]\ncollection = \"from-env\"\n")
	t.Setenv(EnvConfigFile, envPath)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Store.Collection)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "c.toml"), "[store]\ncollection = \"file\"\n[embedding]\ncache_size = 10\n")

	t.Setenv(EnvCollection, "env")
	t.Setenv(EnvCacheSize, "42")
	t.Setenv(EnvDBPath, "~/custom/index.db")
	t.Setenv(EnvVerbose, "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env", cfg.Store.Collection)
	assert.Equal(t, 42, cfg.Embedding.CacheSize)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), "custom", "index.db"), cfg.StorageOptions().SQLitePath)
}

func TestLoad_ProviderDetection(t *testing.T) {
	isolate(t)
	t.Setenv(embedder.EnvOpenAIAPIKey, "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, embedder.ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.EmbedderConfig().APIKey)

	t.Setenv(embedder.EnvProvider, "LOCAL")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, embedder.ProviderLocal, cfg.Embedding.Provider)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	writeFile(t, ".env", "CODEINDEX_COLLECTION=dotenv\nJINA_API_KEY=jina-test\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv", cfg.Store.Collection)
	assert.Equal(t, embedder.ProviderJina, cfg.Embedding.Provider)
	assert.Equal(t, "jina-test", cfg.Embedding.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "explicit file missing",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.toml")
			},
		},
		{
			name: "malformed toml",
			setup: func(t *testing.T) string {
				return writeFile(t, filepath.Join(t.TempDir(), "bad.toml"), "[store\nbackend = ")
			},
		},
		{
			name: "unknown backend",
			setup: func(t *testing.T) string {
				t.Setenv(EnvBackend, "postgres")
				return ""
			},
		},
		{
			name: "cache size not a number",
			setup: func(t *testing.T) string {
				t.Setenv(EnvCacheSize, "lots")
				return ""
			},
		},
		{
			name: "unknown provider",
			setup: func(t *testing.T) string {
				t.Setenv(embedder.EnvProvider, "cohere")
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(tt.setup(t))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "milvus without address", mutate: func(c *Config) {
			c.Store.Backend = storage.BackendMilvus
			c.Store.MilvusAddress = ""
		}, wantErr: true},
		{name: "empty collection", mutate: func(c *Config) { c.Store.Collection = " " }, wantErr: true},
		{name: "batch too large", mutate: func(c *Config) { c.Store.BatchSize = 500 }, wantErr: true},
		{name: "unknown cache policy", mutate: func(c *Config) { c.Embedding.CachePolicy = "arc" }, wantErr: true},
		{name: "overlap not below max", mutate: func(c *Config) { c.Chunking.Overlap = 1000 }, wantErr: true},
		{name: "negative file size", mutate: func(c *Config) { c.Index.MaxFileSize = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
