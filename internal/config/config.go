// Package config loads codeindex settings from defaults, a .env file, a TOML
// file and environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/codeindex-mcp/internal/chunker"
	"github.com/dshills/codeindex-mcp/internal/embedder"
	"github.com/dshills/codeindex-mcp/internal/indexer"
	"github.com/dshills/codeindex-mcp/internal/storage"
	"github.com/dshills/codeindex-mcp/internal/store"
)

// Environment variables read by Load
const (
	EnvConfigFile    = "CODEINDEX_CONFIG"
	EnvBackend       = "CODEINDEX_BACKEND"
	EnvCollection    = "CODEINDEX_COLLECTION"
	EnvDBPath        = "CODEINDEX_DB_PATH"
	EnvMilvusAddress = "CODEINDEX_MILVUS_ADDRESS"
	EnvCachePolicy   = "CODEINDEX_CACHE_POLICY"
	EnvCacheSize     = "CODEINDEX_CACHE_SIZE"
	EnvVerbose       = "CODEINDEX_VERBOSE"
)

// ErrInvalidConfig is returned for unreadable files and rejected values
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete application configuration
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Index     IndexConfig     `toml:"index"`
	Verbose   bool            `toml:"verbose"`

	// Source is the TOML file that was loaded, if any
	Source string `toml:"-"`
}

// StoreConfig selects and addresses the vector database
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Collection    string `toml:"collection"`
	SQLitePath    string `toml:"sqlite_path"`
	MilvusAddress string `toml:"milvus_address"`
	BatchSize     int    `toml:"batch_size"`
}

// EmbeddingConfig selects the embedding provider and its cache
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"` // empty: detect from API keys
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CachePolicy       string  `toml:"cache_policy"`
	CacheSize         int     `toml:"cache_size"`
	CacheTTLSeconds   int     `toml:"cache_ttl_seconds"`
}

// ChunkingConfig sizes chunks and window overlap, in characters
type ChunkingConfig struct {
	MaxChunkSize int `toml:"max_chunk_size"`
	Overlap      int `toml:"overlap"`
}

// IndexConfig controls file discovery
type IndexConfig struct {
	ExcludeDirs []string `toml:"exclude_dirs"`
	MaxFileSize int64    `toml:"max_file_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:       storage.BackendSQLite,
			Collection:    storage.DefaultCollection,
			SQLitePath:    defaultSQLitePath(),
			MilvusAddress: storage.DefaultMilvusAddress,
			BatchSize:     store.DefaultBatchSize,
		},
		Embedding: EmbeddingConfig{
			RequestsPerSecond: embedder.DefaultRequestsPerSecond,
			CachePolicy:       embedder.PolicyLRU,
			CacheSize:         embedder.DefaultCacheSize,
			CacheTTLSeconds:   3600,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: chunker.DefaultMaxChunkSize,
			Overlap:      chunker.DefaultOverlap,
		},
		Index: IndexConfig{
			ExcludeDirs: append([]string(nil), indexer.DefaultExcludeDirs...),
			MaxFileSize: indexer.DefaultMaxFileSize,
		},
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func defaultSQLitePath() string {
	return filepath.Join(homeDir(), ".codeindex", "index.db")
}

// DefaultConfigPath is the TOML file read when no other is named
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".codeindex", "config.toml")
}

// Load builds the configuration. path names a TOML file; when empty,
// CODEINDEX_CONFIG is used, then DefaultConfigPath if it exists.
// A .env file in the working directory is loaded first and never
// overrides variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", ErrInvalidConfig, err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigFile)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigPath()
	}

	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.resolveProvider()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a TOML file over the current values. A missing file is
// an error only when it was named explicitly.
func (c *Config) loadFile(path string, explicit bool) error {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Backend, EnvBackend)
	setString(&c.Store.Collection, EnvCollection)
	setString(&c.Store.SQLitePath, EnvDBPath)
	setString(&c.Store.MilvusAddress, EnvMilvusAddress)
	setString(&c.Embedding.Provider, embedder.EnvProvider)
	setString(&c.Embedding.Model, embedder.EnvModel)
	setString(&c.Embedding.CachePolicy, EnvCachePolicy)

	if v := os.Getenv(EnvCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvCacheSize, v)
		}
		c.Embedding.CacheSize = n
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvVerbose, v)
		}
		c.Verbose = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// resolveProvider picks a provider from the available API keys when none is
// configured and fills credentials the file left empty
func (c *Config) resolveProvider() {
	e := &c.Embedding
	e.Provider = strings.ToLower(strings.TrimSpace(e.Provider))
	if e.Provider == "" {
		e.Provider = embedder.DetectProvider()
	}

	switch e.Provider {
	case embedder.ProviderOpenAI:
		setDefault(&e.APIKey, os.Getenv(embedder.EnvOpenAIAPIKey))
	case embedder.ProviderJina:
		setDefault(&e.APIKey, os.Getenv(embedder.EnvJinaAPIKey))
	case embedder.ProviderOllama:
		setDefault(&e.BaseURL, os.Getenv(embedder.EnvOllamaURL))
	}
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// Validate rejects unknown names and out-of-range values
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Backend {
	case storage.BackendSQLite:
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite backend")
		}
	case storage.BackendMilvus:
		if c.Store.MilvusAddress == "" {
			problems = append(problems, "store.milvus_address is required for the milvus backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.backend %q", c.Store.Backend))
	}
	if strings.TrimSpace(c.Store.Collection) == "" {
		problems = append(problems, "store.collection is required")
	}
	if c.Store.BatchSize < 0 || c.Store.BatchSize > embedder.MaxBatchSize {
		problems = append(problems, fmt.Sprintf("store.batch_size must be between 0 and %d", embedder.MaxBatchSize))
	}

	switch c.Embedding.Provider {
	case embedder.ProviderOpenAI, embedder.ProviderJina, embedder.ProviderOllama, embedder.ProviderLocal, "":
	default:
		problems = append(problems, fmt.Sprintf("unknown embedding.provider %q", c.Embedding.Provider))
	}
	switch c.Embedding.CachePolicy {
	case embedder.PolicyLRU, embedder.PolicyExpirable, embedder.PolicyUnbounded, "":
	default:
		problems = append(problems, fmt.Sprintf("unknown embedding.cache_policy %q", c.Embedding.CachePolicy))
	}
	if c.Embedding.CacheSize < 0 {
		problems = append(problems, "embedding.cache_size cannot be negative")
	}
	if c.Embedding.CacheTTLSeconds < 0 {
		problems = append(problems, "embedding.cache_ttl_seconds cannot be negative")
	}
	if c.Embedding.RequestsPerSecond < 0 {
		problems = append(problems, "embedding.requests_per_second cannot be negative")
	}

	if c.Chunking.MaxChunkSize < 0 || c.Chunking.Overlap < 0 {
		problems = append(problems, "chunking sizes cannot be negative")
	} else if c.Chunking.MaxChunkSize > 0 && c.Chunking.Overlap >= c.Chunking.MaxChunkSize {
		problems = append(problems, "chunking.overlap must be smaller than chunking.max_chunk_size")
	}

	if c.Index.MaxFileSize < 0 {
		problems = append(problems, "index.max_file_size cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// StorageOptions returns the options for storage.Open
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.Store.Backend,
		Collection:    c.Store.Collection,
		SQLitePath:    expandHome(c.Store.SQLitePath),
		MilvusAddress: c.Store.MilvusAddress,
	}
}

// EmbedderConfig returns the options for embedder.New
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:          c.Embedding.Provider,
		Model:             c.Embedding.Model,
		APIKey:            c.Embedding.APIKey,
		BaseURL:           c.Embedding.BaseURL,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
	}
}

// CacheConfig returns the options for embedder.NewCache
func (c *Config) CacheConfig() embedder.CacheConfig {
	return embedder.CacheConfig{
		Policy: c.Embedding.CachePolicy,
		Size:   c.Embedding.CacheSize,
		TTL:    time.Duration(c.Embedding.CacheTTLSeconds) * time.Second,
	}
}

// ChunkerOptions returns the options for chunker.New
func (c *Config) ChunkerOptions() chunker.Options {
	return chunker.Options{
		MaxChunkSize: c.Chunking.MaxChunkSize,
		Overlap:      c.Chunking.Overlap,
	}
}

// IndexerConfig returns the options for indexer.New
func (c *Config) IndexerConfig() indexer.Config {
	return indexer.Config{
		ExcludeDirs: c.Index.ExcludeDirs,
		MaxFileSize: c.Index.MaxFileSize,
	}
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
