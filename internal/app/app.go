// Package app wires configuration into the indexing and search pipeline
// shared by the CLI and the MCP server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/codeindex-mcp/internal/assembler"
	"github.com/dshills/codeindex-mcp/internal/chunker"
	"github.com/dshills/codeindex-mcp/internal/config"
	"github.com/dshills/codeindex-mcp/internal/embedder"
	"github.com/dshills/codeindex-mcp/internal/indexer"
	"github.com/dshills/codeindex-mcp/internal/logger"
	"github.com/dshills/codeindex-mcp/internal/searcher"
	"github.com/dshills/codeindex-mcp/internal/storage"
	"github.com/dshills/codeindex-mcp/internal/store"
)

// App holds the assembled components
type App struct {
	Config   *config.Config
	Store    *store.Store
	Indexer  *indexer.Indexer
	Searcher *searcher.Searcher
}

// New opens the vector store and embedding provider named by cfg and builds
// the pipeline on top of them
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.New(cfg.EmbedderConfig())
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return build(cfg, backend, emb)
}

// NewWithBackend builds the pipeline over already opened components
func NewWithBackend(cfg *config.Config, backend storage.VectorStore, emb embedder.Embedder) (*App, error) {
	return build(cfg, backend, emb)
}

func build(cfg *config.Config, backend storage.VectorStore, emb embedder.Embedder) (*App, error) {
	cache, err := embedder.NewCache(cfg.CacheConfig())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize cache: %w", err), backend.Close(), emb.Close())
	}

	st, err := store.New(backend, emb, cache, store.Options{BatchSize: cfg.Store.BatchSize})
	if err != nil {
		return nil, errors.Join(err, backend.Close(), emb.Close())
	}

	asm := assembler.New(chunker.New(cfg.ChunkerOptions()))
	logger.Debug("pipeline: backend=%s collection=%s provider=%s model=%s cache=%s",
		st.Backend(), st.Collection(), emb.Provider(), emb.Model(), cfg.Embedding.CachePolicy)

	return &App{
		Config:   cfg,
		Store:    st,
		Indexer:  indexer.New(asm, st, cfg.IndexerConfig()),
		Searcher: searcher.NewSearcher(st),
	}, nil
}

// Close releases the store and the embedding provider
func (a *App) Close() error {
	return a.Store.Close()
}
