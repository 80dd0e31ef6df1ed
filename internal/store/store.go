package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/codeindex-mcp/internal/embedder"
	"github.com/dshills/codeindex-mcp/internal/storage"
	"github.com/dshills/codeindex-mcp/pkg/types"
)

// DefaultBatchSize is the number of documents sent per backend upsert and
// per embedding call
const DefaultBatchSize = 100

var (
	// ErrInvalidDocument is returned when a document fails validation
	ErrInvalidDocument = errors.New("invalid document")
	// ErrEmptyQuery is returned for a blank query text
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrInvalidLimit is returned for a non-positive result count
	ErrInvalidLimit = errors.New("limit must be positive")
)

// Options configures a Store
type Options struct {
	BatchSize int
}

// Store translates documents and queries into backend records, resolving
// embeddings through the cache so only misses reach the embedding service.
type Store struct {
	backend   storage.VectorStore
	embedder  embedder.Embedder
	cache     *embedder.Cache
	batchSize int
}

// New creates a store adapter. A nil cache gets a default LRU cache.
func New(backend storage.VectorStore, emb embedder.Embedder, cache *embedder.Cache, opts Options) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store: backend is required")
	}
	if emb == nil {
		return nil, errors.New("store: embedder is required")
	}
	if cache == nil {
		c, err := embedder.NewCache(embedder.CacheConfig{})
		if err != nil {
			return nil, err
		}
		cache = c
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > embedder.MaxBatchSize {
		batchSize = embedder.MaxBatchSize
	}

	return &Store{
		backend:   backend,
		embedder:  emb,
		cache:     cache,
		batchSize: batchSize,
	}, nil
}

// Upsert validates, embeds and writes documents in batches. Documents are
// keyed by id, so writing the same document twice leaves one record.
// It returns the number of documents written.
func (s *Store) Upsert(ctx context.Context, docs []types.Document) (int, error) {
	records := make([]storage.Record, len(docs))
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w %q: %w", ErrInvalidDocument, docs[i].ID, err)
		}
		meta, err := types.EncodeMetadata(docs[i].Metadata)
		if err != nil {
			return 0, fmt.Errorf("%w %q: %w", ErrInvalidDocument, docs[i].ID, err)
		}
		records[i] = storage.Record{
			ID:       docs[i].ID,
			Content:  docs[i].Content,
			Path:     docs[i].Metadata.Path(),
			Metadata: meta,
		}
	}

	written := 0
	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))
		batch := records[start:end]

		if err := s.embedRecords(ctx, batch); err != nil {
			return written, err
		}
		if err := s.backend.Upsert(ctx, batch); err != nil {
			return written, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
		written += len(batch)
	}
	return written, nil
}

// embedRecords fills in vectors for a batch, cache first
func (s *Store) embedRecords(ctx context.Context, batch []storage.Record) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content
	}

	vectors, err := s.cache.GetOrComputeBatch(ctx, texts, s.computeBatch)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	dim := len(vectors[0])
	for i := range batch {
		if len(vectors[i]) != dim {
			return fmt.Errorf("%w: %d and %d in one batch", embedder.ErrDimensionMismatch, dim, len(vectors[i]))
		}
		batch[i].Vector = vectors[i]
	}
	return nil
}

func (s *Store) computeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Vector
	}
	return vectors, nil
}

func (s *Store) computeOne(ctx context.Context, text string) ([]float32, error) {
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		return nil, err
	}
	return emb.Vector, nil
}

// Query embeds text and returns the k nearest documents in backend order
func (s *Store) Query(ctx context.Context, text string, k int) ([]types.SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, k)
	}

	vector, err := s.cache.GetOrCompute(ctx, text, s.computeOne)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.backend.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query backend: %w", err)
	}

	results := make([]types.SearchResult, 0, len(hits))
	for i, h := range hits {
		meta, err := types.DecodeMetadata(h.Metadata)
		if err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", h.ID, err)
		}
		results = append(results, types.SearchResult{
			ID:       h.ID,
			Rank:     i + 1,
			Score:    types.ScoreFromDistance(h.Distance),
			Content:  h.Content,
			Metadata: meta,
		})
	}
	return results, nil
}

// Count returns the number of stored documents
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.backend.Count(ctx)
}

// DeleteAll removes every document and returns how many were removed
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	return s.backend.DeleteAll(ctx)
}

// DeleteByPath removes the documents of one file
func (s *Store) DeleteByPath(ctx context.Context, path string) (int64, error) {
	return s.backend.DeleteByPath(ctx, path)
}

// Ready reports whether the backend answers
func (s *Store) Ready(ctx context.Context) bool {
	return s.backend.Ping(ctx) == nil
}

// Collection returns the backend collection name
func (s *Store) Collection() string {
	return s.backend.Collection()
}

// Backend returns the backend name
func (s *Store) Backend() string {
	return s.backend.Backend()
}

// Embedder returns the embedding service
func (s *Store) Embedder() embedder.Embedder {
	return s.embedder
}

// CacheStats reports embedding cache usage
func (s *Store) CacheStats() embedder.CacheStats {
	return s.cache.Stats()
}

// Close releases the backend and the embedder
func (s *Store) Close() error {
	return errors.Join(s.backend.Close(), s.embedder.Close())
}
