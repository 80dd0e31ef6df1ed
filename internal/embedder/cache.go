package embedder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache eviction policies
const (
	PolicyLRU       = "lru"
	PolicyExpirable = "expirable"
	PolicyUnbounded = "unbounded"

	DefaultCacheSize = 10000
)

// ComputeFunc produces the embedding for a single text
type ComputeFunc func(ctx context.Context, text string) ([]float32, error)

// BatchComputeFunc produces embeddings for texts, in order
type BatchComputeFunc func(ctx context.Context, texts []string) ([][]float32, error)

// CacheConfig selects the eviction policy
type CacheConfig struct {
	Policy string
	Size   int           // max entries for lru and expirable
	TTL    time.Duration // entry lifetime for expirable
}

// CacheStats reports cache usage
type CacheStats struct {
	Policy string `json:"policy"`
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// vectorStore is the eviction backend behind Cache
type vectorStore interface {
	Get(key string) ([]float32, bool)
	Add(key string, v []float32)
	Len() int
	Purge()
}

// Cache maps SHA-256 content hashes to embedding vectors. Vectors are copied
// on the way in and out so callers cannot mutate cached values.
type Cache struct {
	policy string
	store  vectorStore
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates an embedding cache with the configured eviction policy
func NewCache(cfg CacheConfig) (*Cache, error) {
	size := cfg.Size
	if size <= 0 {
		size = DefaultCacheSize
	}

	policy := cfg.Policy
	if policy == "" {
		policy = PolicyLRU
	}

	var store vectorStore
	switch policy {
	case PolicyLRU:
		c, err := lru.New[string, []float32](size)
		if err != nil {
			return nil, fmt.Errorf("create lru cache: %w", err)
		}
		store = lruStore{c}
	case PolicyExpirable:
		ttl := cfg.TTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		store = expirableStore{expirable.NewLRU[string, []float32](size, nil, ttl)}
	case PolicyUnbounded:
		store = &mapStore{m: make(map[string][]float32)}
	default:
		return nil, fmt.Errorf("%w: unknown cache policy %q", ErrInvalidInput, cfg.Policy)
	}

	return &Cache{policy: policy, store: store}, nil
}

// Get retrieves a copy of the vector cached under hash
func (c *Cache) Get(hash string) ([]float32, bool) {
	v, ok := c.store.Get(hash)
	if !ok {
		return nil, false
	}
	return copyVector(v), true
}

// Set stores a copy of vector under hash
func (c *Cache) Set(hash string, vector []float32) {
	c.store.Add(hash, copyVector(vector))
}

// GetOrCompute returns the cached vector for text, or computes, stores and
// returns it on a miss
func (c *Cache) GetOrCompute(ctx context.Context, text string, compute ComputeFunc) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if v, ok := c.Get(hash); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	v, err := compute(ctx, text)
	if err != nil {
		return nil, err
	}

	c.Set(hash, v)
	return copyVector(v), nil
}

// GetOrComputeBatch resolves texts cache-first. All misses, deduplicated,
// go to compute in a single call. Results are returned in input order.
func (c *Cache) GetOrComputeBatch(ctx context.Context, texts []string, compute BatchComputeFunc) ([][]float32, error) {
	out := make([][]float32, len(texts))
	hashes := make([]string, len(texts))

	var missTexts []string
	missIndex := make(map[string]int) // hash -> index into missTexts

	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}

		hash := ComputeHash(text)
		hashes[i] = hash

		if v, ok := c.Get(hash); ok {
			c.hits.Add(1)
			out[i] = v
			continue
		}

		c.misses.Add(1)
		if _, queued := missIndex[hash]; !queued {
			missIndex[hash] = len(missTexts)
			missTexts = append(missTexts, text)
		}
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	computed, err := compute(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(computed), len(missTexts))
	}

	for hash, idx := range missIndex {
		c.Set(hash, computed[idx])
	}

	for i := range texts {
		if out[i] == nil {
			out[i] = copyVector(computed[missIndex[hashes[i]]])
		}
	}

	return out, nil
}

// Size returns the current number of cached vectors
func (c *Cache) Size() int {
	return c.store.Len()
}

// Clear empties the cache and resets its counters
func (c *Cache) Clear() {
	c.store.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns a snapshot of cache usage
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Policy: c.policy,
		Size:   c.store.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

type lruStore struct {
	c *lru.Cache[string, []float32]
}

func (s lruStore) Get(key string) ([]float32, bool) { return s.c.Get(key) }
func (s lruStore) Add(key string, v []float32)      { s.c.Add(key, v) }
func (s lruStore) Len() int                         { return s.c.Len() }
func (s lruStore) Purge()                           { s.c.Purge() }

type expirableStore struct {
	c *expirable.LRU[string, []float32]
}

func (s expirableStore) Get(key string) ([]float32, bool) { return s.c.Get(key) }
func (s expirableStore) Add(key string, v []float32)      { s.c.Add(key, v) }
func (s expirableStore) Len() int                         { return s.c.Len() }
func (s expirableStore) Purge()                           { s.c.Purge() }

// mapStore never evicts
type mapStore struct {
	mu sync.RWMutex
	m  map[string][]float32
}

func (s *mapStore) Get(key string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *mapStore) Add(key string, v []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = v
}

func (s *mapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *mapStore) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string][]float32)
}
