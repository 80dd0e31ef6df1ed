// Package embedder generates vector embeddings for code chunks and caches them
// by content hash.
//
// # Providers
//
// Four providers implement Embedder:
//
//   - jina: Jina AI hosted API, 1024 dimensions
//   - openai: OpenAI hosted API, 1536 dimensions
//   - ollama: a local Ollama server, 768 dimensions for nomic-embed-text
//   - local: deterministic feature hashing, 384 dimensions, no network
//
// Hosted providers are paced with a token-bucket limiter. Failed calls are not
// retried; the error is returned wrapped in ErrProviderFailed.
//
//	emb, err := embedder.New(embedder.Config{Provider: "openai", APIKey: key})
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
//
// # Provider Selection
//
// NewFromEnv and DetectProvider pick a provider from the environment:
//
//  1. CODEINDEX_EMBEDDING_PROVIDER if set
//  2. jina if JINA_API_KEY is set
//  3. openai if OPENAI_API_KEY is set
//  4. ollama if OLLAMA_BASE_URL is set
//  5. local otherwise
//
// # Caching
//
// Cache maps the SHA-256 of a text to its vector. The eviction policy is chosen
// at construction: "lru" (bounded, default), "expirable" (bounded with TTL) or
// "unbounded".
//
//	cache, _ := embedder.NewCache(embedder.CacheConfig{Policy: "lru", Size: 10000})
//	vecs, err := cache.GetOrComputeBatch(ctx, texts, computeMisses)
//
// Only texts not already cached reach computeMisses, and they arrive in one call.
package embedder
