package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// LocalProvider produces deterministic embeddings without any network access.
// Text is split into lowercase word tokens (camelCase and snake_case are split
// too) and each token plus each adjacent token pair is hashed into one of
// LocalDimension buckets with a hash-derived sign. The result is L2-normalized,
// so texts sharing vocabulary land close together under cosine distance.
type LocalProvider struct {
	model     string
	dimension int
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: LocalDimension,
	}
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Embedding{
		Vector:    l.vectorize(req.Text),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     l.model,
	}, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) vectorize(text string) []float32 {
	vector := make([]float32, l.dimension)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		// punctuation-only text still gets a stable, non-zero vector
		l.addFeature(vector, text, 1)
		return NormalizeVector(vector)
	}

	for i, tok := range tokens {
		l.addFeature(vector, tok, 1)
		if i > 0 {
			l.addFeature(vector, tokens[i-1]+" "+tok, 0.5)
		}
	}

	return NormalizeVector(vector)
}

func (l *LocalProvider) addFeature(vector []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(l.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vector[idx] += weight
}

// tokenize splits text into lowercase words, breaking on non-alphanumerics
// and on lower-to-upper case transitions
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	var prev rune

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && unicode.IsLower(prev) {
				flush()
			}
			cur.WriteRune(r)
		default:
			flush()
		}
		prev = r
	}
	flush()

	return tokens
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
