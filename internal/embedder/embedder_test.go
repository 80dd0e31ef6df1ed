package embedder

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	tests := []struct {
		name  string
		text1 string
		text2 string
		same  bool
	}{
		{name: "identical text", text1: "func main() {}", text2: "func main() {}", same: true},
		{name: "different text", text1: "func main() {}", text2: "func Main() {}", same: false},
		{name: "whitespace matters", text1: "a b", text2: "a  b", same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := ComputeHash(tt.text1)
			h2 := ComputeHash(tt.text2)
			assert.Len(t, h1, 64)
			if tt.same {
				assert.Equal(t, h1, h2)
			} else {
				assert.NotEqual(t, h1, h2)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateRequest(EmbeddingRequest{}), ErrEmptyText)
	assert.NoError(t, ValidateRequest(EmbeddingRequest{Text: "x"}))
}

func TestValidateBatchRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     BatchEmbeddingRequest
		wantErr error
	}{
		{name: "valid", req: BatchEmbeddingRequest{Texts: []string{"a", "b"}}},
		{name: "empty batch", req: BatchEmbeddingRequest{}, wantErr: ErrInvalidInput},
		{name: "empty text", req: BatchEmbeddingRequest{Texts: []string{"a", ""}}, wantErr: ErrInvalidInput},
		{name: "too large", req: BatchEmbeddingRequest{Texts: make([]string, MaxBatchSize+1)}, wantErr: ErrBatchTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchRequest(tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider()

	assert.Equal(t, ProviderLocal, p.Provider())
	assert.Equal(t, LocalDimension, p.Dimension())
	assert.Equal(t, DefaultLocalModel, p.Model())
	assert.NoError(t, p.Close())

	t.Run("deterministic and normalized", func(t *testing.T) {
		a, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "func parseConfig(path string) error"})
		require.NoError(t, err)
		b, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "func parseConfig(path string) error"})
		require.NoError(t, err)

		assert.Equal(t, a.Vector, b.Vector)
		assert.Len(t, a.Vector, LocalDimension)
		assert.InDelta(t, 1.0, cosine(a.Vector, a.Vector), 1e-5)
	})

	t.Run("shared vocabulary is closer", func(t *testing.T) {
		query, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "parse config file"})
		require.NoError(t, err)
		related, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "func ParseConfigFile(path string) (*Config, error)"})
		require.NoError(t, err)
		unrelated, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "render the sprite atlas to the framebuffer"})
		require.NoError(t, err)

		assert.Greater(t, cosine(query.Vector, related.Vector), cosine(query.Vector, unrelated.Vector))
	})

	t.Run("punctuation only", func(t *testing.T) {
		emb, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "{}();"})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, cosine(emb.Vector, emb.Vector), 1e-5)
	})

	t.Run("batch keeps order", func(t *testing.T) {
		resp, err := p.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"alpha", "beta"}})
		require.NoError(t, err)
		require.Len(t, resp.Embeddings, 2)

		alpha, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "alpha"})
		require.NoError(t, err)
		assert.Equal(t, alpha.Vector, resp.Embeddings[0].Vector)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.GenerateEmbedding(cctx, EmbeddingRequest{Text: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"parse", "config", "file", "v2"}, tokenize("parseConfig_file v2"))
	assert.Equal(t, []string{"http", "server"}, tokenize("HTTP.Server"))
	assert.Empty(t, tokenize(strings.Repeat("-", 10)))
}
