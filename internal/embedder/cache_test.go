package embedder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, policy string, size int) *Cache {
	t.Helper()
	c, err := NewCache(CacheConfig{Policy: policy, Size: size, TTL: time.Minute})
	require.NoError(t, err)
	return c
}

func fakeVector(text string) []float32 {
	return []float32{float32(len(text)), 1, 2}
}

func TestNewCache_Policies(t *testing.T) {
	for _, policy := range []string{"", PolicyLRU, PolicyExpirable, PolicyUnbounded} {
		c, err := NewCache(CacheConfig{Policy: policy})
		require.NoError(t, err, policy)
		assert.Equal(t, 0, c.Size())
	}

	_, err := NewCache(CacheConfig{Policy: "fifo"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCache_GetOrCompute(t *testing.T) {
	for _, policy := range []string{PolicyLRU, PolicyExpirable, PolicyUnbounded} {
		t.Run(policy, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCache(t, policy, 100)

			calls := 0
			compute := func(_ context.Context, text string) ([]float32, error) {
				calls++
				return fakeVector(text), nil
			}

			first, err := c.GetOrCompute(ctx, "func a() {}", compute)
			require.NoError(t, err)
			second, err := c.GetOrCompute(ctx, "func a() {}", compute)
			require.NoError(t, err)

			assert.Equal(t, 1, calls)
			assert.Equal(t, first, second, "cached vector is bit-identical")

			stats := c.Stats()
			assert.Equal(t, policy, stats.Policy)
			assert.Equal(t, 1, stats.Size)
			assert.Equal(t, uint64(1), stats.Hits)
			assert.Equal(t, uint64(1), stats.Misses)
		})
	}
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := newTestCache(t, PolicyLRU, 10)
	c.Set("h", []float32{1, 2, 3})

	v, ok := c.Get("h")
	require.True(t, ok)
	v[0] = 99

	again, ok := c.Get("h")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])
}

func TestCache_ComputeErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, PolicyLRU, 10)
	boom := errors.New("boom")

	_, err := c.GetOrCompute(ctx, "text", func(context.Context, string) ([]float32, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Size())

	_, err = c.GetOrCompute(ctx, "", nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestCache_GetOrComputeBatch(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, PolicyLRU, 100)

	_, err := c.GetOrCompute(ctx, "cached", func(_ context.Context, text string) ([]float32, error) {
		return fakeVector(text), nil
	})
	require.NoError(t, err)

	var batches [][]string
	compute := func(_ context.Context, texts []string) ([][]float32, error) {
		batches = append(batches, texts)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = fakeVector(text)
		}
		return out, nil
	}

	texts := []string{"alpha", "cached", "beta", "alpha"}
	vecs, err := c.GetOrComputeBatch(ctx, texts, compute)
	require.NoError(t, err)

	require.Len(t, batches, 1, "misses go out in one call")
	assert.Equal(t, []string{"alpha", "beta"}, batches[0], "duplicates are computed once")
	require.Len(t, vecs, 4)
	for i, text := range texts {
		assert.Equal(t, fakeVector(text), vecs[i])
	}

	// everything cached now
	_, err = c.GetOrComputeBatch(ctx, texts, compute)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestCache_GetOrComputeBatch_Errors(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, PolicyLRU, 100)

	_, err := c.GetOrComputeBatch(ctx, []string{"a", ""}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.GetOrComputeBatch(ctx, []string{"a", "b"}, func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestCache_LRUEviction(t *testing.T) {
	c := newTestCache(t, PolicyLRU, 3)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("h%d", i), []float32{float32(i)})
	}
	assert.Equal(t, 3, c.Size())

	_, ok := c.Get("h0")
	assert.False(t, ok)
	_, ok = c.Get("h4")
	assert.True(t, ok)
}

func TestCache_UnboundedKeepsEverything(t *testing.T) {
	c := newTestCache(t, PolicyUnbounded, 3)
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("h%d", i), []float32{float32(i)})
	}
	assert.Equal(t, 50, c.Size())
}

func TestCache_ExpirableTTL(t *testing.T) {
	c, err := NewCache(CacheConfig{Policy: PolicyExpirable, Size: 10, TTL: 20 * time.Millisecond})
	require.NoError(t, err)

	c.Set("h", []float32{1})
	_, ok := c.Get("h")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get("h")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, PolicyLRU, 10)

	_, err := c.GetOrCompute(ctx, "x", func(_ context.Context, text string) ([]float32, error) {
		return fakeVector(text), nil
	})
	require.NoError(t, err)

	c.Clear()
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
}

func BenchmarkCacheGetOrCompute(b *testing.B) {
	c, err := NewCache(CacheConfig{Policy: PolicyLRU, Size: 10000})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	compute := func(_ context.Context, text string) ([]float32, error) {
		return make([]float32, 1024), nil
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.GetOrCompute(ctx, fmt.Sprintf("chunk-%d", i%1000), compute)
	}
}
