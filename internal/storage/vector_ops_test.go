package storage

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3.4028235e38}
	blob := serializeVector(v)
	assert.Len(t, blob, 16)
	assert.Equal(t, v, deserializeVector(blob))
	assert.Empty(t, deserializeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "scaled", a: []float32{1, 2, 3}, b: []float32{2, 4, 6}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSearchVectorFallback_SkipsOtherDimensions(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.Upsert(ctx, []Record{record("a", "a.go", 1, 0)}))

	// a row written under a different dimension is ignored rather than failing
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, file_path, content, metadata, vector, dimension) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		store.collection, "odd", "odd.go", "odd", "{}", serializeVector([]float32{1, 0, 0}), 3)
	require.NoError(t, err)

	hits, err := searchVectorFallback(ctx, store.db, store.collection, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

// TestVectorSearchOptimization verifies that the SQL-side search ranks the
// same documents as the Go fallback
func TestVectorSearchOptimization(t *testing.T) {
	if !VectorExtensionAvailable {
		t.Skip("Skipping test: sqlite-vec extension not available")
	}

	ctx := context.Background()
	store := setupTestStore(t)
	seedVectors(t, store, 200, 64)

	query := randomVector(rand.New(rand.NewSource(7)), 64)
	optimized, err := searchVectorOptimized(ctx, store.db, store.collection, query, 10)
	require.NoError(t, err)
	fallback, err := searchVectorFallback(ctx, store.db, store.collection, query, 10)
	require.NoError(t, err)

	require.Equal(t, len(fallback), len(optimized))
	for i := range fallback {
		assert.InDelta(t, fallback[i].Distance, optimized[i].Distance, 1e-4)
	}
}

func seedVectors(tb testing.TB, store *SQLiteStore, n, dim int) {
	tb.Helper()
	rng := rand.New(rand.NewSource(42))
	records := make([]Record, n)
	for i := range records {
		records[i] = record(fmt.Sprintf("doc-%04d", i), fmt.Sprintf("f%d.go", i%10), randomVector(rng, dim)...)
	}
	require.NoError(tb, store.Upsert(context.Background(), records))
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}

func BenchmarkSearchVector(b *testing.B) {
	store, err := NewSQLiteStore(":memory:", "bench")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	seedVectors(b, store, 1000, 384)
	query := randomVector(rand.New(rand.NewSource(1)), 384)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := searchVector(ctx, store.db, store.collection, query, 10); err != nil {
			b.Fatal(err)
		}
	}
}
