package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// searchVector performs k-NN search by cosine distance within a collection
func searchVector(ctx context.Context, db *sql.DB, collection string, queryVector []float32, limit int) ([]Hit, error) {
	// Use SQL-side distance when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, collection, queryVector, limit)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, db, collection, queryVector, limit)
}

// searchVectorOptimized uses the sqlite-vec extension to rank in SQL
func searchVectorOptimized(ctx context.Context, db *sql.DB, collection string, queryVector []float32, limit int) ([]Hit, error) {
	query := `
		SELECT id, content, metadata, vec_distance_cosine(vector, ?) AS distance
		FROM documents
		WHERE collection = ? AND dimension = ?
		ORDER BY distance ASC, id ASC
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, serializeVector(queryVector), collection, len(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var h Hit
		var metadata string
		if err := rows.Scan(&h.ID, &h.Content, &metadata, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		h.Metadata = []byte(metadata)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// searchVectorFallback loads the collection's vectors and ranks them in Go
func searchVectorFallback(ctx context.Context, db *sql.DB, collection string, queryVector []float32, limit int) ([]Hit, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, content, metadata, vector FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := computeDistances(rows, queryVector)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

// computeDistances scans rows and computes the cosine distance of each vector
func computeDistances(rows *sql.Rows, queryVector []float32) ([]Hit, error) {
	candidates := make([]Hit, 0, 256)

	for rows.Next() {
		var h Hit
		var metadata string
		var blob []byte
		if err := rows.Scan(&h.ID, &h.Content, &metadata, &blob); err != nil {
			return nil, err
		}

		vector := deserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		h.Metadata = []byte(metadata)
		h.Distance = 1 - cosineSimilarity(queryVector, vector)
		candidates = append(candidates, h)
	}

	return candidates, rows.Err()
}

// sortCandidates orders by ascending distance; ties break on id so results are stable
func sortCandidates(candidates []Hit) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Zero vectors have similarity 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
