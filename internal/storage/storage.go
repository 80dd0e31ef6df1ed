package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch is returned when a vector does not match the collection dimension
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidRecord is returned for records missing an id or vector
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownBackend is returned by Open for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendMilvus = "milvus"
)

// DefaultCollection is the collection used when none is configured
const DefaultCollection = "codeindex"

// VectorStore is the vector database contract used by the store adapter.
// Implementations persist records keyed by id and answer k-nearest-neighbour
// queries by cosine distance.
type VectorStore interface {
	// EnsureCollection creates the collection for vectors of the given
	// dimension if it does not exist yet.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or replaces records by id.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to k hits ordered by ascending cosine distance.
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)

	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByPath(ctx context.Context, path string) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Collection() string
	Backend() string
	Close() error
}

// Record is one stored document: id, text, serialized metadata and vector.
type Record struct {
	ID       string
	Content  string
	Path     string
	Metadata []byte
	Vector   []float32
}

// Validate checks that a record can be written
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s", ErrInvalidRecord, r.ID)
	}
	return nil
}

// Hit is a single nearest-neighbour result.
type Hit struct {
	ID       string
	Content  string
	Metadata []byte
	Distance float64
}

// Options configures Open
type Options struct {
	Backend       string
	Collection    string
	SQLitePath    string
	MilvusAddress string
}

// Open creates the backend named in opts
func Open(ctx context.Context, opts Options) (VectorStore, error) {
	collection := opts.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	switch opts.Backend {
	case "", BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath, collection)
	case BackendMilvus:
		return NewMilvusStore(ctx, opts.MilvusAddress, collection)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
}
