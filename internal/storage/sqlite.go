package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SQLiteStore implements VectorStore on a single SQLite database file.
// Several collections can share one file; every row is scoped by collection.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; one connection also keeps
	// a :memory: database alive for the lifetime of the pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// migrates it. Use ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath, collection string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if collection == "" {
		collection = DefaultCollection
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, collection: collection}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Collection returns the collection name
func (s *SQLiteStore) Collection() string {
	return s.collection
}

// Backend returns the backend name
func (s *SQLiteStore) Backend() string {
	return BackendSQLite
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureCollection registers the collection with the given dimension.
// An existing collection with a different dimension is an error; clear it first.
func (s *SQLiteStore) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidRecord, dimension)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimension) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		s.collection, dimension)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	existing, err := collectionDimension(ctx, s.db, s.collection)
	if err != nil {
		return err
	}
	if existing != dimension {
		return fmt.Errorf("%w: collection %s has dimension %d, embedder produces %d",
			ErrDimensionMismatch, s.collection, existing, dimension)
	}
	return nil
}

// collectionDimension returns the registered dimension, or ErrNotFound
func collectionDimension(ctx context.Context, q querier, collection string) (int, error) {
	var dimension int
	err := q.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, collection).Scan(&dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	return dimension, nil
}

// Upsert writes records in a single transaction, replacing rows with the same id
func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dimension, err := collectionDimension(ctx, s.db, s.collection)
	if errors.Is(err, ErrNotFound) {
		if err := s.EnsureCollection(ctx, len(records[0].Vector)); err != nil {
			return err
		}
		dimension = len(records[0].Vector)
	} else if err != nil {
		return err
	}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		if len(r.Vector) != dimension {
			return fmt.Errorf("%w: record %s has %d, collection expects %d",
				ErrDimensionMismatch, r.ID, len(r.Vector), dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, file_path, content, metadata, vector, dimension, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			file_path = excluded.file_path,
			content = excluded.content,
			metadata = excluded.metadata,
			vector = excluded.vector,
			dimension = excluded.dimension,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, s.collection, r.ID, r.Path, r.Content, string(r.Metadata),
			serializeVector(r.Vector), len(r.Vector))
		if err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// Query returns the k nearest documents by cosine distance
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 || len(vector) == 0 {
		return []Hit{}, nil
	}
	return searchVector(ctx, s.db, s.collection, vector, k)
}

// Count returns the number of documents in the collection
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	return countDocuments(ctx, s.db, s.collection)
}

func countDocuments(ctx context.Context, q querier, collection string) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// DeleteAll removes every document and forgets the collection dimension,
// so the next upsert may use a different embedding model.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		return 0, fmt.Errorf("failed to drop collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByPath removes all documents that came from one file
func (s *SQLiteStore) DeleteByPath(ctx context.Context, path string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND file_path = ?`, s.collection, path)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents for %s: %w", path, err)
	}
	return res.RowsAffected()
}
