// Package storage provides the vector database backends used to persist
// indexed documents and answer nearest-neighbour queries.
//
// Two backends implement VectorStore:
//   - SQLiteStore: a local database file (default ~/.codeindex/index.db)
//   - MilvusStore: an external Milvus server reached over gRPC
//
// Both key documents by id within a named collection, so re-indexing an
// unchanged file overwrites rows instead of adding new ones.
//
// # Database Schema (SQLite)
//
// Tables:
//   - schema_version: applied migrations (semantic versions)
//   - collections: collection name and vector dimension
//   - documents: id, file path, content, metadata JSON and vector blob
//
// Vectors are stored as little-endian float32 blobs.
//
// # Basic Usage
//
//	vs, err := storage.Open(ctx, storage.Options{
//	    Backend:    storage.BackendSQLite,
//	    SQLitePath: "/tmp/index.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vs.Close()
//
//	err = vs.Upsert(ctx, []storage.Record{{ID: "main.go:function:main", Vector: vec}})
//	hits, err := vs.Query(ctx, queryVec, 5)
//	for _, h := range hits {
//	    fmt.Printf("%s: distance %.3f\n", h.ID, h.Distance)
//	}
//
// # Build Tags
//
// The SQLite backend supports two build configurations:
//
// Pure Go build (default, or purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Cosine distance computed in Go
//
//     CGO_ENABLED=0 go build ./...
//
// CGO build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Distance computed in SQL by the sqlite-vec extension
//
//     CGO_ENABLED=1 go build -tags sqlite_vec ./...
package storage
