//go:build sqlite_vec && !purego

package storage

// Compiled with CGO and the sqlite_vec tag. The mattn driver is expected to
// be linked against a SQLite carrying the sqlite-vec extension, so cosine
// distance is computed in SQL with vec_distance_cosine.
//
//   CGO_ENABLED=1 go build -tags sqlite_vec ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = true

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
