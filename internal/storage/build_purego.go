//go:build purego || !sqlite_vec

package storage

// Default build: pure Go SQLite, no C compiler required. Cosine distance is
// computed in Go over the stored vectors.
//
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
