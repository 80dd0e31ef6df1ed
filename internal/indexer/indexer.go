package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/codeindex-mcp/internal/assembler"
	"github.com/dshills/codeindex-mcp/internal/chunker"
	"github.com/dshills/codeindex-mcp/internal/logger"
	"github.com/dshills/codeindex-mcp/internal/store"
)

// DefaultMaxFileSize is the largest file indexed by default (1 MiB)
const DefaultMaxFileSize int64 = 1 << 20

// DefaultExcludeDirs are directory names never descended into
var DefaultExcludeDirs = []string{"node_modules", "vendor", "dist", "build", "target", "__pycache__"}

var (
	// ErrInvalidRoot is returned when the root path is missing or not a directory
	ErrInvalidRoot = errors.New("invalid root path")
	// ErrSkipped is returned by IndexFile for files that are not indexed
	ErrSkipped = errors.New("file skipped")
)

// Indexer coordinates the indexing pipeline: discover -> assemble -> store.
// Files are processed one at a time, in walk order.
type Indexer struct {
	assembler   *assembler.Assembler
	store       *store.Store
	excludeDirs map[string]bool
	maxFileSize int64
}

// Config contains configuration for the indexer
type Config struct {
	ExcludeDirs []string // directory names to skip (default: DefaultExcludeDirs)
	MaxFileSize int64    // files larger than this are skipped (default: 1 MiB)
}

// Statistics contains statistics about one indexing run
type Statistics struct {
	RunID            string        `json:"run_id"`
	FilesIndexed     int           `json:"files_indexed"`
	FilesSkipped     int           `json:"files_skipped"`
	FilesFailed      int           `json:"files_failed"`
	DocumentsIndexed int           `json:"documents_indexed"`
	TotalDocuments   int64         `json:"total_documents"`
	Duration         time.Duration `json:"-"`
	ErrorMessages    []string      `json:"errors,omitempty"`
}

// New creates a new Indexer instance
func New(asm *assembler.Assembler, st *store.Store, cfg Config) *Indexer {
	dirs := cfg.ExcludeDirs
	if len(dirs) == 0 {
		dirs = DefaultExcludeDirs
	}
	exclude := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		exclude[d] = true
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	return &Indexer{
		assembler:   asm,
		store:       st,
		excludeDirs: exclude,
		maxFileSize: maxSize,
	}
}

// IndexProject indexes every supported file under rootPath. With force the
// collection is cleared first; otherwise each file's previous documents are
// replaced. Unreadable files are counted as failed and the run continues;
// store or embedding failures abort the run.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, force bool) (*Statistics, error) {
	startTime := time.Now()
	stats := &Statistics{
		RunID:         uuid.NewString(),
		ErrorMessages: make([]string, 0),
	}

	root, err := ValidateRoot(rootPath)
	if err != nil {
		return nil, err
	}
	logger.Info("index run %s: %s (force=%t)", stats.RunID, root, force)

	if force {
		removed, err := idx.store.DeleteAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
		logger.Debug("index run %s: cleared %d documents", stats.RunID, removed)
	}

	files, skipped, err := idx.discoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesSkipped = skipped
	logger.Debug("index run %s: %d files to index, %d skipped", stats.RunID, len(files), skipped)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("index run %s cancelled: %w", stats.RunID, err)
		}
		n, err := idx.IndexFile(ctx, root, path)
		switch {
		case err == nil:
			stats.FilesIndexed++
			stats.DocumentsIndexed += n
		case errors.Is(err, ErrSkipped):
			stats.FilesSkipped++
		case isFileError(err):
			stats.FilesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
			logger.Warn("index run %s: %v", stats.RunID, err)
		default:
			return nil, fmt.Errorf("index run %s: %w", stats.RunID, err)
		}
	}

	total, err := idx.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	stats.TotalDocuments = total
	stats.Duration = time.Since(startTime)

	logger.Info("index run %s: %d files, %d documents in %s (%d skipped, %d failed)",
		stats.RunID, stats.FilesIndexed, stats.DocumentsIndexed, stats.Duration.Round(time.Millisecond),
		stats.FilesSkipped, stats.FilesFailed)
	return stats, nil
}

// fileError marks per-file I/O failures, which do not abort a run
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string { return e.path + ": " + e.err.Error() }
func (e *fileError) Unwrap() error { return e.err }

func isFileError(err error) bool {
	var fe *fileError
	return errors.As(err, &fe)
}

// IndexFile replaces the documents of one file and returns how many were
// written. path may be absolute or relative to root.
func (idx *Indexer) IndexFile(ctx context.Context, root, path string) (int, error) {
	abs, rel, err := resolve(root, path)
	if err != nil {
		return 0, &fileError{path: path, err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return 0, &fileError{path: rel, err: err}
	}
	if reason := idx.skipReason(rel, info); reason != "" {
		logger.Debug("skip %s: %s", rel, reason)
		return 0, fmt.Errorf("%w: %s: %s", ErrSkipped, rel, reason)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return 0, &fileError{path: rel, err: err}
	}

	if _, err := idx.store.DeleteByPath(ctx, rel); err != nil {
		return 0, fmt.Errorf("failed to remove old documents of %s: %w", rel, err)
	}

	docs := idx.assembler.Assemble(rel, string(content))
	if len(docs) == 0 {
		logger.Debug("skip %s: no content", rel)
		return 0, fmt.Errorf("%w: %s: no content", ErrSkipped, rel)
	}

	n, err := idx.store.Upsert(ctx, docs)
	if err != nil {
		return n, fmt.Errorf("failed to store %s: %w", rel, err)
	}
	logger.Debug("indexed %s: %d documents", rel, n)
	return n, nil
}

// RemoveFile deletes the documents of a file that no longer exists
func (idx *Indexer) RemoveFile(ctx context.Context, root, path string) (int64, error) {
	_, rel, err := resolve(root, path)
	if err != nil {
		return 0, err
	}
	n, err := idx.store.DeleteByPath(ctx, rel)
	if err != nil {
		return 0, fmt.Errorf("failed to remove documents of %s: %w", rel, err)
	}
	logger.Debug("removed %s: %d documents", rel, n)
	return n, nil
}

// ShouldSkipDir reports whether a directory is never indexed
func (idx *Indexer) ShouldSkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || idx.excludeDirs[name]
}

// Supported reports whether a file would be considered for indexing
func (idx *Indexer) Supported(path string) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && chunker.IsSupported(path)
}

// skipReason explains why a discovered file is not indexed, or returns ""
func (idx *Indexer) skipReason(rel string, info fs.FileInfo) string {
	switch {
	case info.IsDir():
		return "directory"
	case !idx.Supported(rel):
		return "unsupported file type"
	case info.Size() > idx.maxFileSize:
		return fmt.Sprintf("larger than %d bytes", idx.maxFileSize)
	}
	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if dir != "." && dir != "" && idx.ShouldSkipDir(dir) {
			return "excluded directory " + dir
		}
	}
	return ""
}

// discoverFiles walks root and returns the files to index, in lexical order,
// plus the number of supported files skipped for size
func (idx *Indexer) discoverFiles(root string) ([]string, int, error) {
	var files []string
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("walk %s: %v", path, err)
			return nil
		}

		if d.IsDir() {
			if path != root && idx.ShouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !idx.Supported(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > idx.maxFileSize {
			logger.Debug("skip %s: %d bytes", path, info.Size())
			skipped++
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, skipped, err
}

// ValidateRoot resolves rootPath to an absolute directory
func ValidateRoot(rootPath string) (string, error) {
	if strings.TrimSpace(rootPath) == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidRoot)
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}
	return abs, nil
}

// resolve returns the absolute path and the slash-separated path relative to root
func resolve(root, path string) (string, string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%s is outside %s", path, root)
	}
	return abs, filepath.ToSlash(rel), nil
}
