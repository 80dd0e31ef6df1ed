// Package watcher keeps an index current by re-indexing files as they change
// on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/codeindex-mcp/internal/indexer"
	"github.com/dshills/codeindex-mcp/internal/logger"
)

// Handler applies file changes to the index. *indexer.Indexer implements it.
type Handler interface {
	IndexFile(ctx context.Context, root, path string) (int, error)
	RemoveFile(ctx context.Context, root, path string) (int64, error)
	ShouldSkipDir(name string) bool
	Supported(path string) bool
}

var _ Handler = (*indexer.Indexer)(nil)

// Action is what the watcher does in response to one event
type Action int

const (
	ActionNone Action = iota
	ActionIndex
	ActionRemove
	ActionAddDir
)

func (a Action) String() string {
	switch a {
	case ActionIndex:
		return "index"
	case ActionRemove:
		return "remove"
	case ActionAddDir:
		return "add-dir"
	default:
		return "none"
	}
}

// Watcher watches a directory tree and forwards changes to a Handler
type Watcher struct {
	root    string
	handler Handler
	fsw     *fsnotify.Watcher
}

// New creates a watcher for root. Call Run to start watching.
func New(root string, h Handler) (*Watcher, error) {
	abs, err := indexer.ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{root: abs, handler: h, fsw: fsw}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. Failures to index a single
// file are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()
	logger.Info("watching %s for changes", w.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// Root returns the absolute watched directory
func (w *Watcher) Root() string {
	return w.root
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	action := w.classify(ev)
	if action == ActionNone {
		return
	}
	logger.Debug("%s: %s", action, ev.Name)

	switch action {
	case ActionIndex:
		w.indexFile(ctx, ev.Name)
	case ActionRemove:
		if _, err := w.handler.RemoveFile(ctx, w.root, ev.Name); err != nil {
			logger.Error("remove %s: %v", ev.Name, err)
		}
	case ActionAddDir:
		if err := w.addTree(ev.Name); err != nil {
			logger.Warn("%v", err)
		}
		// files may land in a new directory before it is watched
		w.indexTree(ctx, ev.Name)
	}
}

func (w *Watcher) indexFile(ctx context.Context, path string) {
	n, err := w.handler.IndexFile(ctx, w.root, path)
	switch {
	case err == nil:
		logger.Info("re-indexed %s (%d documents)", w.rel(path), n)
	case errors.Is(err, indexer.ErrSkipped):
		logger.Debug("%v", err)
	case errors.Is(err, fs.ErrNotExist):
		// removed again before we got to it
	default:
		logger.Error("index %s: %v", w.rel(path), err)
	}
}

// classify maps an event to an action. Chmod-only events, hidden paths and
// unsupported files are ignored.
func (w *Watcher) classify(ev fsnotify.Event) Action {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return ActionNone
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if w.handler.Supported(ev.Name) {
			return ActionRemove
		}
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return ActionNone
		}
		if info.IsDir() {
			if w.handler.ShouldSkipDir(name) {
				return ActionNone
			}
			return ActionAddDir
		}
		if w.handler.Supported(ev.Name) {
			return ActionIndex
		}
	case ev.Has(fsnotify.Write):
		if w.handler.Supported(ev.Name) {
			return ActionIndex
		}
	}
	return ActionNone
}

// addTree watches dir and every non-excluded directory below it
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.handler.ShouldSkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) indexTree(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.handler.ShouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.handler.Supported(path) {
			w.indexFile(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	if rel, err := filepath.Rel(w.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
