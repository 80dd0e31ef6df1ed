// Package logger provides levelled logging to stderr. Stdout is reserved for
// the MCP stdio channel, so nothing here ever writes to it. Debug output is
// only printed when verbose mode is enabled.
package logger

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	std     = log.New(os.Stderr, "", log.LstdFlags)
)

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// SetFlags sets the log.Logger flags, e.g. 0 to drop timestamps in tests.
func SetFlags(flags int) {
	mu.Lock()
	defer mu.Unlock()
	std.SetFlags(flags)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		std.Printf("[DEBUG] "+format, args...)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	printf("[INFO] ", format, args...)
}

// Warn prints a warning.
func Warn(format string, args ...any) {
	printf("[WARN] ", format, args...)
}

// Error prints an error.
func Error(format string, args ...any) {
	printf("[ERROR] ", format, args...)
}

func printf(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	std.Printf(level+format, args...)
}
