package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codeindex-mcp/internal/searcher"
	"github.com/dshills/codeindex-mcp/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path is not an indexable directory
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeStoreUnavailable   = -32003 // Vector store does not answer
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// maxReportedErrors caps the per-file errors included in an index summary
const maxReportedErrors = 5

// handleSearchCodebase handles the search_codebase tool invocation
func (s *Server) handleSearchCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return toolError(newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)), nil
	}

	query := getStringDefault(args, "query", "")
	if query == "" {
		return toolError(newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})), nil
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return toolError(newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})), nil
	}

	resp, err := s.app.Searcher.Search(ctx, searcher.SearchRequest{Query: query, Limit: limit})
	if err != nil {
		if errors.Is(err, searcher.ErrEmptyQuery) {
			return toolError(newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", nil)), nil
		}
		return toolError(newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})), nil
	}

	return mcp.NewToolResultText(searcher.FormatResults(resp)), nil
}

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return toolError(newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)), nil
	}

	path := getStringDefault(args, "path", "")
	if path == "" {
		return toolError(newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})), nil
	}

	if err := validatePath(path); err != nil {
		return toolError(newMCPError(ErrorCodeProjectNotFound, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})), nil
	}

	force := getBoolDefault(args, "force", false)

	if !s.lock.TryAcquire() {
		return toolError(newMCPError(ErrorCodeIndexingInProgress, "another indexing operation is already running", nil)), nil
	}
	defer s.lock.Release()

	stats, err := s.app.Indexer.IndexProject(ctx, path, force)
	if err != nil {
		return toolError(newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})), nil
	}

	response := map[string]interface{}{
		"indexed":           true,
		"run_id":            stats.RunID,
		"path":              path,
		"force":             force,
		"files_indexed":     stats.FilesIndexed,
		"files_skipped":     stats.FilesSkipped,
		"files_failed":      stats.FilesFailed,
		"documents_indexed": stats.DocumentsIndexed,
		"total_documents":   stats.TotalDocuments,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if errorCount := len(stats.ErrorMessages); errorCount > 0 {
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetIndexStats handles the get_index_stats tool invocation
func (s *Server) handleGetIndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.app.Store
	ready := st.Ready(ctx)

	var count int64
	if ready {
		n, err := st.Count(ctx)
		if err != nil {
			return toolError(newMCPError(ErrorCodeInternalError, "failed to count documents", map[string]interface{}{
				"error": err.Error(),
			})), nil
		}
		count = n
	}

	emb := st.Embedder()
	response := map[string]interface{}{
		"total_documents": count,
		"collection":      st.Collection(),
		"backend":         st.Backend(),
		"ready":           ready,
		"indexing":        s.lock.Locked(),
		"embedding": map[string]interface{}{
			"provider":  emb.Provider(),
			"model":     emb.Model(),
			"dimension": emb.Dimension(),
		},
		"cache": st.CacheStats(),
	}
	if st.Backend() == storage.BackendSQLite {
		response["sqlite"] = map[string]interface{}{
			"driver":           storage.DriverName,
			"build_mode":       storage.BuildMode,
			"vector_extension": storage.VectorExtensionAvailable,
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearIndex handles the clear_index tool invocation
func (s *Server) handleClearIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	if !getBoolDefault(args, "confirm", false) {
		return mcp.NewToolResultText("Clear cancelled: set confirm to true to delete every indexed document."), nil
	}

	if !s.lock.TryAcquire() {
		return toolError(newMCPError(ErrorCodeIndexingInProgress, "cannot clear while indexing is running", nil)), nil
	}
	defer s.lock.Release()

	removed, err := s.app.Store.DeleteAll(ctx)
	if err != nil {
		return toolError(newMCPError(ErrorCodeStoreUnavailable, "failed to clear index", map[string]interface{}{
			"error": err.Error(),
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"cleared":           true,
		"collection":        s.app.Store.Collection(),
		"documents_removed": removed,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP tool error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// toolError renders an error as a tool result with IsError set, so the
// calling model sees the message instead of a protocol fault
func toolError(e *MCPError) *mcp.CallToolResult {
	text := e.Error()
	if e.Data != nil {
		if data, err := json.Marshal(e.Data); err == nil {
			text += " " + string(data)
		}
	}
	return mcp.NewToolResultError(text)
}

// validatePath checks if a path is an absolute, readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
