package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codeindex-mcp/internal/searcher"
)

// Tool names
const (
	ToolSearchCodebase = "search_codebase"
	ToolIndexCodebase  = "index_codebase"
	ToolGetIndexStats  = "get_index_stats"
	ToolClearIndex     = "clear_index"
)

// searchCodebaseTool returns the tool definition for search_codebase
func searchCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolSearchCodebase,
		Description: "Search the indexed codebase with a natural language query and return the most similar code, comments and documentation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to look for, in natural language or code terms",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-20)",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolIndexCodebase,
		Description: "Index a source tree so it can be searched. Re-indexing replaces the documents of every file found.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, clear the whole index before indexing",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getIndexStatsTool returns the tool definition for get_index_stats
func getIndexStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetIndexStats,
		Description: "Report the number of indexed documents, the vector store and the embedding provider in use",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearIndexTool returns the tool definition for clear_index
func clearIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolClearIndex,
		Description: "Delete every indexed document. Requires confirm=true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true to actually clear the index",
				},
			},
			Required: []string{"confirm"},
		},
	}
}
