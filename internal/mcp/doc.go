// Package mcp implements the Model Context Protocol (MCP) server for codeindex.
//
// The MCP server exposes four tools to AI coding assistants:
//   - search_codebase: Search indexed code with natural language queries
//   - index_codebase: Index a source tree for semantic search
//   - get_index_stats: Report document count, store and embedding provider
//   - clear_index: Delete every indexed document
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages only; all logging goes to stderr.
//
// # Tool: search_codebase
//
//	Request:
//	{
//	  "name": "search_codebase",
//	  "arguments": {"query": "open a database connection", "limit": 5}
//	}
//
// The response is ranked plain text, one entry per result with its file,
// line range, score and content. An empty index yields
// `No results found for query: "..."`.
//
// # Tool: index_codebase
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {"path": "/path/to/project", "force": false}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "run_id": "6f1c...",
//	  "files_indexed": 247,
//	  "files_skipped": 12,
//	  "files_failed": 0,
//	  "documents_indexed": 1830,
//	  "total_documents": 1830,
//	  "duration_ms": 35210
//	}
//
// Only one index_codebase (or clear_index) runs at a time; a second call is
// rejected rather than queued.
//
// # Tool: clear_index
//
// Requires {"confirm": true}. Without it the index is left untouched and a
// cancellation message is returned.
//
// # Errors
//
// Handlers never return protocol errors. Invalid parameters and failures are
// rendered as tool results with IsError set, carrying an MCPError code:
//
//	-32602  invalid parameters
//	-32603  internal error (indexing or search failed)
//	-32001  path is not an indexable directory
//	-32002  indexing already in progress
//	-32003  vector store unavailable
//	-32004  empty query
package mcp
