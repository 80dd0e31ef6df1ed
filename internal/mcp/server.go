package mcp

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/codeindex-mcp/internal/app"
	"github.com/dshills/codeindex-mcp/internal/indexer"
)

// ServerName is the MCP server name
const ServerName = "codeindex-mcp"

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp  *server.MCPServer
	app  *app.App
	lock indexer.IndexLock // held by index_codebase and clear_index
}

// NewServer creates a new MCP server instance over an assembled pipeline
func NewServer(a *app.App, version string) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp: mcpServer,
		app: a,
	}
	s.registerTools()
	return s
}

// Serve speaks MCP over stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen speaks MCP over the given streams
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "[MCP] ", log.LstdFlags))
	return stdio.Listen(ctx, in, out)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchCodebaseTool(), s.handleSearchCodebase)
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(getIndexStatsTool(), s.handleGetIndexStats)
	s.mcp.AddTool(clearIndexTool(), s.handleClearIndex)
}
