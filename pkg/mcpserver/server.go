// Package mcpserver exposes the three editor-facing operations in
// pkg/importer as MCP tools, so an agent (or any MCP client acting as
// the editor contract's caller) can import, goto, and fix_imports
// without a live editor plugin.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/importjs-go/importjs/pkg/importer"
	"github.com/importjs-go/importjs/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for ImportJS.
type Server struct {
	mcpServer *server.MCPServer
	importer  *importer.Importer
	logger    *mcplog.Logger // may be nil, in which case call logging is skipped
}

// NewServer creates an MCP server backed by im. logger may be nil to
// disable the per-call JSONL audit trail.
func NewServer(im *importer.Importer, logger *mcplog.Logger) *Server {
	s := &Server{importer: im, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("importjs", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: importTool(), Handler: s.handleImport},
		server.ServerTool{Tool: gotoTool(), Handler: s.handleGoto},
		server.ServerTool{Tool: fixImportsTool(), Handler: s.handleFixImports},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
