package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/importjs-go/importjs/pkg/editor"
)

// operationResult is the JSON shape every tool handler returns: the
// buffer's content after the operation ran, any editor-visible messages,
// the resulting cursor position, and (for goto_module) the file the
// editor should open.
type operationResult struct {
	Content    string   `json:"content"`
	Messages   []string `json:"messages"`
	Row        int      `json:"row"`
	Col        int      `json:"col"`
	OpenedPath string   `json:"opened_path,omitempty"`
}

func (s *Server) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	buf := editor.NewBuffer(filePath, content)
	buf.Word = word
	buf.Row = int(req.GetFloat("row", 1))
	buf.Col = int(req.GetFloat("col", 0))

	if err := s.importer.Import(buf); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	return toolResult(buf, "")
}

func (s *Server) handleGoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	buf := editor.NewBuffer(filePath, content)
	buf.Word = word

	if err := s.importer.Goto(buf); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("goto failed: %v", err)), nil
	}

	opened := ""
	if len(buf.OpenedPaths) > 0 {
		opened = buf.OpenedPaths[len(buf.OpenedPaths)-1]
	}
	return toolResult(buf, opened)
}

func (s *Server) handleFixImports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	buf := editor.NewBuffer(filePath, content)
	buf.Row = int(req.GetFloat("row", 1))
	buf.Col = int(req.GetFloat("col", 0))

	if err := s.importer.FixImports(buf); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fix_imports failed: %v", err)), nil
	}
	return toolResult(buf, "")
}

func toolResult(buf *editor.Buffer, openedPath string) (*mcp.CallToolResult, error) {
	row, col := buf.Cursor()
	out := operationResult{
		Content:    buf.CurrentFileContent(),
		Messages:   buf.Messages,
		Row:        row,
		Col:        col,
		OpenedPath: openedPath,
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
