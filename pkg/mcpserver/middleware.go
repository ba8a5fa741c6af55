package mcpserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/importjs-go/importjs/pkg/mcplog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// slowCallThreshold flags a tool call worth a slog warning on top of its
// normal JSONL entry. import/goto/fix_imports all parse at least one file
// and walk the workspace's resolver cache; past this they're either
// re-parsing something huge or hitting resolver disambiguation prompts.
const slowCallThreshold = 500 * time.Millisecond

// loggingMiddleware records every tool call as a JSONL entry via the
// server's audit logger, and separately warns through slog on calls that
// blow past slowCallThreshold so an operator tailing stderr notices
// without having to go read the audit file. Must not be installed when
// s.logger is nil (the NewServer caller guards this).
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)
			elapsed := time.Since(start)

			rb := mcplog.ResponseBytes(result)
			var errStr *string
			if err != nil {
				msg := err.Error()
				errStr = &msg
			}

			entry := mcplog.LogEntry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    elapsed.Milliseconds(),
				ResponseBytes: rb,
				TokensEst:     rb / 4,
				Error:         errStr,
			}
			if writeErr := s.logger.Write(entry); writeErr != nil {
				slog.Warn("mcp audit log write failed", "tool", req.Params.Name, "error", writeErr)
			}

			if elapsed > slowCallThreshold {
				slog.Warn("slow mcp tool call",
					"tool", req.Params.Name,
					"duration_ms", elapsed.Milliseconds(),
					"file_path", req.GetString("file_path", ""))
			}

			return result, err
		}
	}
}
