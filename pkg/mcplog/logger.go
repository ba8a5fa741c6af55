// Package mcplog writes one JSONL line per ImportJS tool call (import,
// goto_module, fix_imports) to an append-only audit file, so a session
// can be replayed or measured after the fact without instrumenting the
// editor side of the MCP connection.
package mcplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxInlineParamBytes is the longest a string argument is allowed to
// appear verbatim in the log. import/goto/fix_imports all take a
// "content" argument holding the whole buffer being edited; logging that
// in full would make the audit file roughly as large as the edited
// workspace itself.
const maxInlineParamBytes = 64

// LogEntry is one JSONL record.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	Error         *string        `json:"error"`
}

// Logger appends LogEntry records to a file. Safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewLogger opens path for append, creating parent directories as
// needed. A nil *Logger with a nil error is returned for an empty path —
// callers (pkg/mcpserver) treat that as "audit logging disabled" rather
// than special-casing it themselves.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends entry as one JSONL line. The middleware that calls this
// ignores the returned error deliberately: a failed audit write must
// never fail the tool call it's describing.
func (l *Logger) Write(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// SanitizeParams copies args, replacing any string longer than
// maxInlineParamBytes with a "{key}_len" integer so a full file's worth
// of content never lands in the audit log.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxInlineParamBytes {
			out[k+"_len"] = len(s)
			continue
		}
		out[k] = v
	}
	return out
}

// ResponseBytes returns the JSON-serialized size of result's content, or
// 0 if result is nil or marshaling fails.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is time.Now, overridable in tests.
var Now = time.Now
