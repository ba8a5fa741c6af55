package parser

import (
	"path/filepath"
	"strings"
)

// Language is the tree-sitter grammar a source file should be parsed with.
// ImportJS only ever needs the two ECMAScript-family grammars: every other
// extension is a workspace file pkg/workspace/pkg/exportindex skip over
// without indexing.
type Language int

const (
	LanguageTypeScript Language = iota
	LanguageJavaScript
	// LanguageUnknown marks a file extension the export indexer won't touch.
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage maps a file path's extension to the grammar that should
// parse it, by extension alone. Non-source files reach this as
// LanguageUnknown and are skipped by the caller (pkg/workspace's scan,
// pkg/exportindex.IndexFile).
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile reports whether filePath needs the TypeScript grammar's JSX
// variant rather than plain TypeScript.
func IsTSXFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".tsx")
}

// IsJSXFile reports whether filePath is JavaScript-with-JSX. The JavaScript
// grammar parses JSX unconditionally, so this exists only for callers that
// want to report the distinction (e.g. diagnostics), not to select a pool.
func IsJSXFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".jsx")
}
