// Package exportindex builds and maintains a named-export registry: for
// each indexed JavaScript/TypeScript file, which identifiers it exports
// (ES `export` and CommonJS `module.exports`/`exports.x`), parsed once per
// file from its tree-sitter AST and cached until invalidated.
//
// This registry backs Configuration.resolve_named_exports, the short-circuit
// step of module resolution that lets `import-one` bind a variable straight
// to the module that exports it without a filesystem name-pattern search.
package exportindex

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/importjs-go/importjs/pkg/parser"
	"github.com/importjs-go/importjs/pkg/parser/queries"
)

// Exports is the set of identifiers one file makes available to importers.
type Exports struct {
	Path       string
	HasDefault bool
	Named      []string
}

// HasNamedExports reports whether any named (non-default) export exists.
func (e *Exports) HasNamedExports() bool {
	return len(e.Named) > 0
}

// Index is a mutable, file-keyed export registry.
type Index struct {
	mu     sync.RWMutex
	pm     *parser.ParserManager
	qm     *queries.QueryManager
	logger *slog.Logger

	files    map[string]*Exports
	byName   map[string][]string // exported identifier -> file paths, insertion order
	onChange func()
}

// SetOnChange registers a callback invoked after every successful
// IndexFile and every Remove call, whether or not the recorded exports
// differ from before, so dependents like
// pkg/resolver's result cache can invalidate themselves.
func (ix *Index) SetOnChange(fn func()) {
	ix.mu.Lock()
	ix.onChange = fn
	ix.mu.Unlock()
}

// New creates an Index. Logger may be nil.
func New(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		pm:     pm,
		qm:     qm,
		logger: logger,
		files:  make(map[string]*Exports),
		byName: make(map[string][]string),
	}
}

// IndexFile parses source once and records its exports under path,
// replacing any prior entry for that path.
func (ix *Index) IndexFile(path string, source []byte) (*Exports, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("exportindex: unsupported file type: %s", path)
	}

	tree, err := ix.pm.Parse(source, lang, parser.IsTSXFile(path))
	if err != nil {
		return nil, fmt.Errorf("exportindex: parse %s: %w", path, err)
	}
	defer tree.Close()

	query, err := ix.qm.GetQuery(lang, queries.QueryTypeImports)
	if err != nil {
		return nil, fmt.Errorf("exportindex: get query: %w", err)
	}

	matches, err := ix.qm.ExecuteQuery(tree, query, source)
	if err != nil {
		return nil, fmt.Errorf("exportindex: execute query: %w", err)
	}

	exports := extractExports(matches, path)

	ix.mu.Lock()
	ix.removeLocked(path)
	ix.files[path] = exports
	for _, name := range exports.Named {
		ix.byName[name] = append(ix.byName[name], path)
	}
	onChange := ix.onChange
	ix.mu.Unlock()

	ix.logger.Debug("indexed exports", "file", path, "named", len(exports.Named), "default", exports.HasDefault)
	if onChange != nil {
		onChange()
	}
	return exports, nil
}

// Remove drops path from the registry, e.g. on file deletion.
func (ix *Index) Remove(path string) {
	ix.mu.Lock()
	ix.removeLocked(path)
	onChange := ix.onChange
	ix.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

func (ix *Index) removeLocked(path string) {
	prev, ok := ix.files[path]
	if !ok {
		return
	}
	delete(ix.files, path)
	for _, name := range prev.Named {
		paths := ix.byName[name]
		for i, p := range paths {
			if p == path {
				ix.byName[name] = append(paths[:i], paths[i+1:]...)
				break
			}
		}
		if len(ix.byName[name]) == 0 {
			delete(ix.byName, name)
		}
	}
}

// Lookup returns the recorded exports for path, if indexed.
func (ix *Index) Lookup(path string) (*Exports, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.files[path]
	return e, ok
}

// FilesExporting returns, in first-indexed order, the paths of files known
// to export name.
func (ix *Index) FilesExporting(name string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	paths := ix.byName[name]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

func extractExports(matches []queries.QueryMatch, path string) *Exports {
	exports := &Exports{Path: path}
	seen := make(map[string]bool)

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		exports.Named = append(exports.Named, name)
	}

	for _, match := range matches {
		for _, capture := range match.Captures {
			if capture.Category != "export" {
				continue
			}
			switch capture.Field {
			case "name", "reexport.name":
				add(capture.Text)
			case "commonjs.name":
				add(capture.Text)
			case "default", "commonjs.default":
				exports.HasDefault = true
			}
		}
	}

	sort.Strings(exports.Named)
	return exports
}
