package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// poolKey identifies one parser pool: a grammar plus its TSX variant.
type poolKey struct {
	lang  Language
	isTSX bool
}

// ParserManager owns a lazily-created pool of tree-sitter parsers per
// language and hands out trees to pkg/exportindex (to scan the workspace
// for named exports) via Parse/ParseFile. Pools are created on first use
// and sized by getDefaultPoolSize; the manager must be closed via Close()
// to release the underlying tree-sitter parser handles.
//
// Callers own the *ts.Tree returned by Parse/ParseFile and must call
// tree.Close() when done with it.
type ParserManager struct {
	pools  map[poolKey]*parserPool
	mutex  sync.RWMutex
	logger *slog.Logger

	stats struct {
		parsersCreated int
		parsesCalled   int
	}
}

// NewParserManager builds a manager with no pools yet created. logger may
// be nil, in which case slog.Default() is used.
func NewParserManager(logger *slog.Logger) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:  make(map[poolKey]*parserPool),
		logger: logger,
	}
}

// Parse parses source with lang's grammar, acquiring a parser from that
// language's pool and releasing it immediately afterward so other callers
// can reuse it concurrently. isTSX is ignored unless lang is
// LanguageTypeScript. The returned tree may have parse errors (tree-sitter
// produces partial trees on malformed input); callers that care should
// check tree.RootNode().HasError().
func (pm *ParserManager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pm.mutex.Lock()
	pm.stats.parsesCalled++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}

	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}

	if tree.RootNode().HasError() {
		pm.logger.Warn("parse tree contains errors", "language", lang.String())
	}

	return tree, nil
}

// ParseFile detects filePath's language via DetectLanguage and parses
// source with it. Returns an error for extensions pkg/exportindex
// shouldn't have attempted to index in the first place.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang, IsTSXFile(filePath))
}

// Close releases every parser pool. The manager is unusable afterward.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Info("closing ParserManager",
		"parsers_created", pm.stats.parsersCreated,
		"parses_called", pm.stats.parsesCalled)

	for key, pool := range pm.pools {
		if pool != nil {
			pool.close()
			pm.logger.Debug("closed parser pool", "language", key.lang.String(), "isTSX", key.isTSX)
		}
	}
	pm.pools = make(map[poolKey]*parserPool)
	return nil
}

// getOrCreatePool returns the pool for (lang, isTSX), creating it under a
// double-checked lock on first use.
func (pm *ParserManager) getOrCreatePool(lang Language, isTSX bool) (*parserPool, error) {
	key := poolKey{lang: lang, isTSX: isTSX}

	pm.mutex.RLock()
	pool, exists := pm.pools[key]
	pm.mutex.RUnlock()
	if exists {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, exists = pm.pools[key]; exists {
		return pool, nil
	}

	langPtr, err := pm.GetLanguagePointer(lang, isTSX)
	if err != nil {
		return nil, err
	}

	poolSize := getDefaultPoolSize()
	pool = newParserPool(lang, langPtr, isTSX, poolSize, pm.logger)
	pm.pools[key] = pool

	pm.logger.Debug("created new parser pool", "language", lang.String(), "isTSX", isTSX, "maxSize", poolSize)
	return pool, nil
}

// GetLanguagePointer returns the unsafe.Pointer tree-sitter uses to
// identify a compiled grammar. Exported so pkg/parser/queries can compile
// queries against the same grammar instance Parse uses.
func (pm *ParserManager) GetLanguagePointer(lang Language, isTSX bool) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTypeScript:
		if isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}

// GetStats reports how many parsers have been created across all pools and
// how many Parse calls have been served.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	totalParsers := 0
	for _, pool := range pm.pools {
		totalParsers += pool.getCreatedCount()
	}

	return ParserStats{
		ParsersCreated: totalParsers,
		ParsesCalled:   pm.stats.parsesCalled,
	}
}

// ParserStats reports manager-wide parser usage for diagnostics/logging.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}
