// Package resolver implements ModuleResolver (spec §4.4): turning a
// variable name into the list of JSModule candidates that could supply
// it, via the short-circuit alias/named-export lookups on Configuration,
// a filesystem name-pattern search scoped by lookup_paths/excludes, and a
// package.json dependency-name search. Results are cached per
// (variable_name, current_file), the way the teacher's symbol indexer
// caches per-file state, and invalidated by pkg/workspace on file
// changes.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/importjs-go/importjs/pkg/config"
	"github.com/importjs-go/importjs/pkg/editor"
	"github.com/importjs-go/importjs/pkg/exportindex"
	"github.com/importjs-go/importjs/pkg/importblock"
	"github.com/importjs-go/importjs/pkg/importstmt"
	"github.com/importjs-go/importjs/pkg/jsmodule"
	"github.com/importjs-go/importjs/pkg/nameformat"
)

// FindError is raised for the two fatal conditions spec §7 assigns to
// ModuleResolver: an empty lookup_path entry, or a filesystem-search
// failure.
type FindError struct {
	Message string
}

func (e *FindError) Error() string { return e.Message }

// jsExtensionRe scopes filesystem-search enumeration to .js and its
// variants (.jsx) only. TypeScript files are never candidates here — the
// named-export registry (pkg/exportindex) is where .ts/.tsx sources get
// consulted, one step earlier in FindJSModules.
var jsExtensionRe = regexp.MustCompile(`(?i)\.js.*$`)

const defaultMaxCached = 500

// Resolver holds the find_js_modules result cache. A single Resolver is
// shared across operations for the lifetime of the editor session.
type Resolver struct {
	cache       *lru.Cache[string, []*jsmodule.Module]
	exportIndex *exportindex.Index
	logger      *slog.Logger
}

// New creates a Resolver with a bounded LRU cache. maxCached <= 0 uses a
// sensible default. Logger may be nil.
func New(maxCached int, logger *slog.Logger) *Resolver {
	if maxCached <= 0 {
		maxCached = defaultMaxCached
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.NewWithEvict[string, []*jsmodule.Module](maxCached, func(key string, _ []*jsmodule.Module) {
		logger.Debug("resolver cache evicting", "key", key)
	})
	if err != nil {
		panic(fmt.Sprintf("resolver: failed to create LRU cache: %v", err))
	}

	return &Resolver{cache: cache, logger: logger}
}

// SetExportIndex wires the named-export registry used to populate
// has_named_exports on filesystem search results, and makes every change
// to it purge this resolver's cache. The step-2 named-export short-circuit
// reads the registry wired into the Configuration, not this one.
func (r *Resolver) SetExportIndex(ix *exportindex.Index) {
	r.exportIndex = ix
	if ix != nil {
		ix.SetOnChange(r.Invalidate)
	}
}

// Invalidate drops every cached result. Call this whenever the workspace
// observes a filesystem change that could alter resolution.
func (r *Resolver) Invalidate() {
	r.cache.Purge()
}

func cacheKey(variableName, currentFile string) string {
	return variableName + "\x00" + currentFile
}

// FindJSModules implements spec §4.4 in full.
func (r *Resolver) FindJSModules(cfg *config.Configuration, variableName, currentFile string) ([]*jsmodule.Module, error) {
	key := cacheKey(variableName, currentFile)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	modules, err := r.findJSModules(cfg, variableName, currentFile)
	if err != nil {
		r.logger.Debug("find_js_modules failed", "variable", variableName, "error", err)
		return nil, err
	}

	r.logger.Debug("find_js_modules", "variable", variableName, "candidates", len(modules))
	r.cache.Add(key, modules)
	return modules, nil
}

func (r *Resolver) findJSModules(cfg *config.Configuration, variableName, currentFile string) ([]*jsmodule.Module, error) {
	if m := cfg.ResolveAlias(variableName, currentFile); m != nil {
		return []*jsmodule.Module{m}, nil
	}
	if m := cfg.ResolveNamedExports(variableName); m != nil {
		return []*jsmodule.Module{m}, nil
	}

	candidates, err := r.searchFilesystem(cfg, variableName, currentFile)
	if err != nil {
		return nil, err
	}

	candidates = append(candidates, r.searchPackageDependencies(cfg, variableName)...)

	return dedupeAndOrder(candidates), nil
}

func (r *Resolver) searchFilesystem(cfg *config.Configuration, variableName, currentFile string) ([]*jsmodule.Module, error) {
	pattern := nameformat.ToPattern(variableName)
	segmentRe, err := regexp.Compile(`(?i)(/|^)` + pattern + `(/index)?(/package)?\.js.*$`)
	if err != nil {
		return nil, &FindError{Message: fmt.Sprintf("invalid name pattern for %q: %v", variableName, err)}
	}

	excludes := cfg.Excludes(currentFile)
	perFileCfg := cfg.PerFileConfig(currentFile)

	var modules []*jsmodule.Module
	for _, lookupPath := range cfg.AbsoluteLookupPaths(currentFile) {
		if lookupPath == "" {
			return nil, &FindError{Message: "empty lookup_path in configuration"}
		}

		found, err := r.scanLookupPath(lookupPath, segmentRe, excludes)
		if err != nil {
			return nil, &FindError{Message: err.Error()}
		}

		for _, absPath := range found {
			m := jsmodule.New(lookupPath, absPath, r.hasNamedExports(absPath), currentFile, perFileCfg)
			if m != nil {
				modules = append(modules, m)
			}
		}
	}
	return modules, nil
}

func (r *Resolver) scanLookupPath(lookupPath string, segmentRe *regexp.Regexp, excludes []string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(lookupPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !jsExtensionRe.MatchString(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(lookupPath, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if !segmentRe.MatchString(rel) {
			return nil
		}
		for _, pattern := range excludes {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}

		matches = append(matches, path)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return matches, nil
}

func (r *Resolver) hasNamedExports(absPath string) bool {
	if r.exportIndex == nil {
		return false
	}
	exports, ok := r.exportIndex.Lookup(absPath)
	if !ok {
		return false
	}
	return exports.HasNamedExports()
}

func (r *Resolver) searchPackageDependencies(cfg *config.Configuration, variableName string) []*jsmodule.Module {
	pattern := nameformat.ToPattern(variableName)

	prefixes := cfg.IgnorePackagePrefixes("")
	var prefixAlt string
	if len(prefixes) > 0 {
		escaped := make([]string, len(prefixes))
		for i, p := range prefixes {
			escaped[i] = regexp.QuoteMeta(p)
		}
		prefixAlt = "(?:" + strings.Join(escaped, "|") + ")?"
	}

	depRe, err := regexp.Compile(`(?i)^` + prefixAlt + pattern + `$`)
	if err != nil {
		return nil
	}

	var modules []*jsmodule.Module
	for _, dep := range cfg.PackageDependencies() {
		if depRe.MatchString(dep) {
			modules = append(modules, jsmodule.NewPackageDependency(dep))
		}
	}
	return modules
}

func dedupeAndOrder(candidates []*jsmodule.Module) []*jsmodule.Module {
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].ImportPath) < len(candidates[j].ImportPath)
	})

	seen := make(map[string]bool, len(candidates))
	deduped := make([]*jsmodule.Module, 0, len(candidates))
	for _, m := range candidates {
		key := m.LookupPath + "/" + m.ImportPath
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, m)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].DisplayName < deduped[j].DisplayName
	})
	return deduped
}

// ResolveOne implements spec §4.4 resolve_one: unambiguous results return
// directly, zero results return nil, and multiple results prompt the
// editor to disambiguate.
func ResolveOne(ed editor.Editor, candidates []*jsmodule.Module) *jsmodule.Module {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	choices := make([]string, len(candidates))
	for i, c := range candidates {
		choices[i] = c.DisplayName
	}
	idx, ok := ed.AskForSelection("ImportJS: Select a module to import", choices)
	if !ok {
		return nil
	}
	return candidates[idx]
}

// ResolveGoto implements spec §4.4 resolve_goto.
func ResolveGoto(ed editor.Editor, candidates []*jsmodule.Module, variableName string, block *importblock.Block) *jsmodule.Module {
	if len(candidates) == 1 {
		return candidates[0]
	}

	stmt := statementBinding(block, variableName)
	if stmt != nil {
		if len(candidates) == 0 {
			return &jsmodule.Module{ImportPath: stmt.Path}
		}
		for _, c := range candidates {
			if c.ImportPath == stmt.Path {
				return c
			}
		}
	}

	return ResolveOne(ed, candidates)
}

func statementBinding(block *importblock.Block, variableName string) *importstmt.Statement {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Imports {
		if stmt.DefaultImport == variableName {
			return stmt
		}
		for _, n := range stmt.NamedImports {
			if n == variableName {
				return stmt
			}
		}
	}
	return nil
}
