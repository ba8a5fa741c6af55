// Package jsmodule implements the JSModule construction helper: turning a
// filesystem path discovered by the resolver into the attributes the core
// consumes (import_path, display_name, file_path, has_named_exports,
// lookup_path) plus the two behaviors it exposes (to_import_statement,
// open_file_path). See spec §3.3 — this is a consumed, not fully
// specified, external contract; the construction rules below (relative
// path rewriting, extension stripping, index-folder collapsing) are this
// implementation's resolution of that open question.
package jsmodule

import (
	"path/filepath"
	"strings"

	"github.com/importjs-go/importjs/pkg/importstmt"
)

// Module is one candidate a variable name could be imported from.
type Module struct {
	ImportPath      string
	DisplayName     string
	FilePath        string
	HasNamedExports bool
	LookupPath      string
}

// PerFileConfig carries the subset of Configuration consulted while
// building a module's import_path: strip_file_extensions,
// use_relative_paths, and strip_from_path (spec §4.4 step 4).
type PerFileConfig struct {
	StripFileExtensions bool
	UseRelativePaths    bool
	StripFromPath       string
}

// New builds a Module for a file discovered under lookupPath. currentFile
// is only consulted when cfg.UseRelativePaths is set. Returns nil if no
// usable import path can be constructed (e.g. the file and lookup path
// don't share a common root, or stripping collapses the path to nothing).
func New(lookupPath, absoluteFilePath string, hasNamedExports bool, currentFile string, cfg PerFileConfig) *Module {
	importPath, ok := buildImportPath(lookupPath, absoluteFilePath, currentFile, cfg)
	if !ok || importPath == "" {
		return nil
	}

	return &Module{
		ImportPath:      importPath,
		DisplayName:     importPath,
		FilePath:        absoluteFilePath,
		HasNamedExports: hasNamedExports,
		LookupPath:      lookupPath,
	}
}

// NewPackageDependency builds the bare-bones Module spec §4.4 step 5
// constructs for a package-manifest match: no extension stripping, no
// relative rewriting, lookup_path fixed to "node_modules".
func NewPackageDependency(dependencyName string) *Module {
	return &Module{
		ImportPath:      dependencyName,
		DisplayName:     dependencyName,
		FilePath:        filepath.Join("node_modules", dependencyName, "package.json"),
		HasNamedExports: false,
		LookupPath:      "node_modules",
	}
}

func buildImportPath(lookupPath, absoluteFilePath, currentFile string, cfg PerFileConfig) (string, bool) {
	var rel string
	if cfg.UseRelativePaths && currentFile != "" {
		r, err := filepath.Rel(filepath.Dir(currentFile), absoluteFilePath)
		if err != nil {
			return "", false
		}
		rel = filepath.ToSlash(r)
		if !strings.HasPrefix(rel, ".") {
			rel = "./" + rel
		}
	} else {
		r, err := filepath.Rel(lookupPath, absoluteFilePath)
		if err != nil {
			return "", false
		}
		rel = filepath.ToSlash(r)
	}

	if cfg.StripFileExtensions {
		rel = stripExtension(rel)
	}
	rel = collapseIndexSuffix(rel)

	if cfg.StripFromPath != "" {
		rel = strings.TrimPrefix(rel, cfg.StripFromPath)
	}

	return rel, true
}

func stripExtension(path string) string {
	ext := filepath.Ext(path)
	for ext != "" {
		path = strings.TrimSuffix(path, ext)
		ext = filepath.Ext(path)
		if !isJSExtension(ext) {
			break
		}
	}
	return path
}

func isJSExtension(ext string) bool {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return true
	default:
		return false
	}
}

// collapseIndexSuffix drops a trailing "/index" segment so that importing
// a package's index file reads as importing the package directory.
func collapseIndexSuffix(path string) string {
	if path == "index" {
		return "."
	}
	return strings.TrimSuffix(path, "/index")
}

// ToImportStatement synthesizes the ImportStatement that would bind
// variableName to this module, per spec §4.6.1.
func (m *Module) ToImportStatement(variableName string, declKeyword importstmt.Keyword, importFunction string) *importstmt.Statement {
	stmt := importstmt.New(m.ImportPath, declKeyword, importFunction)
	if m.HasNamedExports {
		stmt.InjectNamedImport(variableName)
	} else {
		stmt.SetDefaultImport(variableName)
	}
	return stmt
}

// OpenFilePath returns the path the editor should open for "goto": FilePath
// as stored. That is absolute for filesystem-search modules, the relative
// "node_modules/<dep>/package.json" for package dependencies, and empty for
// modules built without a file. currentFile is part of the consumed
// contract's signature but unused here.
func (m *Module) OpenFilePath(currentFile string) string {
	return m.FilePath
}
