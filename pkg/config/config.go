// Package config implements the Configuration contract (spec §3.4):
// a per-operation, per-file-relative accessor over lookup paths, path
// rewriting rules, alias and named-export shortcuts, and the linter
// executable, loaded from a `.importjsrc.yaml` (or `.importjsrc.json`)
// found by walking up from the current file, the way the CLI's project
// config resolution walks its fallback chain.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/importjs-go/importjs/pkg/exportindex"
	"github.com/importjs-go/importjs/pkg/importstmt"
	"github.com/importjs-go/importjs/pkg/jsmodule"
)

const (
	configFileNameYAML = ".importjsrc.yaml"
	configFileNameJSON = ".importjsrc.json"
)

// Options is the set of tunables the core consults. Zero values are
// replaced by defaultOptions() where that makes sense (see mergeOptions).
type Options struct {
	DeclarationKeyword    string            `yaml:"declaration_keyword" json:"declaration_keyword"`
	ImportFunction        string            `yaml:"import_function" json:"import_function"`
	LookupPaths           []string          `yaml:"lookup_paths" json:"lookup_paths"`
	Excludes              []string          `yaml:"excludes" json:"excludes"`
	StripFileExtensions   *bool             `yaml:"strip_file_extensions" json:"strip_file_extensions"`
	UseRelativePaths      bool              `yaml:"use_relative_paths" json:"use_relative_paths"`
	StripFromPath         string            `yaml:"strip_from_path" json:"strip_from_path"`
	IgnorePackagePrefixes []string          `yaml:"ignore_package_prefixes" json:"ignore_package_prefixes"`
	ESLintExecutable      string            `yaml:"eslint_executable" json:"eslint_executable"`
	Aliases               map[string]string `yaml:"aliases" json:"aliases"`
	NamedExports          map[string]string `yaml:"named_exports" json:"named_exports"`
}

// Environment is an Options block that only applies to files matching a
// glob, allowing e.g. test files to use different lookup_paths.
type Environment struct {
	AppliesTo string  `yaml:"applies_to" json:"applies_to"`
	Options   Options `yaml:",inline" json:",inline"`
}

// file is the on-disk shape of .importjsrc.yaml/.importjsrc.json.
type file struct {
	Options      `yaml:",inline" json:",inline"`
	Environments []Environment `yaml:"environments" json:"environments"`
}

// Configuration is a loaded, file-relative accessor. Construct a fresh one
// per operation via Load, per spec §5 ("Configuration objects are
// read-only snapshots, constructed per-operation relative to the current
// file").
type Configuration struct {
	rootDir     string
	base        Options
	envs        []Environment
	exportIndex *exportindex.Index

	pkgDepsOnce sync.Once
	pkgDeps     []string
}

func defaultOptions() Options {
	stripExt := true
	return Options{
		DeclarationKeyword:  "import",
		ImportFunction:      "require",
		LookupPaths:         []string{"."},
		StripFileExtensions: &stripExt,
		ESLintExecutable:    "eslint",
	}
}

// Load walks up from the directory containing currentFile looking for a
// config file, merging it over the defaults. A missing config file is not
// an error — defaults are used.
func Load(currentFile string) (*Configuration, error) {
	dir := filepath.Dir(currentFile)
	if currentFile == "" {
		dir, _ = os.Getwd()
	}

	path, f, err := findConfig(dir)
	if err != nil {
		return nil, err
	}

	cfg := &Configuration{base: defaultOptions()}
	if f != nil {
		cfg.base = mergeOptions(cfg.base, f.Options)
		cfg.envs = f.Environments
		cfg.rootDir = filepath.Dir(path)
	} else {
		cfg.rootDir = dir
	}
	return cfg, nil
}

// SetExportIndex wires a live named-export registry in, so
// ResolveNamedExports can consult indexed files in addition to any
// static named_exports map in the config file.
func (c *Configuration) SetExportIndex(ix *exportindex.Index) {
	c.exportIndex = ix
}

func findConfig(dir string) (string, *file, error) {
	for {
		for _, name := range []string{configFileNameYAML, configFileNameJSON} {
			p := filepath.Join(dir, name)
			data, err := os.ReadFile(p)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return "", nil, err
			}
			var f file
			if name == configFileNameJSON {
				err = json.Unmarshal(data, &f)
			} else {
				err = yaml.Unmarshal(data, &f)
			}
			if err != nil {
				return "", nil, err
			}
			return p, &f, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

func mergeOptions(base, override Options) Options {
	if override.DeclarationKeyword != "" {
		base.DeclarationKeyword = override.DeclarationKeyword
	}
	if override.ImportFunction != "" {
		base.ImportFunction = override.ImportFunction
	}
	if len(override.LookupPaths) > 0 {
		base.LookupPaths = override.LookupPaths
	}
	if len(override.Excludes) > 0 {
		base.Excludes = override.Excludes
	}
	if override.StripFileExtensions != nil {
		base.StripFileExtensions = override.StripFileExtensions
	}
	base.UseRelativePaths = base.UseRelativePaths || override.UseRelativePaths
	if override.StripFromPath != "" {
		base.StripFromPath = override.StripFromPath
	}
	if len(override.IgnorePackagePrefixes) > 0 {
		base.IgnorePackagePrefixes = override.IgnorePackagePrefixes
	}
	if override.ESLintExecutable != "" {
		base.ESLintExecutable = override.ESLintExecutable
	}
	if len(override.Aliases) > 0 {
		if base.Aliases == nil {
			base.Aliases = map[string]string{}
		}
		for k, v := range override.Aliases {
			base.Aliases[k] = v
		}
	}
	if len(override.NamedExports) > 0 {
		if base.NamedExports == nil {
			base.NamedExports = map[string]string{}
		}
		for k, v := range override.NamedExports {
			base.NamedExports[k] = v
		}
	}
	return base
}

// resolved returns base merged with every environment whose applies_to
// glob matches fromFile, in declaration order (later environments win).
func (c *Configuration) resolved(fromFile string) Options {
	opts := c.base
	if fromFile == "" {
		return opts
	}
	rel, err := filepath.Rel(c.rootDir, fromFile)
	if err != nil {
		rel = fromFile
	}
	rel = filepath.ToSlash(rel)

	for _, env := range c.envs {
		if env.AppliesTo == "" {
			continue
		}
		if ok, _ := doublestar.Match(env.AppliesTo, rel); ok {
			opts = mergeOptions(opts, env.Options)
		}
	}
	return opts
}

// Get is the function-style accessor described in spec §3.4, for callers
// that want to look a key up generically (e.g. a debug/inspect command).
// Typed accessors below are preferred within this module's own code.
func (c *Configuration) Get(key string, fromFile string) any {
	opts := c.resolved(fromFile)
	switch key {
	case "declaration_keyword":
		return opts.DeclarationKeyword
	case "import_function":
		return opts.ImportFunction
	case "lookup_paths":
		return c.AbsoluteLookupPaths(fromFile)
	case "excludes":
		return opts.Excludes
	case "strip_file_extensions":
		return opts.StripFileExtensions != nil && *opts.StripFileExtensions
	case "use_relative_paths":
		return opts.UseRelativePaths
	case "strip_from_path":
		return opts.StripFromPath
	case "ignore_package_prefixes":
		return opts.IgnorePackagePrefixes
	case "eslint_executable":
		return opts.ESLintExecutable
	default:
		return nil
	}
}

func (c *Configuration) DeclarationKeyword(fromFile string) importstmt.Keyword {
	return importstmt.Keyword(c.resolved(fromFile).DeclarationKeyword)
}

func (c *Configuration) ImportFunction(fromFile string) string {
	return c.resolved(fromFile).ImportFunction
}

// AbsoluteLookupPaths resolves each configured lookup_paths entry against
// the config's root directory.
func (c *Configuration) AbsoluteLookupPaths(fromFile string) []string {
	paths := c.resolved(fromFile).LookupPaths
	out := make([]string, len(paths))
	for i, p := range paths {
		switch {
		case p == "":
			out[i] = "" // preserved so callers can reject it, per spec §4.4 step 4
		case filepath.IsAbs(p):
			out[i] = p
		default:
			out[i] = filepath.Join(c.rootDir, p)
		}
	}
	return out
}

func (c *Configuration) Excludes(fromFile string) []string {
	return c.resolved(fromFile).Excludes
}

func (c *Configuration) StripFileExtensions(fromFile string) bool {
	opts := c.resolved(fromFile)
	return opts.StripFileExtensions != nil && *opts.StripFileExtensions
}

func (c *Configuration) UseRelativePaths(fromFile string) bool {
	return c.resolved(fromFile).UseRelativePaths
}

func (c *Configuration) StripFromPath(fromFile string) string {
	return c.resolved(fromFile).StripFromPath
}

func (c *Configuration) IgnorePackagePrefixes(fromFile string) []string {
	return c.resolved(fromFile).IgnorePackagePrefixes
}

func (c *Configuration) ESLintExecutable(fromFile string) string {
	return c.resolved(fromFile).ESLintExecutable
}

func (c *Configuration) PerFileConfig(fromFile string) jsmodule.PerFileConfig {
	return jsmodule.PerFileConfig{
		StripFileExtensions: c.StripFileExtensions(fromFile),
		UseRelativePaths:    c.UseRelativePaths(fromFile),
		StripFromPath:       c.StripFromPath(fromFile),
	}
}

// ResolveAlias implements spec §3.4/§4.4 step 1: a direct name -> module
// shortcut, bypassing filesystem search entirely.
func (c *Configuration) ResolveAlias(name, currentFile string) *jsmodule.Module {
	target, ok := c.resolved(currentFile).Aliases[name]
	if !ok {
		return nil
	}
	return &jsmodule.Module{
		ImportPath:      target,
		DisplayName:     target,
		HasNamedExports: false,
	}
}

// ResolveNamedExports implements spec §3.4/§4.4 step 2: a static
// named_exports override takes priority, then the live export index.
func (c *Configuration) ResolveNamedExports(name string) *jsmodule.Module {
	if path, ok := c.base.NamedExports[name]; ok {
		return &jsmodule.Module{
			ImportPath:      path,
			DisplayName:     path,
			HasNamedExports: true,
		}
	}

	if c.exportIndex == nil {
		return nil
	}
	paths := c.exportIndex.FilesExporting(name)
	if len(paths) == 0 {
		return nil
	}
	return jsmodule.New(c.lookupPathFor(paths[0]), paths[0], true, "", c.PerFileConfig(paths[0]))
}

func (c *Configuration) lookupPathFor(absoluteFile string) string {
	for _, lp := range c.AbsoluteLookupPaths(absoluteFile) {
		if rel, err := filepath.Rel(lp, absoluteFile); err == nil && !isOutsideRel(rel) {
			return lp
		}
	}
	return filepath.Dir(absoluteFile)
}

func isOutsideRel(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == ".." || len(rel) >= 3 && rel[:3] == "../"
}

// PackageDependencies implements spec §3.4: dependency names from the
// nearest package.json's "dependencies" and "devDependencies", read once
// and cached for the lifetime of this Configuration.
func (c *Configuration) PackageDependencies() []string {
	c.pkgDepsOnce.Do(func() {
		c.pkgDeps = readPackageDependencies(c.rootDir)
	})
	return c.pkgDeps
}

func readPackageDependencies(dir string) []string {
	for {
		data, err := os.ReadFile(filepath.Join(dir, "package.json"))
		if err == nil {
			var pkg struct {
				Dependencies    map[string]string `json:"dependencies"`
				DevDependencies map[string]string `json:"devDependencies"`
			}
			if json.Unmarshal(data, &pkg) == nil {
				names := make([]string, 0, len(pkg.Dependencies)+len(pkg.DevDependencies))
				for name := range pkg.Dependencies {
					names = append(names, name)
				}
				for name := range pkg.DevDependencies {
					names = append(names, name)
				}
				return names
			}
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}
