// Package importer implements Importer (C6, spec §4.6): the three
// user-facing operations — import, goto, fix_imports — that tie
// Configuration, ModuleResolver, LintDiagnosticsReader, ImportBlock and
// the Editor contract together. import and fix_imports run inside the
// cursor-maintaining scope spec §4.6.2 describes; goto does not edit the
// buffer and runs outside it.
package importer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/importjs-go/importjs/pkg/config"
	"github.com/importjs-go/importjs/pkg/editor"
	"github.com/importjs-go/importjs/pkg/exportindex"
	"github.com/importjs-go/importjs/pkg/importblock"
	"github.com/importjs-go/importjs/pkg/jsmodule"
	"github.com/importjs-go/importjs/pkg/lint"
	"github.com/importjs-go/importjs/pkg/resolver"
)

// Importer orchestrates the three public operations. A single Importer
// is shared across the editor session's lifetime.
type Importer struct {
	resolver    *resolver.Resolver
	lint        *lint.Reader
	exportIndex *exportindex.Index
	logger      *slog.Logger
}

// New creates an Importer. exportIndex may be nil if no live named-export
// registry is available (e.g. before the workspace has indexed anything).
// Logger may be nil.
func New(r *resolver.Resolver, lintReader *lint.Reader, exportIndex *exportindex.Index, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{resolver: r, lint: lintReader, exportIndex: exportIndex, logger: logger}
}

func (im *Importer) loadConfig(currentFile string) (*config.Configuration, error) {
	cfg, err := config.Load(currentFile)
	if err != nil {
		return nil, err
	}
	if im.exportIndex != nil {
		cfg.SetExportIndex(im.exportIndex)
	}
	return cfg, nil
}

// withCursorMaintained implements spec §4.6.2: capture (row, col) and
// line count before body runs; if the line count changed, shift the
// cursor's row by the same delta, leaving it alone otherwise.
func withCursorMaintained(ed editor.Editor, body func()) {
	row, col := ed.Cursor()
	before := ed.CountLines()

	body()

	after := ed.CountLines()
	if delta := after - before; delta != 0 {
		ed.SetCursor(row+delta, col)
	}
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}

// Import implements spec §4.6 "import": bind the variable under the
// cursor to a single resolved module.
func (im *Importer) Import(ed editor.Editor) error {
	currentFile := ed.PathToCurrentFile()
	cfg, err := im.loadConfig(currentFile)
	if err != nil {
		return err
	}

	word := ed.CurrentWord()
	if word == "" {
		ed.Message("ImportJS: No variable to import. Place your cursor on a variable, then try again.")
		return nil
	}

	start := time.Now()
	candidates, err := im.resolver.FindJSModules(cfg, word, currentFile)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	module := resolver.ResolveOne(ed, candidates)
	if module == nil {
		ed.Message(fmt.Sprintf("ImportJS: No JS module to import for variable `%s` (%ss)", word, seconds(elapsed)))
		return nil
	}

	withCursorMaintained(ed, func() {
		block := importblock.Parse(ed.CurrentFileContent())
		Inject(block, word, module, cfg)
		importblock.Rewrite(ed, block)
	})

	if module.HasNamedExports {
		ed.Message(fmt.Sprintf("ImportJS: Imported `%s` from `%s` (%ss)", word, module.ImportPath, seconds(elapsed)))
	} else {
		ed.Message(fmt.Sprintf("ImportJS: Imported `%s` (%ss)", module.ImportPath, seconds(elapsed)))
	}
	return nil
}

// Goto implements spec §4.6 "goto": open the file backing the variable
// under the cursor.
func (im *Importer) Goto(ed editor.Editor) error {
	currentFile := ed.PathToCurrentFile()
	cfg, err := im.loadConfig(currentFile)
	if err != nil {
		return err
	}

	word := ed.CurrentWord()
	if word == "" {
		ed.Message("ImportJS: No variable to import. Place your cursor on a variable, then try again.")
		return nil
	}

	candidates, err := im.resolver.FindJSModules(cfg, word, currentFile)
	if err != nil {
		return err
	}

	block := importblock.Parse(ed.CurrentFileContent())
	module := resolver.ResolveGoto(ed, candidates, word, block)
	if module == nil {
		ed.Message(fmt.Sprintf("ImportJS: Could not resolve a module for `%s`", word))
		return nil
	}

	ed.OpenFile(module.OpenFilePath(currentFile))
	return nil
}

// FixImports implements spec §4.6 "fix_imports": remove unused bindings
// and inject currently-undefined ones, per the diagnostics the
// configured linter reports.
func (im *Importer) FixImports(ed editor.Editor) error {
	currentFile := ed.PathToCurrentFile()
	cfg, err := im.loadConfig(currentFile)
	if err != nil {
		return err
	}

	diag, err := im.lint.Run(cfg.ESLintExecutable(currentFile), currentFile, ed.CurrentFileContent())
	if err != nil {
		return err
	}

	withCursorMaintained(ed, func() {
		block := importblock.Parse(ed.CurrentFileContent())

		for _, name := range diag.Unused {
			for _, stmt := range block.Imports {
				stmt.DeleteVariable(name)
			}
		}
		block.RemoveEmpty()

		for _, name := range diag.Undefined {
			candidates, err := im.resolver.FindJSModules(cfg, name, currentFile)
			if err != nil {
				im.logger.Debug("fix_imports: resolution failed", "variable", name, "error", err)
				continue
			}
			module := resolver.ResolveOne(ed, candidates)
			if module == nil {
				continue
			}
			Inject(block, name, module, cfg)
		}

		importblock.Rewrite(ed, block)
	})

	return nil
}

// Inject implements spec §4.6.1: bind variableName to module within
// block, merging into an existing statement for the same path or
// prepending a new one, then deduplicating by normalized form.
func Inject(block *importblock.Block, variableName string, module *jsmodule.Module, cfg *config.Configuration) {
	if stmt := block.StatementForPath(module.ImportPath); stmt != nil {
		stmt.DeclarationKeyword = cfg.DeclarationKeyword(module.FilePath)
		stmt.ImportFunction = cfg.ImportFunction(module.FilePath)
		if module.HasNamedExports {
			stmt.InjectNamedImport(variableName)
		} else {
			stmt.SetDefaultImport(variableName)
		}
	} else {
		newStmt := module.ToImportStatement(variableName, cfg.DeclarationKeyword(module.FilePath), cfg.ImportFunction(module.FilePath))
		block.Prepend(newStmt)
	}
	block.Dedupe()
}
