package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importjs-go/importjs/pkg/exportindex"
	"github.com/importjs-go/importjs/pkg/importstmt"
	"github.com/importjs-go/importjs/pkg/parser"
	"github.com/importjs-go/importjs/pkg/parser/queries"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	assert.Equal(t, importstmt.KeywordImport, cfg.DeclarationKeyword(""))
	assert.Equal(t, "require", cfg.ImportFunction(""))
	assert.True(t, cfg.StripFileExtensions(""))
	assert.Equal(t, "eslint", cfg.ESLintExecutable(""))
}

func TestLoad_ReadsYAMLConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), `
declaration_keyword: const
import_function: myRequire
lookup_paths:
  - src
use_relative_paths: true
aliases:
  React: react
`)

	cfg, err := Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	assert.Equal(t, importstmt.KeywordConst, cfg.DeclarationKeyword(""))
	assert.Equal(t, "myRequire", cfg.ImportFunction(""))
	assert.True(t, cfg.UseRelativePaths(""))
	assert.Equal(t, []string{filepath.Join(dir, "src")}, cfg.AbsoluteLookupPaths(""))

	m := cfg.ResolveAlias("React", "")
	require.NotNil(t, m)
	assert.Equal(t, "react", m.ImportPath)
}

func TestLoad_ReadsJSONConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.json"), `{
		"declaration_keyword": "var",
		"eslint_executable": "./node_modules/.bin/eslint"
	}`)

	cfg, err := Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	assert.Equal(t, importstmt.KeywordVar, cfg.DeclarationKeyword(""))
	assert.Equal(t, "./node_modules/.bin/eslint", cfg.ESLintExecutable(""))
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "import_function: walkedUp\n")

	cfg, err := Load(filepath.Join(dir, "a", "b", "c", "file.js"))
	require.NoError(t, err)
	assert.Equal(t, "walkedUp", cfg.ImportFunction(""))
}

func TestResolved_EnvironmentOverridesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), `
lookup_paths:
  - src
environments:
  - applies_to: "**/*.test.js"
    lookup_paths:
      - test/helpers
`)

	cfg, err := Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	prod := filepath.Join(dir, "src", "widget.js")
	test := filepath.Join(dir, "src", "widget.test.js")

	assert.Equal(t, []string{filepath.Join(dir, "src")}, cfg.AbsoluteLookupPaths(prod))
	assert.Equal(t, []string{filepath.Join(dir, "test/helpers")}, cfg.AbsoluteLookupPaths(test))
}

func TestResolveAlias_UnknownNameReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	assert.Nil(t, cfg.ResolveAlias("Nope", ""))
}

func TestResolveNamedExports_StaticOverrideTakesPriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), `
named_exports:
  connect: redux
`)

	cfg, err := Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	m := cfg.ResolveNamedExports("connect")
	require.NotNil(t, m)
	assert.Equal(t, "redux", m.ImportPath)
	assert.True(t, m.HasNamedExports)
}

func TestResolveNamedExports_NoIndexAndNoOverrideReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	assert.Nil(t, cfg.ResolveNamedExports("whatever"))
}

func TestResolveNamedExports_FallsBackToExportIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - src\n")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	defer qm.Close()
	defer pm.Close()
	ix := exportindex.New(pm, qm, logger)

	modPath := filepath.Join(dir, "src", "connect.js")
	_, err := ix.IndexFile(modPath, []byte("export function connect() {}\n"))
	require.NoError(t, err)

	cfg, err := Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	cfg.SetExportIndex(ix)

	m := cfg.ResolveNamedExports("connect")
	require.NotNil(t, m)
	assert.Equal(t, "connect", m.ImportPath)
	assert.True(t, m.HasNamedExports)
	assert.Equal(t, filepath.Join(dir, "src"), m.LookupPath)
}

func TestPackageDependencies_ReadsNearestPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{
		"dependencies": {"react": "^18.0.0"},
		"devDependencies": {"eslint": "^8.0.0"}
	}`)

	cfg, err := Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	deps := cfg.PackageDependencies()
	assert.ElementsMatch(t, []string{"react", "eslint"}, deps)
}

func TestPackageDependencies_NoPackageJSONReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	assert.Empty(t, cfg.PackageDependencies())
}

func TestGet_GenericAccessorMatchesTypedAccessors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "declaration_keyword: const\n")

	cfg, err := Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	assert.Equal(t, "const", cfg.Get("declaration_keyword", ""))
	assert.Nil(t, cfg.Get("not_a_real_key", ""))
}
