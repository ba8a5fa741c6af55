package resolver

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importjs-go/importjs/pkg/config"
	"github.com/importjs-go/importjs/pkg/editor"
	"github.com/importjs-go/importjs/pkg/importblock"
	"github.com/importjs-go/importjs/pkg/importstmt"
	"github.com/importjs-go/importjs/pkg/jsmodule"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(0, logger)
}

func TestFindJSModules_AliasShortCircuits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "aliases:\n  React: react\n")

	cfg, err := config.Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "React", filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "react", modules[0].ImportPath)
}

func TestFindJSModules_NamedExportsShortCircuits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "named_exports:\n  connect: redux\n")

	cfg, err := config.Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "connect", filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "redux", modules[0].ImportPath)
	assert.True(t, modules[0].HasNamedExports)
}

func TestFindJSModules_FilesystemSearchMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - src\n")
	writeFile(t, filepath.Join(dir, "src", "components", "UserCard.js"), "export default function UserCard() {}\n")
	writeFile(t, filepath.Join(dir, "src", "unrelated.js"), "export default 1;\n")

	cfg, err := config.Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "UserCard", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "components/UserCard", modules[0].ImportPath)
}

func TestFindJSModules_ExcludesGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - src\nexcludes:\n  - \"__tests__/**\"\n")
	writeFile(t, filepath.Join(dir, "src", "__tests__", "widget.js"), "export default function widget() {}\n")

	cfg, err := config.Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "widget", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestFindJSModules_SkipsNodeModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - .\n")
	writeFile(t, filepath.Join(dir, "node_modules", "widget", "index.js"), "module.exports = function widget() {};\n")

	cfg, err := config.Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "widget", filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestFindJSModules_RejectsEmptyLookupPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - \"\"\n")

	cfg, err := config.Load(filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	_, err = r.FindJSModules(cfg, "whatever", filepath.Join(dir, "a.js"))
	require.Error(t, err)
	var findErr *FindError
	assert.ErrorAs(t, err, &findErr)
}

func TestFindJSModules_PackageDependencyMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - src\n")
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies": {"lodash": "^4.0.0"}}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	cfg, err := config.Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "lodash", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "lodash", modules[0].ImportPath)
	assert.Equal(t, "node_modules", modules[0].LookupPath)
}

func TestFindJSModules_PackageDependencyIgnoresConfiguredPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - src\nignore_package_prefixes:\n  - \"@scope/\"\n")
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies": {"@scope/widget": "^1.0.0"}}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	cfg, err := config.Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	modules, err := r.FindJSModules(cfg, "widget", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "@scope/widget", modules[0].ImportPath)
}

func TestFindJSModules_CacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".importjsrc.yaml"), "lookup_paths:\n  - src\n")

	cfg, err := config.Load(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)

	r := newTestResolver(t)
	first, err := r.FindJSModules(cfg, "Widget", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	assert.Empty(t, first)

	writeFile(t, filepath.Join(dir, "src", "Widget.js"), "export default function Widget() {}\n")

	stale, err := r.FindJSModules(cfg, "Widget", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	assert.Empty(t, stale, "cached result should still be stale before invalidation")

	r.Invalidate()

	fresh, err := r.FindJSModules(cfg, "Widget", filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestResolveOne_NoCandidatesReturnsNil(t *testing.T) {
	assert.Nil(t, ResolveOne(editor.NewBuffer("/a.js", ""), nil))
}

func TestResolveOne_SingleCandidateReturnsIt(t *testing.T) {
	m := &jsmodule.Module{ImportPath: "foo"}
	assert.Equal(t, m, ResolveOne(editor.NewBuffer("/a.js", ""), []*jsmodule.Module{m}))
}

func TestResolveOne_MultipleAsksEditorAndReturnsSelection(t *testing.T) {
	a := &jsmodule.Module{ImportPath: "foo", DisplayName: "foo"}
	b := &jsmodule.Module{ImportPath: "bar", DisplayName: "bar"}
	buf := editor.NewBuffer("/a.js", "")
	buf.SelectionFunc = func(name string, choices []string) (int, bool) {
		assert.Equal(t, []string{"foo", "bar"}, choices)
		return 1, true
	}
	got := ResolveOne(buf, []*jsmodule.Module{a, b})
	assert.Same(t, b, got)
}

func TestResolveOne_DismissedSelectionReturnsNil(t *testing.T) {
	a := &jsmodule.Module{ImportPath: "foo", DisplayName: "foo"}
	b := &jsmodule.Module{ImportPath: "bar", DisplayName: "bar"}
	buf := editor.NewBuffer("/a.js", "")
	buf.SelectionFunc = func(name string, choices []string) (int, bool) {
		return 0, false
	}
	assert.Nil(t, ResolveOne(buf, []*jsmodule.Module{a, b}))
}

func TestResolveGoto_SingleCandidateShortCircuits(t *testing.T) {
	m := &jsmodule.Module{ImportPath: "foo"}
	got := ResolveGoto(editor.NewBuffer("/a.js", ""), []*jsmodule.Module{m}, "foo", nil)
	assert.Same(t, m, got)
}

func TestResolveGoto_NoCandidatesSynthesizesBareModuleFromBlock(t *testing.T) {
	block := &importblock.Block{}
	block.Add(importstmt.New("some/path", importstmt.KeywordImport, ""))
	block.StatementForPath("some/path").DefaultImport = "bar"

	got := ResolveGoto(editor.NewBuffer("/a.js", ""), nil, "bar", block)
	require.NotNil(t, got)
	assert.Equal(t, "some/path", got.ImportPath)
}

func TestResolveGoto_MatchesCandidateByStatementPath(t *testing.T) {
	block := &importblock.Block{}
	block.Add(importstmt.New("some/path", importstmt.KeywordImport, ""))
	block.StatementForPath("some/path").DefaultImport = "bar"

	other := &jsmodule.Module{ImportPath: "other/path"}
	match := &jsmodule.Module{ImportPath: "some/path"}

	got := ResolveGoto(editor.NewBuffer("/a.js", ""), []*jsmodule.Module{other, match}, "bar", block)
	assert.Same(t, match, got)
}

func TestResolveGoto_NoBlockMatchFallsThroughToResolveOne(t *testing.T) {
	a := &jsmodule.Module{ImportPath: "foo", DisplayName: "foo"}
	b := &jsmodule.Module{ImportPath: "bar", DisplayName: "bar"}
	buf := editor.NewBuffer("/a.js", "")
	buf.SelectionFunc = func(name string, choices []string) (int, bool) {
		return 0, true
	}
	got := ResolveGoto(buf, []*jsmodule.Module{a, b}, "nothing", nil)
	assert.Same(t, a, got)
}
