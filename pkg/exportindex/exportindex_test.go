package exportindex

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importjs-go/importjs/pkg/parser"
	"github.com/importjs-go/importjs/pkg/parser/queries"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return New(pm, qm, logger)
}

func TestIndexFile_ESNamedExports(t *testing.T) {
	ix := newTestIndex(t)
	src := []byte("export function foo() {}\nexport class Bar {}\nexport const baz = 1;\n")

	exports, err := ix.IndexFile("/repo/mod.js", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foo", "Bar", "baz"}, exports.Named)
	assert.False(t, exports.HasDefault)
}

func TestIndexFile_ESDefaultExport(t *testing.T) {
	ix := newTestIndex(t)
	src := []byte("function foo() {}\nexport default foo;\n")

	exports, err := ix.IndexFile("/repo/mod.js", src)
	require.NoError(t, err)
	assert.True(t, exports.HasDefault)
	assert.False(t, exports.HasNamedExports())
}

func TestIndexFile_CommonJSNamedExports(t *testing.T) {
	ix := newTestIndex(t)
	src := []byte("exports.foo = function() {};\nmodule.exports.bar = 1;\n")

	exports, err := ix.IndexFile("/repo/mod.js", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foo", "bar"}, exports.Named)
}

func TestIndexFile_CommonJSDefaultExport(t *testing.T) {
	ix := newTestIndex(t)
	src := []byte("function foo() {}\nmodule.exports = foo;\n")

	exports, err := ix.IndexFile("/repo/mod.js", src)
	require.NoError(t, err)
	assert.True(t, exports.HasDefault)
}

func TestFilesExporting_LooksUpByName(t *testing.T) {
	ix := newTestIndex(t)
	_, err := ix.IndexFile("/repo/a.js", []byte("export function foo() {}\n"))
	require.NoError(t, err)
	_, err = ix.IndexFile("/repo/b.js", []byte("export function bar() {}\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/repo/a.js"}, ix.FilesExporting("foo"))
	assert.Empty(t, ix.FilesExporting("nonexistent"))
}

func TestRemove_DropsFileFromNameIndex(t *testing.T) {
	ix := newTestIndex(t)
	_, err := ix.IndexFile("/repo/a.js", []byte("export function foo() {}\n"))
	require.NoError(t, err)

	ix.Remove("/repo/a.js")

	_, ok := ix.Lookup("/repo/a.js")
	assert.False(t, ok)
	assert.Empty(t, ix.FilesExporting("foo"))
}

func TestIndexFile_Reindexing_ReplacesPreviousEntry(t *testing.T) {
	ix := newTestIndex(t)
	_, err := ix.IndexFile("/repo/a.js", []byte("export function foo() {}\n"))
	require.NoError(t, err)

	_, err = ix.IndexFile("/repo/a.js", []byte("export function renamed() {}\n"))
	require.NoError(t, err)

	assert.Empty(t, ix.FilesExporting("foo"))
	assert.Equal(t, []string{"/repo/a.js"}, ix.FilesExporting("renamed"))
}

func TestIndexFile_UnsupportedExtension(t *testing.T) {
	ix := newTestIndex(t)
	_, err := ix.IndexFile("/repo/a.txt", []byte("hello"))
	assert.Error(t, err)
}
