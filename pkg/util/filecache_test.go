package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspaceFixture writes the handful of file shapes pkg/workspace's scan
// actually has to cope with: a normal module, a non-ASCII one, an empty
// file, and something big enough to make mmap worth it.
func workspaceFixture(t *testing.T) (dir string, files map[string]string) {
	t.Helper()

	dir = t.TempDir()
	files = make(map[string]string)

	widget := `export class Widget {
  render(): string {
    return "widget";
  }
}`
	widgetPath := filepath.Join(dir, "Widget.ts")
	require.NoError(t, os.WriteFile(widgetPath, []byte(widget), 0644))
	files["Widget.ts"] = widgetPath

	unicode := `function greet(name: string): string {
  // 👋 says hello
  return "hello " + name + " 你好";
}`
	unicodePath := filepath.Join(dir, "greet.ts")
	require.NoError(t, os.WriteFile(unicodePath, []byte(unicode), 0644))
	files["greet.ts"] = unicodePath

	emptyPath := filepath.Join(dir, "empty.ts")
	require.NoError(t, os.WriteFile(emptyPath, []byte{}, 0644))
	files["empty.ts"] = emptyPath

	largeCode := strings.Repeat("export const line = 1;\n", 1000)
	largePath := filepath.Join(dir, "large.js")
	require.NoError(t, os.WriteFile(largePath, []byte(largeCode), 0644))
	files["large.js"] = largePath

	return dir, files
}

func TestFileCacheBasicOperations(t *testing.T) {
	_, files := workspaceFixture(t)
	widgetPath := files["Widget.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	assert.Equal(t, 0, cache.Size())

	mf, err := cache.Get(widgetPath)
	require.NoError(t, err)
	require.NotNil(t, mf)
	assert.Equal(t, widgetPath, mf.Path)
	assert.NotNil(t, mf.Data)
	assert.Greater(t, mf.Size, int64(0))
	assert.Equal(t, 1, cache.Size())

	mf2, err := cache.Get(widgetPath)
	require.NoError(t, err)
	assert.Equal(t, mf.Path, mf2.Path)

	code, err := cache.FetchCode(widgetPath, 13, 19)
	require.NoError(t, err)
	assert.Equal(t, "Widget", code)

	code, err = cache.FetchCode(widgetPath, 0, 18)
	require.NoError(t, err)
	assert.Contains(t, code, "export class")

	stats := cache.Stats()
	assert.Equal(t, 1, stats.FilesCached)
	assert.Greater(t, stats.CacheHits, int64(0))
	assert.Equal(t, int64(1), stats.FilesLoaded)
	assert.Greater(t, stats.TotalMappedMB, float64(0))

	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Size())
}

func TestFileCacheMaxFilesLimit(t *testing.T) {
	dir := t.TempDir()

	cache := NewFileCache(&FileCacheConfig{MaxFiles: 2, EnableMetrics: true})
	defer cache.Close()

	paths := make([]string, 3)
	for i := range paths {
		p := filepath.Join(dir, fmt.Sprintf("mod%d.ts", i))
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("export const x%d = %d;\n", i, i)), 0644))
		paths[i] = p
	}

	_, err := cache.Get(paths[0])
	require.NoError(t, err)
	_, err = cache.Get(paths[1])
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Size())

	_, err = cache.Get(paths[2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FileCache limit reached")
	assert.Contains(t, err.Error(), "2 files")
	assert.Equal(t, 2, cache.Size())
}

func TestFileCacheMaxMemoryLimit(t *testing.T) {
	dir := t.TempDir()

	cache := NewFileCache(&FileCacheConfig{MaxMemoryMB: 1, EnableMetrics: true})
	defer cache.Close()

	small := filepath.Join(dir, "small.ts")
	require.NoError(t, os.WriteFile(small, []byte(strings.Repeat("x", 512*1024)), 0644))
	_, err := cache.Get(small)
	require.NoError(t, err)

	medium := filepath.Join(dir, "medium.ts")
	require.NoError(t, os.WriteFile(medium, []byte(strings.Repeat("y", 614*1024)), 0644))
	_, err = cache.Get(medium)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FileCache memory limit reached")
	assert.Contains(t, err.Error(), "1 MB")
}

func TestFileCacheUnbounded(t *testing.T) {
	dir := t.TempDir()

	cache := NewFileCache(UnboundedFileCacheConfig())
	defer cache.Close()

	const numFiles = 100
	for i := 0; i < numFiles; i++ {
		path := filepath.Join(dir, fmt.Sprintf("mod%d.ts", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("export const v%d = %d;\n", i, i)), 0644))
		_, err := cache.Get(path)
		require.NoError(t, err)
	}

	assert.Equal(t, numFiles, cache.Size())

	stats := cache.Stats()
	assert.Equal(t, numFiles, stats.FilesCached)
	assert.Equal(t, int64(numFiles), stats.FilesLoaded)
}

// TestFileCacheConcurrentAccess mirrors the shape of pkg/workspace's
// initial scan: many goroutines, a handful of distinct files.
func TestFileCacheConcurrentAccess(t *testing.T) {
	_, files := workspaceFixture(t)
	widgetPath := files["Widget.ts"]
	greetPath := files["greet.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			path := widgetPath
			if id%2 == 0 {
				path = greetPath
			}
			mf, err := cache.Get(path)
			if err != nil {
				errs <- fmt.Errorf("goroutine %d Get: %w", id, err)
				return
			}
			if len(mf.Data) > 10 {
				if _, err := cache.FetchCode(path, 0, 10); err != nil {
					errs <- fmt.Errorf("goroutine %d FetchCode: %w", id, err)
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	stats := cache.Stats()
	assert.Equal(t, 2, stats.FilesCached)
	assert.Greater(t, stats.CacheHits, int64(90))
}

func TestFileCacheByteOffsetValidation(t *testing.T) {
	_, files := workspaceFixture(t)
	widgetPath := files["Widget.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	mf, err := cache.Get(widgetPath)
	require.NoError(t, err)
	fileSize := uint32(len(mf.Data))

	tests := []struct {
		name      string
		start     uint32
		end       uint32
		shouldErr bool
	}{
		{"valid range", 0, 10, false},
		{"end before start", 10, 5, true},
		{"end equals start", 10, 10, true},
		{"end beyond file size", 0, fileSize + 100, true},
		{"start at file end", fileSize, fileSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cache.FetchCode(widgetPath, tt.start, tt.end)
			if tt.shouldErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid byte range")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFileCacheUnicodeOffsets(t *testing.T) {
	_, files := workspaceFixture(t)
	greetPath := files["greet.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	mf, err := cache.Get(greetPath)
	require.NoError(t, err)

	code, err := cache.FetchCode(greetPath, 9, 14)
	require.NoError(t, err)
	assert.Equal(t, "greet", code)

	code, err = cache.FetchCode(greetPath, 0, uint32(len(mf.Data)))
	require.NoError(t, err)
	assert.Contains(t, code, "👋")
	assert.Contains(t, code, "你好")
}

func TestFileCacheEmptyFiles(t *testing.T) {
	_, files := workspaceFixture(t)
	emptyPath := files["empty.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	mf, err := cache.Get(emptyPath)
	require.NoError(t, err)
	assert.Equal(t, int64(0), mf.Size)
	assert.Nil(t, mf.Data)

	code, err := cache.FetchCode(emptyPath, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "", code)

	_, err = cache.FetchCode(emptyPath, 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid byte range for empty file")
}

func TestFileCacheResourceCleanup(t *testing.T) {
	_, files := workspaceFixture(t)
	widgetPath := files["Widget.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())

	_, err := cache.Get(widgetPath)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())

	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Size())

	// Get after Close reloads rather than erroring — the cache has no
	// notion of being permanently shut, only emptied.
	_, err = cache.Get(widgetPath)
	require.NoError(t, err)
	require.NoError(t, cache.Close())
}

func TestFileCacheStatsAccuracy(t *testing.T) {
	dir, files := workspaceFixture(t)
	widgetPath := files["Widget.ts"]
	greetPath := files["greet.ts"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	stats := cache.Stats()
	assert.Equal(t, 0, stats.FilesCached)
	assert.Equal(t, int64(0), stats.FilesLoaded)
	assert.Equal(t, int64(0), stats.CacheHits)

	_, err := cache.Get(widgetPath)
	require.NoError(t, err)
	stats = cache.Stats()
	assert.Equal(t, 1, stats.FilesCached)
	assert.Equal(t, int64(1), stats.FilesLoaded)
	assert.Equal(t, int64(0), stats.CacheHits)

	_, err = cache.Get(widgetPath)
	require.NoError(t, err)
	stats = cache.Stats()
	assert.Equal(t, int64(1), stats.FilesLoaded)
	assert.Greater(t, stats.CacheHits, int64(0))

	_, err = cache.Get(greetPath)
	require.NoError(t, err)
	stats = cache.Stats()
	assert.Equal(t, 2, stats.FilesCached)
	assert.Equal(t, int64(2), stats.FilesLoaded)

	for i := 0; i < 10; i++ {
		cache.Get(widgetPath)
		cache.Get(greetPath)
	}
	stats = cache.Stats()
	assert.Equal(t, int64(2), stats.FilesLoaded)
	assert.Greater(t, stats.CacheHits, int64(15))

	_, err = cache.Get(filepath.Join(dir, "missing.ts"))
	require.Error(t, err)
	stats = cache.Stats()
	assert.Equal(t, 2, stats.FilesCached)
}

func TestFileCacheMissingFile(t *testing.T) {
	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	_, err := cache.Get("/nonexistent/workspace/Widget.ts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to")

	_, err = cache.FetchCode("/nonexistent/workspace/Widget.ts", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to")
}

// BenchmarkFileCacheFetchCode compares sliced mmap reads against a plain
// os.ReadFile for small-window access to the first bytes of a file.
func BenchmarkFileCacheFetchCode(b *testing.B) {
	dir := b.TempDir()

	const numFiles = 10
	paths := make([]string, numFiles)
	for i := 0; i < numFiles; i++ {
		path := filepath.Join(dir, fmt.Sprintf("mod%d.ts", i))
		content := strings.Repeat(fmt.Sprintf("export const line%d = %d;\n", i, i), 500)
		require.NoError(b, os.WriteFile(path, []byte(content), 0644))
		paths[i] = path
	}

	b.Run("FileCache", func(b *testing.B) {
		cache := NewFileCache(DefaultFileCacheConfig())
		defer cache.Close()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := cache.FetchCode(paths[i%numFiles], 0, 100); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ReadFile", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			data, err := os.ReadFile(paths[i%numFiles])
			if err != nil {
				b.Fatal(err)
			}
			_ = string(data[0:100])
		}
	})
}

func BenchmarkFileCacheLargeFile(b *testing.B) {
	dir := b.TempDir()

	content := strings.Repeat("export const line = 1;\n", 4000)
	path := filepath.Join(dir, "large.js")
	require.NoError(b, os.WriteFile(path, []byte(content), 0644))

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		offset := uint32((i * 1024) % (len(content) - 1024))
		if _, err := cache.FetchCode(path, offset, offset+1024); err != nil {
			b.Fatal(err)
		}
	}
}
