// Package util holds infrastructure with no import-management semantics of
// its own: structured logging, pool sizing, and this file's mmap-backed
// file cache, consulted by pkg/workspace's initial workspace scan so
// indexing thousands of source files doesn't mean thousands of full reads.
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache lazily mmaps files on first access and serves byte-range reads
// from the mapping afterward, rather than re-reading from disk. Reads are
// concurrency-safe; loading a new file takes an exclusive lock.
type FileCache interface {
	// Get returns the file at filePath, mmap'ing it on first access. Falls
	// back to a plain in-memory read if mmap fails (some filesystems, zero
	// length files).
	Get(filePath string) (*MappedFile, error)

	// FetchCode slices [startByte, endByte) out of filePath without
	// re-reading the whole file from disk.
	FetchCode(filePath string, startByte, endByte uint32) (string, error)

	// Size reports how many files are currently cached.
	Size() int

	// Stats reports cumulative hit/miss/failure counts and current mapped
	// memory, for logging at Close or on a diagnostics endpoint.
	Stats() FileCacheStats

	// Close unmaps every cached file. Must be called once the cache is no
	// longer needed.
	Close() error
}

// FileCacheConfig bounds how much a FileCache is allowed to hold open.
type FileCacheConfig struct {
	// MaxFiles caps the number of cached entries; 0 means unlimited. Once
	// reached, Get returns an error instead of evicting (this cache has no
	// eviction policy — a long-lived workspace scan is expected to close
	// and rebuild rather than run indefinitely).
	MaxFiles int

	// MaxMemoryMB caps virtual address space mapped across all entries; 0
	// means unlimited. This is virtual memory, not resident RAM — the OS
	// only pages in ranges actually read.
	MaxMemoryMB int

	// EnableMetrics toggles Stats() bookkeeping.
	EnableMetrics bool

	// Logger receives mmap-fallback warnings and the Close summary. Nil
	// falls back to slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig bounds the cache at 10,000 files / 2GB of virtual
// memory, enough headroom for most JS/TS workspaces' node_modules-excluded
// source trees.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      10000,
		MaxMemoryMB:   2048,
		EnableMetrics: true,
	}
}

// UnboundedFileCacheConfig disables both limits; intended for tests and
// small workspaces where tracking headroom isn't worth the bookkeeping.
func UnboundedFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{EnableMetrics: true}
}

// MappedFile is one cached file: either a real mmap region, or (when mmap
// fails, or the file is empty) an in-memory byte slice wrapped to the same
// shape so callers never need to branch on which path was taken.
type MappedFile struct {
	Path     string
	Data     mmap.MMap
	File     *os.File // nil when Data came from the fallback read path
	Size     int64
	MappedAt time.Time
}

// FileCacheStats are cumulative counters plus the current cache size.
type FileCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	MmapFailures  int64
	TotalMappedMB float64
}

// NewFileCache builds a FileCache from config. A nil config uses
// DefaultFileCacheConfig.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &fileCacheImpl{
		config:        config,
		cache:         make(map[string]*MappedFile),
		fallbackCache: make(map[string][]byte),
		logger:        config.Logger,
	}
}

type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache         map[string]*MappedFile
	fallbackCache map[string][]byte
	mu            sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

func (fc *fileCacheImpl) Get(filePath string) (*MappedFile, error) {
	if mf := fc.lookup(filePath); mf != nil {
		fc.recordHit()
		return mf, nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have loaded filePath while we waited for the lock.
	if mf := fc.lookupLocked(filePath); mf != nil {
		fc.recordHit()
		return mf, nil
	}

	var fileSize int64
	if fc.config.MaxMemoryMB > 0 {
		stat, err := os.Stat(filePath)
		if err != nil {
			fc.recordMiss()
			return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
		}
		fileSize = stat.Size()
	}

	if err := fc.checkLimitsLocked(fileSize); err != nil {
		fc.recordMiss()
		return nil, err
	}

	mf, err := fc.loadFile(filePath)
	if err != nil {
		fc.recordMiss()
		return nil, err
	}

	fc.cache[filePath] = mf
	fc.recordLoad()
	return mf, nil
}

// lookup checks both caches under a read lock.
func (fc *fileCacheImpl) lookup(filePath string) *MappedFile {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.lookupUnlocked(filePath)
}

// lookupLocked is lookup for a caller already holding the write lock.
func (fc *fileCacheImpl) lookupLocked(filePath string) *MappedFile {
	return fc.lookupUnlocked(filePath)
}

func (fc *fileCacheImpl) lookupUnlocked(filePath string) *MappedFile {
	if mf, ok := fc.cache[filePath]; ok {
		return mf
	}
	if data, ok := fc.fallbackCache[filePath]; ok {
		return fc.wrapFallbackData(filePath, data)
	}
	return nil
}

// checkLimitsLocked rejects a load that would push the cache past
// MaxFiles/MaxMemoryMB. Caller must hold mu.Lock.
func (fc *fileCacheImpl) checkLimitsLocked(newFileSize int64) error {
	if fc.config.MaxFiles > 0 {
		current := len(fc.cache) + len(fc.fallbackCache)
		if current >= fc.config.MaxFiles {
			return fmt.Errorf("FileCache limit reached: %d files (limit %d)", current, fc.config.MaxFiles)
		}
	}

	if fc.config.MaxMemoryMB > 0 && newFileSize > 0 {
		afterLoadMB := fc.mappedMBLocked() + float64(newFileSize)/(1024*1024)
		if afterLoadMB >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("FileCache memory limit reached: %.2f MB (limit %d MB)", afterLoadMB, fc.config.MaxMemoryMB)
		}
	}
	return nil
}

// loadFile opens and mmaps filePath, falling back to a full read if mmap
// itself fails. Caller must hold mu.Lock.
func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	if stat.Size() == 0 {
		return &MappedFile{Path: filePath, File: file, MappedAt: time.Now()}, nil
	}

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, falling back to full read", "file", filePath, "size", stat.Size(), "error", err)

		data, readErr := os.ReadFile(filePath)
		file.Close()
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback read failed for %q: mmap error: %v, read error: %w", filePath, err, readErr)
		}

		fc.fallbackCache[filePath] = data
		fc.recordMmapFailure()
		return fc.wrapFallbackData(filePath, data), nil
	}

	return &MappedFile{Path: filePath, Data: mapped, File: file, Size: stat.Size(), MappedAt: time.Now()}, nil
}

func (fc *fileCacheImpl) wrapFallbackData(filePath string, data []byte) *MappedFile {
	return &MappedFile{Path: filePath, Data: mmap.MMap(data), Size: int64(len(data)), MappedAt: time.Now()}
}

func (fc *fileCacheImpl) FetchCode(filePath string, startByte, endByte uint32) (string, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get file %q: %w", filePath, err)
	}

	if len(mf.Data) == 0 {
		if startByte == 0 && endByte == 0 {
			return "", nil
		}
		return "", fmt.Errorf("invalid byte range for empty file %q", filePath)
	}

	if startByte == 0 && endByte == 0 {
		endByte = uint32(len(mf.Data))
	} else if endByte <= startByte {
		return "", fmt.Errorf("invalid byte range: endByte (%d) <= startByte (%d)", endByte, startByte)
	}

	if endByte > uint32(len(mf.Data)) {
		return "", fmt.Errorf("invalid byte range: endByte (%d) > file size (%d) for %q", endByte, len(mf.Data), filePath)
	}

	return string(mf.Data[startByte:endByte]), nil
}

func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.cache) + len(fc.fallbackCache)
}

func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.cache) + len(fc.fallbackCache)
	mappedMB := fc.mappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()

	stats := fc.stats
	stats.FilesCached = cached
	stats.TotalMappedMB = mappedMB
	return stats
}

// mappedMBLocked must be called while holding mu (read or write lock).
func (fc *fileCacheImpl) mappedMBLocked() float64 {
	total := int64(0)
	for _, mf := range fc.cache {
		total += mf.Size
	}
	for _, data := range fc.fallbackCache {
		total += int64(len(data))
	}
	return float64(total) / (1024 * 1024)
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.cache {
		if mf.Data != nil {
			if err := mf.Data.Unmap(); err != nil {
				fc.logger.Warn("failed to unmap file", "path", path, "error", err)
				errs = append(errs, fmt.Errorf("unmap %q: %w", path, err))
			}
		}
		if mf.File != nil {
			if err := mf.File.Close(); err != nil {
				fc.logger.Warn("failed to close file", "path", path, "error", err)
				errs = append(errs, fmt.Errorf("close %q: %w", path, err))
			}
		}
	}

	fc.cache = make(map[string]*MappedFile)
	fc.fallbackCache = make(map[string][]byte)

	fc.logger.Info("file cache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"cache_misses", fc.stats.CacheMisses,
		"mmap_failures", fc.stats.MmapFailures)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

func (fc *fileCacheImpl) recordHit() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.CacheHits++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordMiss() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.CacheMisses++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordLoad() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.FilesLoaded++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordMmapFailure() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.MmapFailures++
	fc.statsMu.Unlock()
}
