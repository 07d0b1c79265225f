package build

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/segmentio/encoding/json"
)

// CacheEntry records the last build of a source file for one emit
// format: its content hash and the textual output produced for it.
type CacheEntry struct {
	SourceHash string `json:"source_hash"`
	Emit       string `json:"emit"` // "mir" or "llvm"
	Output     string `json:"output"`
}

// CacheManager stores one CacheEntry per (source file, emit format)
// under cacheDir, so an unchanged source skips re-running the whole
// lex/parse/check/translate/emit pipeline.
type CacheManager struct {
	cacheDir string
}

func NewCacheManager(cacheDir string) *CacheManager {
	return &CacheManager{cacheDir: cacheDir}
}

// Lookup returns the cached output for sourcePath/emit if the file's
// content hash still matches, and false otherwise (no cache, hash
// mismatch, or a read/parse error, all of which mean "rebuild").
func (c *CacheManager) Lookup(sourcePath, emit string) (string, bool) {
	hash, err := c.hashFile(sourcePath)
	if err != nil {
		return "", false
	}

	data, err := os.ReadFile(c.entryPath(sourcePath, emit))
	if err != nil {
		return "", false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	if entry.SourceHash != hash || entry.Emit != emit {
		return "", false
	}
	return entry.Output, true
}

// Save records output as the current build of sourcePath/emit.
func (c *CacheManager) Save(sourcePath, emit, output string) error {
	hash, err := c.hashFile(sourcePath)
	if err != nil {
		return err
	}
	entry := CacheEntry{SourceHash: hash, Emit: emit, Output: output}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(c.entryPath(sourcePath, emit), data, 0644)
}

func (c *CacheManager) hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (c *CacheManager) entryPath(sourcePath, emit string) string {
	base := filepath.Base(sourcePath)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(c.cacheDir, name+"."+emit+".cache.json")
}
