// Package buildcache lets a conversion run skip work when nothing changed.
//
// The cache records a fingerprint of every schema input and run option, plus
// the content hash of every file the run wrote. A later run whose inputs hash
// the same, and whose outputs are still on disk untouched, can return early.
//
// The cache is conservative: any mismatch means a full run. There is no
// per-unit invalidation because a named type may be imported by any unit.
package buildcache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/zeebo/xxh3"
)

// SchemaVersion is bumped when the cache format or the rendering changes.
// A mismatch forces a full run so binary upgrades never reuse stale output.
const SchemaVersion = 1

// FileName is the cache file kept inside the output directory.
const FileName = ".schemats-cache"

// Cache is what was true when the last run succeeded.
type Cache struct {
	// V must match SchemaVersion.
	V int `json:"v"`

	// InputHash fingerprints schema file names, contents and run options.
	InputHash string `json:"inputHash"`

	// Outputs maps each written file to the hash of its content.
	Outputs map[string]string `json:"outputs"`
}

// CachePath returns the cache location for an output directory. Deleting the
// output directory therefore also drops the cache.
func CachePath(outDir string) string {
	return filepath.Join(outDir, FileName)
}

// Load reads a cache file. It returns nil when the file is missing or
// unreadable; callers treat nil as a miss.
func Load(path string) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	return &c
}

// Save writes the cache atomically (write to temp, rename).
func Save(path string, cache *Cache) error {
	data, err := json.Marshal(cache, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// Delete removes the cache file. Errors are ignored (file may not exist).
func Delete(path string) {
	os.Remove(path)
}

// IsValid reports whether a run with the given input hash may be skipped:
//
//  1. Schema version matches (catches binary upgrades)
//  2. Input hash matches
//  3. Every recorded output still exists with its recorded content
func (c *Cache) IsValid(inputHash string) bool {
	if c == nil {
		return false
	}
	if c.V != SchemaVersion {
		return false
	}
	if c.InputHash != inputHash {
		return false
	}
	for path, want := range c.Outputs {
		if HashFile(path) != want {
			return false
		}
	}
	return true
}

// HashFile returns the xxh3 hex digest of a file, or "" if it can't be read.
func HashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex128(h.Sum128())
}

// HashInputs fingerprints files (name and content, in sorted order) together
// with extra strings such as serialized options. A missing file still
// contributes its name so deletions change the hash.
func HashInputs(files []string, extra ...string) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	h := xxh3.New()
	for _, s := range extra {
		fmt.Fprintf(h, "x%d:%s\n", len(s), s)
	}
	for _, path := range sorted {
		fmt.Fprintf(h, "f%d:%s\n", len(path), path)
		fmt.Fprintf(h, "%s\n", HashFile(path))
	}
	return hex128(h.Sum128())
}

// New records the current input hash and the content of outputs.
func New(inputHash string, outputs []string) *Cache {
	c := &Cache{
		V:         SchemaVersion,
		InputHash: inputHash,
		Outputs:   make(map[string]string, len(outputs)),
	}
	for _, path := range outputs {
		c.Outputs[path] = HashFile(path)
	}
	return c
}

func hex128(u xxh3.Uint128) string {
	return fmt.Sprintf("%016x%016x", u.Hi, u.Lo)
}
