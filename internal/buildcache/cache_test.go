package buildcache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCachePath(t *testing.T) {
	tests := []struct {
		outDir string
		want   string
	}{
		{"/project/types", "/project/types/.schemats-cache"},
		{"types", "types/.schemats-cache"},
	}
	for _, tt := range tests {
		got := CachePath(tt.outDir)
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("CachePath(%q) = %q, want %q", tt.outDir, got, tt.want)
		}
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("hello world"), 0644)
	hash1 := HashFile(path)
	if hash1 == "" {
		t.Fatal("HashFile returned empty for existing file")
	}

	path2 := filepath.Join(dir, "test2.txt")
	os.WriteFile(path2, []byte("hello world"), 0644)
	if hash2 := HashFile(path2); hash1 != hash2 {
		t.Errorf("same content produced different hashes: %q vs %q", hash1, hash2)
	}

	path3 := filepath.Join(dir, "test3.txt")
	os.WriteFile(path3, []byte("hello world!"), 0644)
	if hash1 == HashFile(path3) {
		t.Error("different content produced same hash")
	}

	if hash4 := HashFile(filepath.Join(dir, "nonexistent")); hash4 != "" {
		t.Errorf("HashFile returned %q for non-existent file, want empty", hash4)
	}
}

func TestHashInputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	os.WriteFile(a, []byte("type: string"), 0644)
	os.WriteFile(b, []byte("type: number"), 0644)

	base := HashInputs([]string{a, b}, "sort=true")
	if got := HashInputs([]string{b, a}, "sort=true"); got != base {
		t.Error("input order changed the hash")
	}
	if got := HashInputs([]string{a, b}, "sort=false"); got == base {
		t.Error("options did not change the hash")
	}
	if got := HashInputs([]string{a}, "sort=true"); got == base {
		t.Error("dropping a file did not change the hash")
	}

	os.WriteFile(b, []byte("type: boolean"), 0644)
	if got := HashInputs([]string{a, b}, "sort=true"); got == base {
		t.Error("content change did not change the hash")
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, FileName)

	if c := Load(cachePath); c != nil {
		t.Fatal("Load should return nil for non-existent file")
	}

	out := filepath.Join(dir, "User.ts")
	os.WriteFile(out, []byte("export interface User {}\n"), 0644)

	original := New("abc123", []string{out})
	if err := Save(cachePath, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Load(cachePath)
	if loaded == nil {
		t.Fatal("Load returned nil after Save")
	}
	if loaded.V != original.V {
		t.Errorf("V = %d, want %d", loaded.V, original.V)
	}
	if loaded.InputHash != original.InputHash {
		t.Errorf("InputHash = %q, want %q", loaded.InputHash, original.InputHash)
	}
	if loaded.Outputs[out] != original.Outputs[out] || loaded.Outputs[out] == "" {
		t.Errorf("Outputs[%q] = %q, want %q", out, loaded.Outputs[out], original.Outputs[out])
	}
	if _, err := os.Stat(cachePath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestLoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, FileName)
	os.WriteFile(cachePath, []byte("not json at all {{{"), 0644)

	if c := Load(cachePath); c != nil {
		t.Fatal("Load should return nil for corrupted JSON")
	}
}

func TestIsValid(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "Role.ts")
	os.WriteFile(out, []byte("export type Role = 'Admin';\n"), 0644)
	c := New("hash", []string{out})

	t.Run("nil cache", func(t *testing.T) {
		var nilCache *Cache
		if nilCache.IsValid("hash") {
			t.Error("nil cache should not be valid")
		}
	})
	t.Run("all checks pass", func(t *testing.T) {
		if !c.IsValid("hash") {
			t.Error("cache should be valid")
		}
	})
	t.Run("version mismatch", func(t *testing.T) {
		stale := *c
		stale.V = SchemaVersion + 1
		if stale.IsValid("hash") {
			t.Error("cache with wrong schema version should not be valid")
		}
	})
	t.Run("input mismatch", func(t *testing.T) {
		if c.IsValid("other") {
			t.Error("cache with mismatched input hash should not be valid")
		}
	})
	t.Run("output edited", func(t *testing.T) {
		os.WriteFile(out, []byte("// edited by hand\n"), 0644)
		defer os.WriteFile(out, []byte("export type Role = 'Admin';\n"), 0644)
		if c.IsValid("hash") {
			t.Error("cache with edited output should not be valid")
		}
	})
	t.Run("output removed", func(t *testing.T) {
		os.Remove(out)
		if c.IsValid("hash") {
			t.Error("cache with missing output should not be valid")
		}
	})
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, FileName)
	if err := Save(cachePath, New("x", nil)); err != nil {
		t.Fatal(err)
	}
	Delete(cachePath)
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Error("cache file still exists after Delete")
	}
	Delete(cachePath)
}
