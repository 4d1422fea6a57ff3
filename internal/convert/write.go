package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/tsgonest/schemats/internal/buildcache"
	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/logger"
)

// writeUnits writes every rendered unit below outDir and returns the output
// paths in unit order.
func writeUnits(outDir string, rendered map[string]string, report *Report) ([]string, error) {
	names := make([]string, 0, len(rendered))
	for name := range rendered {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(outDir, filepath.FromSlash(name)+backend.FileExtension())
		changed, err := writeFile(p, rendered[name])
		if err != nil {
			return nil, err
		}
		if changed {
			report.Written = append(report.Written, p)
			logger.Logger.Debugw("wrote unit", "unit", name, "path", p)
		} else {
			report.Unchanged = append(report.Unchanged, p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// writeFile replaces path with content unless it already holds exactly that.
// Skipping identical content keeps downstream watchers quiet. The new content
// goes to a temporary file first so readers never see a partial unit.
func writeFile(path, content string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, []byte(content)) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrapf(err, "creating directory for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, errors.Wrapf(err, "writing %s", path)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, errors.Wrapf(err, "writing %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, errors.Wrapf(err, "writing %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return false, errors.Wrapf(err, "writing %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return false, errors.Wrapf(err, "replacing %s", path)
	}
	return true, nil
}

// removeStale deletes outputs recorded by the previous run that the current
// run no longer produces. Only files the tool wrote itself are touched, and
// only while they still hold what it wrote.
func removeStale(previous *buildcache.Cache, current []string) []string {
	keep := make(map[string]bool, len(current))
	for _, p := range current {
		keep[p] = true
	}
	var removed []string
	for p, hash := range previous.Outputs {
		if keep[p] || hash == "" || buildcache.HashFile(p) != hash {
			continue
		}
		if err := os.Remove(p); err == nil {
			removed = append(removed, p)
		}
	}
	sort.Strings(removed)
	return removed
}
