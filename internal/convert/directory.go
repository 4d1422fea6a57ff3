package convert

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsgonest/schemats/internal/buildcache"
	"github.com/tsgonest/schemats/internal/diagnostic"
	"github.com/tsgonest/schemats/internal/emit"
	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/logger"
	"github.com/tsgonest/schemats/internal/registry"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/synth"
)

// IndexUnit is the barrel unit written when IndexAllToRoot is set.
const IndexUnit = "index"

// Report describes a finished directory run.
type Report struct {
	// Files are the schema files read, slash separated and relative to the
	// schema directory.
	Files []string
	// Units are the output units rendered, in name order.
	Units []string
	// Written and Unchanged partition the output files of the run.
	Written   []string
	Unchanged []string
	// Removed lists outputs of the previous run that no unit produces anymore.
	Removed []string
	// CacheHit is set when the run was skipped.
	CacheHit bool
	Timing   Timing
}

// FromDirectory converts every schema file below opts.SchemaDirectory and
// reports overall success. Failures are logged; use Run for the error.
func FromDirectory(ctx context.Context, opts Options, diag *diagnostic.Collector) bool {
	if _, err := Run(ctx, opts, diag); err != nil {
		logger.Logger.Errorw("conversion failed", "error", err)
		return false
	}
	return true
}

// Run converts a schema directory. Nothing is written unless every unit
// synthesized and rendered; each file is replaced atomically.
func Run(ctx context.Context, opts Options, diag *diagnostic.Collector) (*Report, error) {
	log := logger.Named("convert")
	start := time.Now()
	report := &Report{}

	if opts.SchemaDirectory == "" || opts.TypeOutputDirectory == "" {
		return nil, errors.WithHint(errors.New("schema and type output directories are required"),
			"set schema_directory and type_output_directory in schemats.yaml or pass --schemas/--out")
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}

	phase := time.Now()
	files, err := discover(opts)
	if err != nil {
		return nil, err
	}
	report.Files = files
	report.Timing.Discover = time.Since(phase)
	log.Debugw("discovered schema files", "count", len(files), "dir", opts.SchemaDirectory)

	cachePath := buildcache.CachePath(opts.TypeOutputDirectory)
	abs := make([]string, len(files))
	for i, f := range files {
		abs[i] = filepath.Join(opts.SchemaDirectory, filepath.FromSlash(f))
	}
	inputHash := buildcache.HashInputs(abs, opts.fingerprint())
	previous := buildcache.Load(cachePath)
	if opts.Cache && previous.IsValid(inputHash) {
		report.CacheHit = true
		report.Timing.Total = time.Since(start)
		log.Infow("schemas unchanged, skipping", "files", len(files))
		return report, nil
	}

	reg, err := synthesizeAll(ctx, opts, files, diag, &report.Timing)
	if err != nil {
		return nil, err
	}

	phase = time.Now()
	units, err := emit.Plan(reg, opts.emitOptions())
	if err != nil {
		return nil, err
	}
	if diag.HasErrors() {
		return nil, errors.WithHint(
			errors.Newf("%d diagnostic error(s) reported", diag.ErrorCount()),
			"fix the reported schemas or run without strict mode")
	}

	eo := opts.emitOptions()
	rendered := make(map[string]string, len(units)+1)
	names := make([]string, 0, len(units))
	for _, u := range units {
		rendered[u.Name] = backend.RenderUnit(u, eo)
		names = append(names, u.Name)
	}
	report.Units = names
	if opts.IndexAllToRoot && len(names) > 0 {
		if _, clash := rendered[IndexUnit]; clash {
			diag.Warn(diagnostic.CategoryConfigInvalid, IndexUnit, "",
				"a schema unit is named index; the index barrel is not written")
		} else {
			rendered[IndexUnit] = backend.RenderIndex(names, eo)
		}
	}
	report.Timing.Render = time.Since(phase)

	phase = time.Now()
	outputs, err := writeUnits(opts.TypeOutputDirectory, rendered, report)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		report.Removed = removeStale(previous, outputs)
	}
	report.Timing.Write = time.Since(phase)

	if opts.Cache {
		if err := buildcache.Save(cachePath, buildcache.New(inputHash, outputs)); err != nil {
			log.Warnw("could not save build cache", "error", err)
		}
	} else {
		buildcache.Delete(cachePath)
	}

	report.Timing.Total = time.Since(start)
	log.Infow("conversion finished",
		"units", len(report.Units), "written", len(report.Written), "unchanged", len(report.Unchanged))
	return report, nil
}

// Synthesize reads and synthesizes every schema file below
// opts.SchemaDirectory without rendering or writing anything. The returned
// registry is finalized.
func Synthesize(ctx context.Context, opts Options, diag *diagnostic.Collector) (*registry.Registry, error) {
	if opts.SchemaDirectory == "" {
		return nil, errors.WithHint(errors.New("schema directory is required"),
			"set schema_directory in schemats.yaml or pass --schemas")
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	files, err := discover(opts)
	if err != nil {
		return nil, err
	}
	reg, err := synthesizeAll(ctx, opts, files, diag, &Timing{})
	if err != nil {
		return nil, err
	}
	if err := reg.Finalize(); err != nil {
		return nil, err
	}
	return reg, nil
}

func synthesizeAll(ctx context.Context, opts Options, files []string, diag *diagnostic.Collector, timing *Timing) (*registry.Registry, error) {
	if err := checkUnits(files, diag); err != nil {
		return nil, err
	}
	phase := time.Now()
	loaded, err := load(ctx, opts.SchemaDirectory, files)
	if err != nil {
		return nil, err
	}
	timing.Load = time.Since(phase)

	phase = time.Now()
	reg := registry.New()
	eng := synth.NewEngine(reg, opts.synthOptions(), diag)
	for _, f := range loaded {
		if err := synthesizeFile(eng, f, diag); err != nil {
			return nil, err
		}
	}
	timing.Synthesize = time.Since(phase)
	return reg, nil
}

// discover lists schema files, slash separated relative to the schema
// directory, in sorted order. Hidden directories and the output directory
// are skipped.
func discover(opts Options) ([]string, error) {
	root := opts.SchemaDirectory
	outAbs, _ := filepath.Abs(opts.TypeOutputDirectory)
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(p); abs == outAbs && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !opts.matchesExtension(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema directory %s", root)
	}
	sort.Strings(files)
	return files, nil
}

type loadedFile struct {
	rel   string
	nodes []*schema.Node
}

// load decodes files concurrently; the result keeps the input order.
func load(ctx context.Context, root string, files []string) ([]loadedFile, error) {
	out := make([]loadedFile, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return errors.Wrapf(err, "reading %s", rel)
			}
			nodes, err := schema.Decode(rel, data)
			if err != nil {
				return err
			}
			out[i] = loadedFile{rel: rel, nodes: nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// unitName maps a schema file to its output unit: the directory plus the
// file name up to its first dot.
func unitName(rel string) string {
	dir, file := path.Split(rel)
	if i := strings.IndexByte(file, '.'); i > 0 {
		file = file[:i]
	}
	return dir + file
}

// checkUnits rejects schema files that would share one output unit, such as
// user.yaml next to user.json.
func checkUnits(files []string, diag *diagnostic.Collector) error {
	owner := make(map[string]string, len(files))
	var first error
	for _, rel := range files {
		unit := unitName(rel)
		prev, ok := owner[unit]
		if !ok {
			owner[unit] = rel
			continue
		}
		msg := fmt.Sprintf("%s and %s both generate %s.ts", prev, rel, unit)
		diag.Error(diagnostic.CategoryConfigInvalid, rel, "", msg)
		if first == nil {
			first = errors.WithHint(errors.New(msg), "rename one of the files or merge their schemas into one file")
		}
	}
	return first
}

func synthesizeFile(eng *synth.Engine, f loadedFile, diag *diagnostic.Collector) error {
	unit := eng.ForUnit(unitName(f.rel))
	for _, n := range f.nodes {
		name := n.Name
		if name == "" && len(f.nodes) == 1 {
			name = schema.DeriveTypeName(f.rel)
		}
		if name == "" {
			diag.WarnWithHint(diagnostic.CategoryUnnamedSchema, n.Source.Unit, n.Source.Path,
				"top-level schema has no name and is skipped",
				"add a name to the schema")
			continue
		}
		if _, err := unit.SynthesizeRoot(n, name); err != nil {
			return errors.Wrapf(err, "converting %s", f.rel)
		}
	}
	return nil
}

// Timing collects the duration of each run phase.
type Timing struct {
	Discover   time.Duration
	Load       time.Duration
	Synthesize time.Duration
	Render     time.Duration
	Write      time.Duration
	Total      time.Duration
}

// Print outputs the timing breakdown to stderr.
func (t *Timing) Print() {
	fmt.Fprintf(os.Stderr, "\n--- timing ---\n")
	fmt.Fprintf(os.Stderr, "  discover:      %s\n", t.Discover.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  load:          %s\n", t.Load.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  synthesize:    %s\n", t.Synthesize.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  render:        %s\n", t.Render.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  write:         %s\n", t.Write.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  total:         %s\n", t.Total.Round(time.Millisecond))
}
