package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tsgonest/schemats/internal/config"
	"github.com/tsgonest/schemats/internal/convert"
	"github.com/tsgonest/schemats/internal/diagnostic"
)

func newGenerateCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	var timing bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Convert a schema directory into TypeScript declarations",
		Long: `Convert every schema file below the schema directory into a TypeScript
declaration file below the type output directory.

Nothing is written when any schema fails to convert. Unchanged outputs are
left untouched and outputs of removed schema files are deleted.

Examples:
  schemats generate
  schemats generate --schemas schemas --out src/types
  schemats generate --strict --no-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, f)
			if err != nil {
				return err
			}
			if err := cfg.RequireDirectories(); err != nil {
				return err
			}
			report, err := generate(cmd.Context(), cfg, f.quiet, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if timing {
				report.Timing.Print()
			}
			return nil
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().BoolVar(&timing, "timing", false, "Print a timing breakdown")
	return cmd
}

// generate runs one conversion and prints its diagnostics and outcome.
func generate(ctx context.Context, cfg *config.Config, quiet bool, w io.Writer) (*convert.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	diag := diagnostic.NewCollector(cfg.Strict, quiet)
	report, err := convert.Run(ctx, cfg.Options(), diag)
	printDiagnostics(w, diag)
	if err != nil {
		return nil, err
	}
	printReport(w, report)
	return report, nil
}

func printDiagnostics(w io.Writer, diag *diagnostic.Collector) {
	if out := diag.FormatAll(); out != "" {
		fmt.Fprint(w, out)
		fmt.Fprintln(w, diag.Summary())
	}
}

func printReport(w io.Writer, r *convert.Report) {
	if r.CacheHit {
		fmt.Fprintf(w, "schemas unchanged (%d files), nothing to do\n", len(r.Files))
		return
	}
	fmt.Fprintf(w, "generated %d unit(s) from %d file(s): %d written, %d unchanged",
		len(r.Units), len(r.Files), len(r.Written), len(r.Unchanged))
	if len(r.Removed) > 0 {
		fmt.Fprintf(w, ", %d removed", len(r.Removed))
	}
	fmt.Fprintln(w)
}
