package main

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"

	"github.com/tsgonest/schemats/internal/convert"
	"github.com/tsgonest/schemats/internal/diagnostic"
	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/registry"
)

// registryDump is the JSON output of the dump command.
type registryDump struct {
	Entries     []*registry.Entry `json:"entries"`
	Diagnostics []diagnosticDump  `json:"diagnostics"`
}

type diagnosticDump struct {
	Severity string `json:"severity"`
	Category string `json:"category,omitempty"`
	File     string `json:"file,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
}

func newDumpCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the synthesized declarations as JSON (debug)",
		Long: `Synthesize every schema file and print the named declarations and
diagnostics as JSON on stdout. Nothing is written to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, f)
			if err != nil {
				return err
			}
			diag := diagnostic.NewCollector(cfg.Strict, f.quiet)
			reg, err := convert.Synthesize(cmd.Context(), cfg.Options(), diag)
			if err != nil {
				printDiagnostics(cmd.ErrOrStderr(), diag)
				return err
			}
			return writeDump(cmd.OutOrStdout(), reg, diag)
		},
	}
	addRunFlags(cmd, f)
	return cmd
}

func writeDump(w io.Writer, reg *registry.Registry, diag *diagnostic.Collector) error {
	d := registryDump{
		Entries:     reg.Entries(),
		Diagnostics: []diagnosticDump{},
	}
	for _, x := range diag.Diagnostics() {
		d.Diagnostics = append(d.Diagnostics, diagnosticDump{
			Severity: x.Severity.String(),
			Category: string(x.Category),
			File:     x.File,
			Path:     x.Path,
			Message:  x.Message,
			Hint:     x.Hint,
		})
	}
	data, err := json.Marshal(d, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return errors.Wrap(err, "encoding dump")
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return errors.Wrap(err, "writing dump")
	}
	if diag.HasErrors() {
		return errReported
	}
	return nil
}
