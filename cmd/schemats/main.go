package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/logger"
)

const version = "0.1.0-dev"

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer logger.Cleanup()

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "error: %v\n", err)
			for _, hint := range errors.GetAllHints(err) {
				fmt.Fprintf(stderr, "  hint: %s\n", hint)
			}
		}
		return 1
	}
	return 0
}

type globalFlags struct {
	verbosity  int
	jsonLogs   bool
	configPath string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "schemats",
		Short: "Generate TypeScript declarations from schema descriptions",
		Long: `schemats converts YAML and JSON schema descriptions into TypeScript
type declarations, one output file per schema file.

Examples:
  schemats generate --schemas schemas --out src/types
  schemats watch --exec "npm run check"
  schemats dump --schemas schemas`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Initialize(g.jsonLogs, g.verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	root.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", "Increase output verbosity (-v, -vv)")
	root.PersistentFlags().BoolVar(&g.jsonLogs, "json-logs", false, "Emit logs as JSON")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to schemats config file (default: discovered schemats.yaml)")

	root.AddCommand(
		newGenerateCmd(g),
		newWatchCmd(g),
		newDumpCmd(g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the schemats version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "schemats", version)
		},
	}
}
