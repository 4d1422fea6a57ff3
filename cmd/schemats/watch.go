package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsgonest/schemats/internal/config"
	"github.com/tsgonest/schemats/internal/runner"
	"github.com/tsgonest/schemats/internal/watcher"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	var (
		execCmd             string
		debounce            time.Duration
		preserveWatchOutput bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate declarations whenever a schema file changes",
		Long: `Generate once, then regenerate whenever a schema file is created, changed
or removed. With --exec, the command is started after the first successful
run and restarted after every later one.

Examples:
  schemats watch
  schemats watch --exec "npx tsc --noEmit"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, f)
			if err != nil {
				return err
			}
			if err := cfg.RequireDirectories(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			s := &watchSession{
				cfg:      cfg,
				quiet:    f.quiet,
				clear:    !preserveWatchOutput,
				out:      cmd.ErrOrStderr(),
				debounce: debounce,
			}
			if execCmd != "" {
				s.proc = runner.Shell(execCmd, cfg.Dir)
			}
			return s.run(ctx)
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().StringVar(&execCmd, "exec", "", "Command to (re)start after each successful generation")
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before regenerating")
	cmd.Flags().BoolVar(&preserveWatchOutput, "preserveWatchOutput", false, "Don't clear the console between runs")
	return cmd
}

// watchSession serializes regenerations triggered by the watcher.
type watchSession struct {
	cfg      *config.Config
	quiet    bool
	clear    bool
	out      io.Writer
	debounce time.Duration
	proc     *runner.Runner

	mu sync.Mutex
}

func (s *watchSession) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "performing initial generation...")
	s.regenerate(ctx, false)

	if s.proc != nil {
		defer s.proc.Stop()
	}

	w := watcher.New([]string{s.cfg.SchemaDirectory}, s.cfg.Extensions, s.debounce,
		func(events []watcher.Event) {
			if s.clear {
				fmt.Fprint(s.out, "\033[2J\033[H")
			}
			fmt.Fprintf(s.out, "\ndetected %d change(s), regenerating...\n", len(events))
			s.regenerate(ctx, true)
		})
	w.Ignore(s.cfg.TypeOutputDirectory)

	fmt.Fprintln(s.out, "watching for changes...")
	err := w.Watch(ctx)
	fmt.Fprintln(s.out, "shutting down...")
	return err
}

// regenerate runs one conversion. A failed run keeps the previous outputs
// and leaves the child process alone.
func (s *watchSession) regenerate(ctx context.Context, restart bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}

	if _, err := generate(ctx, s.cfg, s.quiet, s.out); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		fmt.Fprintln(s.out, "generation failed, waiting for changes...")
		return false
	}
	if s.proc == nil {
		return true
	}

	var err error
	if restart && s.proc.Running() {
		fmt.Fprintln(s.out, "restarting...")
		err = s.proc.Restart()
	} else {
		err = s.proc.Start()
	}
	if err != nil {
		fmt.Fprintf(s.out, "error starting command: %v\n", err)
	}
	return true
}
