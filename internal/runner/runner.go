// Package runner manages the child command of `watch --exec`, restarted after
// every successful regeneration.
package runner

import (
	"os"
	"os/exec"
	"sync"

	"github.com/tsgonest/schemats/internal/logger"
)

// Runner manages one child process at a time.
type Runner struct {
	command string
	args    []string
	workDir string

	// DisableStdin detaches the child from our stdin.
	DisableStdin bool

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// New creates a new process runner.
func New(command string, args []string, workDir string) *Runner {
	return &Runner{
		command: command,
		args:    args,
		workDir: workDir,
	}
}

// Shell creates a runner that passes cmdline to the platform shell.
func Shell(cmdline, workDir string) *Runner {
	name, args := shellCommand(cmdline)
	return New(name, args, workDir)
}

func (r *Runner) newCmd() *exec.Cmd {
	cmd := exec.Command(r.command, r.args...)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if !r.DisableStdin {
		cmd.Stdin = os.Stdin
	}
	return cmd
}

// startLocked starts cmd and reaps it in the background. r.mu must be held.
func (r *Runner) startLocked(cmd *exec.Cmd) error {
	done := make(chan struct{})
	if err := cmd.Start(); err != nil {
		return err
	}
	r.cmd = cmd
	r.done = done
	r.err = nil
	logger.Logger.Debugw("started command", "command", r.command, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		r.mu.Lock()
		if r.cmd == cmd {
			r.err = err
		}
		r.mu.Unlock()
		close(done)
	}()
	return nil
}

// Restart stops and restarts the child process.
func (r *Runner) Restart() error {
	if err := r.Stop(); err != nil {
		return err
	}
	return r.Start()
}

// Wait blocks until the child process exits and returns its exit error.
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Running returns true if the child process is running.
func (r *Runner) Running() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
