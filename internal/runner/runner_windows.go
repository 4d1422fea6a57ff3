//go:build windows

package runner

import (
	"time"

	"github.com/tsgonest/schemats/internal/errors"
)

func shellCommand(cmdline string) (string, []string) {
	return "cmd", []string{"/C", cmdline}
}

// Start starts the child process.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.startLocked(r.newCmd()); err != nil {
		return errors.Wrapf(err, "starting %s", r.command)
	}
	return nil
}

// Stop stops the child process, with a force-kill timeout.
// Windows does not support process groups or SIGTERM, so we kill directly.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cmd, done := r.cmd, r.done
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	cmd.Process.Kill()

	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		<-done
		return nil
	}
}
