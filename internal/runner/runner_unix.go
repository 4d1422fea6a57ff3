//go:build !windows

package runner

import (
	"syscall"
	"time"

	"github.com/tsgonest/schemats/internal/errors"
)

func shellCommand(cmdline string) (string, []string) {
	return "/bin/sh", []string{"-c", cmdline}
}

// Start starts the child process.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := r.newCmd()
	// Own process group, so Stop reaches the shell's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := r.startLocked(cmd); err != nil {
		return errors.Wrapf(err, "starting %s", r.command)
	}
	return nil
}

// Stop stops the child process gracefully, with a force-kill timeout.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cmd, done := r.cmd, r.done
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil {
		syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		if err == nil {
			syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			cmd.Process.Kill()
		}
		<-done
		return nil
	}
}
