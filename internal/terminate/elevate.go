package terminate

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// runner executes an external command and returns its stdout.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CommandElevator re-sends the signal through the platform's credential
// prompt. It is used once per request and never retries.
type CommandElevator struct {
	run runner
}

func NewCommandElevator() CommandElevator {
	return CommandElevator{run: execRunner}
}

func (e CommandElevator) Elevate(ctx context.Context, pid int, force bool) model.TerminationOutcome {
	if pid <= 0 {
		return model.Failed("Invalid PID %d", pid).WithCode(model.CodeNotFound)
	}
	name, args := elevationCommand(pid, force)
	if name == "" {
		out := model.Failed("Elevated termination is not supported on this platform")
		out.RequiredElevation = true
		return out
	}

	run := e.run
	if run == nil {
		run = execRunner
	}
	if _, err := run(ctx, name, args...); err != nil {
		out := model.Failed("Elevated termination failed: %s", commandError(err))
		out.RequiredElevation = true
		return out
	}

	out := model.Succeeded("Process %d terminated with elevated privileges", pid)
	out.RequiredElevation = true
	return out
}

// commandError prefers the helper's own stderr over the exit status.
func commandError(err error) string {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if msg := strings.TrimSpace(string(ee.Stderr)); msg != "" {
			return msg
		}
	}
	return err.Error()
}

func killArgs(pid int, force bool, term, kill string) []string {
	sig := term
	if force {
		sig = kill
	}
	return []string{"kill", sig, fmt.Sprint(pid)}
}
