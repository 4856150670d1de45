//go:build unix

package terminate

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// UnixSignaler delivers SIGTERM and SIGKILL.
type UnixSignaler struct{}

func (UnixSignaler) Terminate(pid int) error { return sendSignal(pid, unix.SIGTERM) }
func (UnixSignaler) Kill(pid int) error      { return sendSignal(pid, unix.SIGKILL) }

func sendSignal(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal PID %d", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("signal %v to PID %d failed: %w", sig, pid, err)
	}
	return nil
}
