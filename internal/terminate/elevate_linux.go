//go:build linux

package terminate

// polkit
func elevationCommand(pid int, force bool) (string, []string) {
	return "pkexec", killArgs(pid, force, "-15", "-9")
}
