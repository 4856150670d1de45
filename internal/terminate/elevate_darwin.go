//go:build darwin

package terminate

import (
	"fmt"
	"strings"
)

func elevationCommand(pid int, force bool) (string, []string) {
	shell := strings.Join(killArgs(pid, force, "-TERM", "-KILL"), " ")
	script := fmt.Sprintf("do shell script %q with administrator privileges", shell)
	return "osascript", []string{"-e", script}
}
