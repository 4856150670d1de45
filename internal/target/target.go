// Package target turns a command-line argument into a pid, port or name
// target and resolves name targets against a snapshot.
package target

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// Parse accepts "1234" (pid), ":8080" or "port:8080" (port) and anything
// else as a process name.
func Parse(arg string) (model.Target, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return model.Target{}, fmt.Errorf("empty target")
	}

	if p, ok := strings.CutPrefix(arg, ":"); ok {
		return parsePort(p)
	}
	if p, ok := strings.CutPrefix(strings.ToLower(arg), "port:"); ok {
		return parsePort(p)
	}

	if pid, err := strconv.Atoi(arg); err == nil {
		if pid < 0 {
			return model.Target{}, fmt.Errorf("invalid pid %d", pid)
		}
		return model.Target{Type: model.TargetPID, Value: pid}, nil
	}
	return model.Target{Type: model.TargetName, Name: arg}, nil
}

func parsePort(s string) (model.Target, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil || port == 0 {
		return model.Target{}, fmt.Errorf("invalid port %q", s)
	}
	return model.Target{Type: model.TargetPort, Value: int(port)}, nil
}

// ResolveName returns the pids of nodes whose name matches, case-insensitive.
// Exact requires the whole name (or any command-line argument) to match;
// otherwise a substring is enough. The pids in exclude, typically our own
// process, never match; neither do grep-like processes.
func ResolveName(nodes []model.ProcessNode, name string, exact bool, exclude ...int) []int {
	lowerName := strings.ToLower(name)
	ignored := make(map[int]bool, len(exclude))
	for _, pid := range exclude {
		ignored[pid] = true
	}

	seen := make(map[int]bool)
	var pids []int
	for _, n := range nodes {
		if ignored[n.PID] || seen[n.PID] {
			continue
		}
		// a numeric name would otherwise match its own pid
		if lowerName == strconv.Itoa(n.PID) {
			continue
		}
		if matches(n, lowerName, exact) {
			seen[n.PID] = true
			pids = append(pids, n.PID)
		}
	}
	return pids
}

func matches(n model.ProcessNode, lowerName string, exact bool) bool {
	comm := strings.ToLower(n.Name)
	if strings.Contains(comm, "grep") {
		return false
	}
	if exact {
		if comm == lowerName {
			return true
		}
		for _, part := range strings.Fields(strings.ToLower(n.Cmdline)) {
			if part == lowerName {
				return true
			}
		}
		return false
	}
	return strings.Contains(comm, lowerName) || strings.Contains(strings.ToLower(n.Cmdline), lowerName)
}
