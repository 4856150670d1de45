//go:build linux

package proc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// listProcesses walks /proc. Processes exiting mid-walk are skipped.
func listProcesses() ([]model.ProcessMetadata, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	processes := make([]model.ProcessMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		p, err := readProcess(pid)
		if err != nil {
			continue
		}
		processes = append(processes, p)
	}
	return processes, nil
}
