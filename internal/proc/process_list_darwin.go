//go:build darwin

package proc

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

const psColumns = "pid,ppid,user,lstart,%cpu,rss,comm,args"

func listProcesses() ([]model.ProcessMetadata, error) {
	out, err := exec.Command("ps", "-axo", psColumns).Output()
	if err != nil {
		return nil, fmt.Errorf("ps: %w", err)
	}
	return parsePS(string(out)), nil
}

func readProcess(pid int) (model.ProcessMetadata, error) {
	out, err := exec.Command("ps", "-o", psColumns, "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return model.ProcessMetadata{}, fmt.Errorf("process %d does not exist", pid)
	}
	procs := parsePS(string(out))
	if len(procs) == 0 {
		return model.ProcessMetadata{}, fmt.Errorf("process %d does not exist", pid)
	}
	return procs[0], nil
}

func isAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return !errors.Is(unix.Kill(pid, 0), unix.ESRCH)
}

func parsePS(out string) []model.ProcessMetadata {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Skip header
	if len(lines) > 0 {
		lines = lines[1:]
	}

	processes := make([]model.ProcessMetadata, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		// pid(1) + ppid(1) + user(1) + lstart(5) + cpu(1) + rss(1) + comm(1) = 11
		if len(fields) < 11 {
			continue
		}

		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, _ := strconv.Atoi(fields[1])

		// lstart format: "Mon Jan 1 12:00:00 2024" (5 fields)
		started, err := time.ParseInLocation("Mon Jan 2 15:04:05 2006", strings.Join(fields[3:8], " "), time.Local)

		cpu, _ := strconv.ParseFloat(fields[8], 64)
		rss, _ := strconv.ParseUint(fields[9], 10, 64)

		comm := fields[10]
		cmdline := comm
		if len(fields) > 11 {
			cmdline = strings.Join(fields[11:], " ")
		}

		p := model.ProcessMetadata{
			PID:         pid,
			Name:        filepath.Base(comm),
			ExePath:     comm,
			Cmdline:     cmdline,
			User:        fields[2],
			MemoryBytes: rss * 1024,
			CPUPercent:  cpu,
		}
		if err == nil {
			p.StartedAt = &started
		}
		if ppid > 0 {
			p.PPID = &ppid
		}
		processes = append(processes, p)
	}
	return processes
}
