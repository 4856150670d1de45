package model

import "time"

// ProcessMetadata is what the process source knows about a single pid.
type ProcessMetadata struct {
	PID         int              `json:"pid"`
	Name        string           `json:"name"`
	ExePath     string           `json:"exePath,omitempty"`
	Cmdline     string           `json:"commandLine,omitempty"`
	User        string           `json:"user"`
	MemoryBytes uint64           `json:"memoryUsage"`
	CPUPercent  float64          `json:"cpuUsage"`
	StartedAt   *time.Time       `json:"startTime,omitempty"`
	PPID        *int             `json:"parentPid,omitempty"`
	// Runtime is set when the process itself runs inside a container.
	Runtime     ContainerRuntime `json:"containerRuntime,omitempty"`
}

// UnknownProcess is substituted for pids that own a socket but can no longer
// be read.
func UnknownProcess(pid int) ProcessMetadata {
	return ProcessMetadata{
		PID:  pid,
		Name: "Unknown",
		User: "Unknown",
	}
}
