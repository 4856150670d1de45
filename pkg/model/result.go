package model

import (
	"fmt"
	"time"
)

// ProcessNode is the unified view of one process, the ports it holds and the
// container it fronts, if any.
type ProcessNode struct {
	ID             string           `json:"id"`
	PID            int              `json:"pid"`
	Name           string           `json:"name"`
	ExePath        string           `json:"exePath,omitempty"`
	Cmdline        string           `json:"commandLine,omitempty"`
	User           string           `json:"user"`
	MemoryBytes    uint64           `json:"memoryUsage"`
	CPUPercent     float64          `json:"cpuUsage"`
	StartedAt      *time.Time       `json:"startTime,omitempty"`
	Ports          []PortEntry      `json:"ports"`
	ContainerProxy bool             `json:"isDockerProxy"`
	Container      *ContainerInfo   `json:"container,omitempty"`
	Protected      bool             `json:"isProtected"`
	// Runtime is the container runtime the process itself runs under, if any.
	Runtime        ContainerRuntime `json:"containerRuntime,omitempty"`
}

// NodeID identifies a node for list diffing on the client side only.
func NodeID(pid int, ports []PortEntry) string {
	var first uint16
	if len(ports) > 0 {
		first = ports[0].LocalPort
	}
	return fmt.Sprintf("%d-%d", pid, first)
}

func (n ProcessNode) Listening() bool {
	for _, p := range n.Ports {
		if p.State == StateListen {
			return true
		}
	}
	return false
}

// Snapshot is the response to a full query.
type Snapshot struct {
	Processes           []ProcessNode `json:"processes"`
	TotalConnections    int           `json:"totalConnections"`
	ListeningPorts      int           `json:"listeningPorts"`
	ContainersAvailable bool          `json:"dockerAvailable"`
	UpdatedAt           time.Time     `json:"lastUpdated"`
}

// TerminationOutcome reports how a kill or container action went. A failed
// action is still a normal result, not an error.
type TerminationOutcome struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RequiredElevation bool   `json:"requiredElevation"`
	Code              string `json:"code,omitempty"`
}

// WithCode tags a failed outcome with an error code for JSON consumers.
func (o TerminationOutcome) WithCode(code string) TerminationOutcome {
	o.Code = code
	return o
}

func Failed(format string, args ...any) TerminationOutcome {
	return TerminationOutcome{Message: fmt.Sprintf(format, args...)}
}

func Succeeded(format string, args ...any) TerminationOutcome {
	return TerminationOutcome{Success: true, Message: fmt.Sprintf(format, args...)}
}
