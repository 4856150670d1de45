package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func sampleNode() model.ProcessNode {
	return model.ProcessNode{
		ID:          "100-8080",
		PID:         100,
		Name:        "nginx",
		User:        "www",
		MemoryBytes: 3 * 1024 * 1024,
		Ports: []model.PortEntry{
			{Protocol: model.TCP, LocalAddress: "0.0.0.0", LocalPort: 8080, State: model.StateListen},
			{Protocol: model.TCP, LocalAddress: "::1", LocalPort: 8443, State: model.StateListen},
		},
	}
}

func TestToJSONUsesCamelCase(t *testing.T) {
	s, err := ToJSON(model.Snapshot{Processes: []model.ProcessNode{sampleNode()}, ContainersAvailable: true})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"processes", "totalConnections", "listeningPorts", "dockerAvailable", "lastUpdated"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if !strings.Contains(s, `"isDockerProxy": false`) || !strings.Contains(s, `"localPort": 8080`) {
		t.Errorf("node keys not camelCase:\n%s", s)
	}
}

func TestRenderProcessesPlain(t *testing.T) {
	var buf bytes.Buffer
	RenderProcesses(&buf, []model.ProcessNode{sampleNode()}, false)

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Fatal("escape codes with color disabled")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for _, want := range []string{"100", "nginx", "www", "tcp/8080,tcp/8443", "3.0 MiB"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}

func TestRenderProcessesEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderProcesses(&buf, nil, false)
	if !strings.Contains(buf.String(), "No processes found") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderNode(t *testing.T) {
	n := sampleNode()
	n.Protected = true
	var buf bytes.Buffer
	RenderNode(&buf, n, false)

	out := buf.String()
	for _, want := range []string{"nginx [protected] (pid 100)", "├─ tcp 0.0.0.0:8080 LISTEN", "└─ tcp [::1]:8443 LISTEN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderNodeTruncatesPorts(t *testing.T) {
	n := sampleNode()
	n.Ports = nil
	for i := 0; i < 13; i++ {
		n.Ports = append(n.Ports, model.PortEntry{Protocol: model.UDP, LocalAddress: "0.0.0.0", LocalPort: uint16(5000 + i), State: model.StateListen})
	}
	var buf bytes.Buffer
	RenderNode(&buf, n, false)
	if !strings.Contains(buf.String(), "... and 3 more") {
		t.Fatalf("no overflow line:\n%s", buf.String())
	}
}

func TestRenderOutcome(t *testing.T) {
	tests := []struct {
		out  model.TerminationOutcome
		want []string
		not  string
	}{
		{model.Succeeded("Process 1 gone"), []string{"✓ Process 1 gone"}, "--elevate"},
		{model.TerminationOutcome{Message: "Failed to terminate process 9 (x). May require elevated privileges.", RequiredElevation: true}, []string{"✗", "--elevate"}, ""},
		{model.TerminationOutcome{Message: "Elevated termination failed: dismissed", RequiredElevation: true}, []string{"✗ Elevated"}, "--elevate"},
		{model.Failed("Cannot terminate protected PID: 1"), []string{"✗ Cannot terminate protected PID: 1"}, "--elevate"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		RenderOutcome(&buf, tt.out, false)
		got := buf.String()
		for _, w := range tt.want {
			if !strings.Contains(got, w) {
				t.Errorf("%q missing %q", got, w)
			}
		}
		if tt.not != "" && strings.Contains(got, tt.not) {
			t.Errorf("%q should not contain %q", got, tt.not)
		}
	}
}

func TestRenderContainers(t *testing.T) {
	var buf bytes.Buffer
	RenderContainers(&buf, []model.ContainerInfo{{
		ID:    "0123456789abcdef",
		Name:  "web",
		Image: "nginx:latest",
		State: "running",
		Ports: []model.ContainerPort{{HostPort: 8080, ContainerPort: 80, Protocol: model.TCP}},
	}}, false)
	out := buf.String()
	for _, want := range []string{"0123456789ab", "web", "nginx:latest", "8080->80/tcp"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abc ") {
		t.Error("container id not shortened")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		5 << 30: "5.0 GiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
