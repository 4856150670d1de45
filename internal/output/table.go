package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

type column struct {
	title string
	width uint
}

var processColumns = []column{
	{"PID", 8},
	{"NAME", 20},
	{"USER", 12},
	{"PORTS", 28},
	{"MEM", 9},
	{"CONTAINER", 20},
}

// cell pads or truncates s to width. Width is measured without escape
// codes so colored cells line up.
func cell(s string, width uint) string {
	return padding.String(truncate.StringWithTail(s, width, "…"), width)
}

func header(w io.Writer, p palette, cols []column) {
	var b strings.Builder
	for _, c := range cols {
		b.WriteString(cell(p.dim(c.title), c.width))
		b.WriteByte(' ')
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}

// RenderProcesses prints one row per process node.
func RenderProcesses(w io.Writer, nodes []model.ProcessNode, colorEnabled bool) {
	p := palette{on: colorEnabled}
	if len(nodes) == 0 {
		fmt.Fprintln(w, p.dim("No processes found"))
		return
	}

	header(w, p, processColumns)
	for _, n := range nodes {
		name := n.Name
		switch {
		case n.Protected:
			name = p.red(name)
		case n.ContainerProxy:
			name = p.blue(name)
		default:
			name = p.green(name)
		}
		ctr := ""
		if n.Container != nil {
			ctr = p.cyan(n.Container.Name)
		}

		row := []string{
			fmt.Sprint(n.PID),
			name,
			n.User,
			PortList(n.Ports),
			FormatBytes(n.MemoryBytes),
			ctr,
		}
		var b strings.Builder
		for i, c := range processColumns {
			b.WriteString(cell(row[i], c.width))
			b.WriteByte(' ')
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// RenderSummary prints the counters line under a snapshot listing.
func RenderSummary(w io.Writer, snap model.Snapshot, colorEnabled bool) {
	p := palette{on: colorEnabled}
	runtime := p.red("unavailable")
	if snap.ContainersAvailable {
		runtime = p.green("available")
	}
	fmt.Fprintf(w, "\n%d processes, %d listening, %d sockets, containers %s\n",
		len(snap.Processes), snap.ListeningPorts, snap.TotalConnections, runtime)
}

var containerColumns = []column{
	{"ID", 13},
	{"NAME", 24},
	{"IMAGE", 28},
	{"STATE", 10},
	{"PORTS", 30},
}

func RenderContainers(w io.Writer, list []model.ContainerInfo, colorEnabled bool) {
	p := palette{on: colorEnabled}
	if len(list) == 0 {
		fmt.Fprintln(w, p.dim("No containers found"))
		return
	}

	header(w, p, containerColumns)
	for _, c := range list {
		state := c.State
		if state == "running" {
			state = p.green(state)
		} else {
			state = p.yellow(state)
		}
		row := []string{c.ShortID(), c.Name, c.Image, state, ContainerPorts(c.Ports)}
		var b strings.Builder
		for i, col := range containerColumns {
			b.WriteString(cell(row[i], col.width))
			b.WriteByte(' ')
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// PortList is the compact "proto/port" list used in table cells.
func PortList(ports []model.PortEntry) string {
	parts := make([]string, 0, len(ports))
	for _, e := range ports {
		parts = append(parts, fmt.Sprintf("%s/%d", e.Protocol, e.LocalPort))
	}
	return strings.Join(parts, ",")
}

func ContainerPorts(ports []model.ContainerPort) string {
	parts := make([]string, 0, len(ports))
	for _, cp := range ports {
		parts = append(parts, fmt.Sprintf("%d->%d/%s", cp.HostPort, cp.ContainerPort, cp.Protocol))
	}
	return strings.Join(parts, ",")
}

func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
