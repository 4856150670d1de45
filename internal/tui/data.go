package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"

	"github.com/pranshuparmar/portsurgeon/internal/output"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

type snapshotMsg struct {
	snap model.Snapshot
	err  error
}

type containersMsg struct {
	list []model.ContainerInfo
	err  error
}

type tickMsg time.Time

func waitTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m MainModel) refreshSnapshot() tea.Cmd {
	ctx, svc, all := m.ctx, m.svc, m.showAll
	return func() tea.Msg {
		snap, err := svc.Snapshot(ctx, all)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m MainModel) refreshContainers() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		list, err := svc.Containers(ctx)
		return containersMsg{list: list, err: err}
	}
}

var sortTitles = map[string]string{
	"pid":  "PID",
	"name": "Name",
	"user": "User",
	"mem":  "Mem",
	"cpu":  "CPU%",
}

func processColumns(sortCol string, desc bool) []table.Column {
	cols := []table.Column{
		{Title: "PID", Width: 8},
		{Title: "Name", Width: 20},
		{Title: "User", Width: 12},
		{Title: "CPU%", Width: 6},
		{Title: "Mem", Width: 10},
		{Title: "Ports", Width: 24},
		{Title: "Container", Width: 20},
	}
	arrow := " ↑"
	if desc {
		arrow = " ↓"
	}
	for i := range cols {
		if cols[i].Title == sortTitles[sortCol] {
			cols[i].Title += arrow
		}
	}
	return cols
}

func containerColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Name", Width: 24},
		{Title: "Image", Width: 28},
		{Title: "State", Width: 10},
		{Title: "Ports", Width: 30},
	}
}

func (m *MainModel) sortNodes(nodes []model.ProcessNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		var less bool
		switch m.sortCol {
		case "name":
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case "user":
			less = strings.ToLower(a.User) < strings.ToLower(b.User)
		case "mem":
			less = a.MemoryBytes < b.MemoryBytes
		case "cpu":
			less = a.CPUPercent < b.CPUPercent
		default:
			less = a.PID < b.PID
		}
		if m.sortDesc {
			return !less
		}
		return less
	})
}

func matchesFilter(n model.ProcessNode, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(fmt.Sprint(n.PID), q) ||
		strings.Contains(strings.ToLower(n.Name), q) ||
		strings.Contains(strings.ToLower(n.User), q) ||
		strings.Contains(strings.ToLower(n.Cmdline), q) {
		return true
	}
	for _, p := range n.Ports {
		if strings.Contains(fmt.Sprint(p.LocalPort), q) {
			return true
		}
	}
	return n.Container != nil && strings.Contains(strings.ToLower(n.Container.Name), q)
}

// applyFilter rebuilds the process rows from the last snapshot.
func (m *MainModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.input.Value()))
	nodes := make([]model.ProcessNode, 0, len(m.snapshot.Processes))
	for _, n := range m.snapshot.Processes {
		if matchesFilter(n, q) {
			nodes = append(nodes, n)
		}
	}
	m.sortNodes(nodes)
	m.nodes = nodes

	rows := make([]table.Row, 0, len(nodes))
	for _, n := range nodes {
		name := n.Name
		if n.Protected {
			name = "[P] " + name
		}
		ctr := ""
		if n.Container != nil {
			ctr = n.Container.Name
		} else if n.ContainerProxy {
			ctr = "(proxy)"
		}
		rows = append(rows, table.Row{
			fmt.Sprint(n.PID),
			name,
			n.User,
			fmt.Sprintf("%.1f", n.CPUPercent),
			output.FormatBytes(n.MemoryBytes),
			output.PortList(n.Ports),
			ctr,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
	m.updateDetail()
}

func (m *MainModel) updateContainerTable() {
	rows := make([]table.Row, 0, len(m.containers))
	for _, c := range m.containers {
		rows = append(rows, table.Row{
			c.ShortID(),
			c.Name,
			c.Image,
			c.State,
			output.ContainerPorts(c.Ports),
		})
	}
	m.containerTable.SetRows(rows)
	if c := m.containerTable.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.containerTable.SetCursor(len(rows) - 1)
	}
	m.updateDetail()
}

func (m MainModel) selectedNode() (model.ProcessNode, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.nodes) {
		return model.ProcessNode{}, false
	}
	return m.nodes[i], true
}

func (m MainModel) selectedContainer() (model.ContainerInfo, bool) {
	i := m.containerTable.Cursor()
	if i < 0 || i >= len(m.containers) {
		return model.ContainerInfo{}, false
	}
	return m.containers[i], true
}

// updateDetail fills the side pane for the current selection.
func (m *MainModel) updateDetail() {
	var b strings.Builder
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))

	switch m.activeTab {
	case tabProcesses:
		n, ok := m.selectedNode()
		if !ok {
			fmt.Fprintln(&b, dim.Render("No process selected."))
			break
		}
		output.RenderNode(&b, n, true)
		if n.Protected {
			fmt.Fprintf(&b, "\n%s\n", protectedStyle.Render("Protected: termination will be refused."))
		}
	case tabContainers:
		c, ok := m.selectedContainer()
		if !ok {
			fmt.Fprintln(&b, dim.Render("No container selected."))
			break
		}
		fmt.Fprintf(&b, "%s\n", c.Name)
		fmt.Fprintf(&b, "  ID:      %s\n", c.ID)
		fmt.Fprintf(&b, "  Image:   %s\n", c.Image)
		fmt.Fprintf(&b, "  Status:  %s\n", c.Status)
		fmt.Fprintf(&b, "  Runtime: %s\n", c.Runtime)
		for _, p := range c.Ports {
			host := p.HostIP
			if host == "" {
				host = "0.0.0.0"
			}
			fmt.Fprintf(&b, "  %s:%d -> %d/%s\n", host, p.HostPort, p.ContainerPort, p.Protocol)
		}
	}

	content := b.String()
	if m.detail.Width > 0 {
		content = wrap.String(content, m.detail.Width)
	}
	m.detail.SetContent(content)
}
