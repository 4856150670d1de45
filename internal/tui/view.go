package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m MainModel) View() string {
	if m.quitting {
		return ""
	}

	outerStyle := baseStyle.
		Width(m.width-2).
		Height(m.height-2).
		Padding(0, 1)

	status := m.statusLine()

	activeBorderColor := lipgloss.Color("#5f5fd7") // Purple/Blue
	dimBorderColor := lipgloss.Color("#585858")    // Dark Gray

	availableWidth := m.width - 6
	listPaneWidth := int(float64(availableWidth) * 0.65)
	if listPaneWidth < 10 {
		listPaneWidth = 10
	}

	list := m.table.View()
	detailTitle := "Process"
	if m.activeTab == tabContainers {
		list = m.containerTable.View()
		detailTitle = "Container"
		if !m.svc.ContainersAvailable() {
			list = errorStyle.Render("Container runtime is not available")
		}
	}
	if !m.detail.AtTop() && !m.detail.AtBottom() {
		detailTitle += " ↕"
	} else if !m.detail.AtTop() {
		detailTitle += " ↑"
	} else if !m.detail.AtBottom() {
		detailTitle += " ↓"
	}

	detailStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(dimBorderColor).
		PaddingLeft(2).
		Height(m.table.Height())

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listPaneWidth).Render(list),
		detailStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				tableHeaderStyle.
					Width(m.detail.Width).
					Foreground(activeBorderColor).
					BorderForeground(dimBorderColor).
					Render(detailTitle),
				lipgloss.NewStyle().PaddingLeft(1).Render(m.detail.View()),
			),
		),
	)

	footerContent := m.helpText()
	if m.opts.Version != "" && m.pending == nil && !m.actionMenuOpen {
		gap := m.width - 6 - lipgloss.Width(footerContent) - lipgloss.Width(m.opts.Version)
		if gap > 0 {
			footerContent += strings.Repeat(" ", gap) + m.opts.Version
		}
	}

	processesTab := inactiveTabStyle.Render("1. Processes")
	containersTab := inactiveTabStyle.Render("2. Containers")
	if m.activeTab == tabProcesses {
		processesTab = activeTabStyle.Render("1. Processes")
	} else {
		containersTab = activeTabStyle.Render("2. Containers")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("portsurgeon"),
		processesTab,
		containersTab,
	)

	return outerStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Height(1).Render(""),
			lipgloss.NewStyle().MarginBottom(1).PaddingLeft(1).Render(status),
			lipgloss.NewStyle().MarginBottom(1).PaddingLeft(1).Render(m.input.View()),
			mainContent,
			lipgloss.NewStyle().Height(1).Render(""),
			footerStyle.Width(m.width-4).Render(footerContent),
		),
	)
}

func (m MainModel) statusLine() string {
	switch {
	case m.statusMsg != "" && m.statusOK:
		return okStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		return errorStyle.Render(m.statusMsg)
	case m.input.Focused():
		return "Mode: Filtering (Press Esc/Enter to stop)"
	case !m.loaded:
		return "Scanning sockets..."
	}
	filter := "LISTEN"
	if m.showAll {
		filter = "ALL"
	}
	return fmt.Sprintf("%d processes | %d listening | %d sockets [%s]",
		len(m.snapshot.Processes), m.snapshot.ListeningPorts, m.snapshot.TotalConnections, filter)
}

func (m MainModel) helpText() string {
	switch {
	case m.pending != nil:
		return confirmStyle.Render(m.pending.prompt() + " [y]es / [n]o")
	case m.actionMenuOpen && m.activeTab == tabProcesses:
		return actionMenuStyle.Render("Esc: cancel | Actions:  [t]erminate  [k]ill  [g]raceful  [e]levate")
	case m.actionMenuOpen:
		return actionMenuStyle.Render("Esc: cancel | Actions:  [s]top  [k]ill  [r]estart  [R]emove")
	case m.activeTab == tabContainers:
		return fmt.Sprintf("Total: %d | Enter: Actions | Tab: Switch | Esc/q: Quit", len(m.containers))
	}
	return fmt.Sprintf("Total: %d | Enter: Actions | /: Filter | p/n/u/m/c: Sort | a: Toggle All | Esc/q: Quit", len(m.nodes))
}
