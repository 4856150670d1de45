package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		var cmd tea.Cmd
		if !m.quitting && !m.input.Focused() && m.pending == nil && !m.busy {
			cmd = tea.Batch(m.refreshSnapshot(), m.refreshContainers())
		}
		return m, tea.Batch(cmd, waitTick())

	case snapshotMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Scan failed: %v", msg.err), false)
			return m, nil
		}
		m.snapshot = msg.snap
		m.loaded = true
		m.applyFilter()
		return m, nil

	case containersMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Container listing failed: %v", msg.err), false)
			return m, nil
		}
		m.containers = msg.list
		m.updateContainerTable()
		return m, nil

	case outcomeMsg:
		m.busy = false
		out := model.TerminationOutcome(msg)
		text := out.Message
		if !out.Success && out.RequiredElevation && m.activeTab == tabProcesses {
			text += " (Enter, e to retry elevated)"
		}
		m.setStatus(text, out.Success)
		return m, tea.Batch(m.refreshSnapshot(), m.refreshContainers())

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *MainModel) setStatus(s string, ok bool) {
	m.statusMsg = s
	m.statusOK = ok
}

func (m MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// search input
	if m.input.Focused() {
		switch key {
		case "esc", "enter":
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	// confirmation prompt
	if m.pending != nil {
		switch key {
		case "y", "Y":
			a := *m.pending
			m.pending = nil
			m.busy = true
			m.setStatus("Working...", true)
			return m, m.run(a)
		case "n", "N", "esc", "q":
			m.pending = nil
			m.setStatus("Cancelled", true)
		}
		return m, nil
	}

	// action menu
	if m.actionMenuOpen {
		m.actionMenuOpen = false
		if key == "esc" || key == "q" {
			return m, nil
		}
		switch m.activeTab {
		case tabProcesses:
			n, ok := m.selectedNode()
			kind, valid := processAction(key)
			if ok && valid {
				m.pending = &pendingAction{kind: kind, pid: n.PID, name: n.Name}
			}
		case tabContainers:
			c, ok := m.selectedContainer()
			action, valid := containerAction(key)
			if ok && valid {
				m.pending = &pendingAction{kind: actionContainer, container: c, action: action}
			}
		}
		return m, nil
	}

	m.statusMsg = ""
	switch key {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "1":
		m.switchTab(tabProcesses)
		return m, nil

	case "2":
		m.switchTab(tabContainers)
		return m, m.refreshContainers()

	case "tab":
		if m.activeTab == tabProcesses {
			m.switchTab(tabContainers)
			return m, m.refreshContainers()
		}
		m.switchTab(tabProcesses)
		return m, nil

	case "/":
		if m.activeTab == tabProcesses {
			m.input.Focus()
			return m, nil
		}

	case "enter", "x":
		if m.busy {
			m.setStatus("An action is still running", false)
			return m, nil
		}
		if m.activeTab == tabContainers && !m.svc.ContainersAvailable() {
			m.setStatus("Container runtime is not available", false)
			return m, nil
		}
		if m.hasSelection() {
			m.actionMenuOpen = true
		}
		return m, nil

	case "a":
		if m.activeTab == tabProcesses {
			m.showAll = !m.showAll
			return m, m.refreshSnapshot()
		}

	case "ctrl+r":
		return m, tea.Batch(m.refreshSnapshot(), m.refreshContainers())

	case "p", "n", "u", "m", "c":
		if m.activeTab == tabProcesses {
			m.toggleSort(map[string]string{"p": "pid", "n": "name", "u": "user", "m": "mem", "c": "cpu"}[key])
			return m, nil
		}

	case "pgdown", "pgup":
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.activeTab == tabProcesses {
		prev := m.table.Cursor()
		m.table, cmd = m.table.Update(msg)
		if m.table.Cursor() != prev {
			m.updateDetail()
		}
	} else {
		prev := m.containerTable.Cursor()
		m.containerTable, cmd = m.containerTable.Update(msg)
		if m.containerTable.Cursor() != prev {
			m.updateDetail()
		}
	}
	return m, cmd
}

func (m MainModel) hasSelection() bool {
	if m.activeTab == tabProcesses {
		_, ok := m.selectedNode()
		return ok
	}
	_, ok := m.selectedContainer()
	return ok
}

func (m *MainModel) switchTab(t tab) {
	m.activeTab = t
	if t == tabProcesses {
		m.containerTable.Blur()
		m.table.Focus()
	} else {
		m.table.Blur()
		m.containerTable.Focus()
	}
	m.updateDetail()
}

func (m *MainModel) toggleSort(col string) {
	if m.sortCol == col {
		m.sortDesc = !m.sortDesc
	} else {
		m.sortCol = col
		m.sortDesc = col == "mem" || col == "cpu"
	}
	m.table.SetColumns(processColumns(m.sortCol, m.sortDesc))
	m.applyFilter()
}

func (m *MainModel) resize(width, height int) {
	m.width = width
	m.height = height

	availableWidth := width - 6
	if availableWidth < 0 {
		availableWidth = 0
	}
	listHeight := height - 11
	if listHeight < 5 {
		listHeight = 5
	}
	listPaneWidth := int(float64(availableWidth) * 0.65)
	if listPaneWidth < 10 {
		listPaneWidth = 10
	}

	tableWidth := listPaneWidth - 4
	if tableWidth < 10 {
		tableWidth = 10
	}
	m.table.SetWidth(tableWidth)
	m.table.SetHeight(listHeight)
	m.containerTable.SetWidth(tableWidth)
	m.containerTable.SetHeight(listHeight)

	detailWidth := availableWidth - listPaneWidth - 4
	if detailWidth < 10 {
		detailWidth = 10
	}
	m.detail.Width = detailWidth
	m.detail.Height = listHeight - 2
	if m.detail.Height < 0 {
		m.detail.Height = 0
	}
	m.updateDetail()
}
