package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

type actionKind int

const (
	actionTerm     actionKind = iota // SIGTERM
	actionKill                       // SIGKILL
	actionGraceful                   // SIGTERM, wait, SIGKILL
	actionElevate                    // SIGTERM through the credential prompt
	actionContainer
)

// pendingAction waits for y/n confirmation.
type pendingAction struct {
	kind      actionKind
	pid       int
	name      string
	container model.ContainerInfo
	action    model.ContainerAction
}

func (a pendingAction) prompt() string {
	switch a.kind {
	case actionTerm:
		return fmt.Sprintf("Terminate %s (PID %d)?", a.name, a.pid)
	case actionKill:
		return fmt.Sprintf("Force kill %s (PID %d)?", a.name, a.pid)
	case actionGraceful:
		return fmt.Sprintf("Gracefully stop %s (PID %d)?", a.name, a.pid)
	case actionElevate:
		return fmt.Sprintf("Terminate %s (PID %d) with elevated privileges?", a.name, a.pid)
	case actionContainer:
		return fmt.Sprintf("%s container %s?", capitalize(string(a.action)), a.container.Name)
	}
	return ""
}

// processAction maps an action-menu key to a process action.
func processAction(key string) (actionKind, bool) {
	switch key {
	case "t":
		return actionTerm, true
	case "k":
		return actionKill, true
	case "g":
		return actionGraceful, true
	case "e":
		return actionElevate, true
	}
	return 0, false
}

func containerAction(key string) (model.ContainerAction, bool) {
	switch key {
	case "s":
		return model.ContainerStop, true
	case "k":
		return model.ContainerKill, true
	case "r":
		return model.ContainerRestart, true
	case "R":
		return model.ContainerRemove, true
	}
	return "", false
}

type outcomeMsg model.TerminationOutcome

// run executes a confirmed action off the UI goroutine.
func (m MainModel) run(a pendingAction) tea.Cmd {
	ctx, svc, timeout := m.ctx, m.svc, m.opts.GracefulTimeout
	return func() tea.Msg {
		switch a.kind {
		case actionTerm:
			return outcomeMsg(svc.Kill(ctx, a.pid, false))
		case actionKill:
			return outcomeMsg(svc.Kill(ctx, a.pid, true))
		case actionGraceful:
			return outcomeMsg(svc.KillGraceful(ctx, a.pid, timeout))
		case actionElevate:
			return outcomeMsg(svc.Elevate(ctx, a.pid, false))
		case actionContainer:
			return outcomeMsg(svc.ContainerAction(ctx, a.container.ID, a.action))
		}
		return nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
