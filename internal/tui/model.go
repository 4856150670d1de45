package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#585858")) // Dark Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#7D56F4")). // Purple
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
				Bold(true).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("#585858")). // Dark Gray
				Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#585858")). // Dark Gray
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")). // White
			Background(lipgloss.Color("#22aa22")). // Green
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")). // White
				Background(lipgloss.Color("#767676")). // Dimmed Gray
				Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")). // Soft red
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5fd75f")). // Green
		Bold(true)

	protectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")) // Soft red

	actionMenuStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")). // Amber
			Bold(true)

	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaf5f")). // Orange-amber
			Bold(true)
)

const (
	refreshInterval        = 10 * time.Second
	defaultGracefulTimeout = 5 * time.Second
)

// Service is what the TUI needs from the pipeline.
type Service interface {
	Snapshot(ctx context.Context, includeNonListening bool) (model.Snapshot, error)
	Kill(ctx context.Context, pid int, force bool) model.TerminationOutcome
	Elevate(ctx context.Context, pid int, force bool) model.TerminationOutcome
	KillGraceful(ctx context.Context, pid int, timeout time.Duration) model.TerminationOutcome
	ContainerAction(ctx context.Context, id string, action model.ContainerAction) model.TerminationOutcome
	Containers(ctx context.Context) ([]model.ContainerInfo, error)
	ContainersAvailable() bool
}

type Options struct {
	Version             string
	IncludeNonListening bool
	GracefulTimeout     time.Duration
}

type tab int

const (
	tabProcesses tab = iota
	tabContainers
)

type MainModel struct {
	ctx  context.Context
	svc  Service
	opts Options

	activeTab      tab
	table          table.Model
	containerTable table.Model
	detail         viewport.Model
	input          textinput.Model

	snapshot   model.Snapshot
	nodes      []model.ProcessNode // filtered and sorted view of snapshot
	containers []model.ContainerInfo
	showAll    bool
	loaded     bool

	sortCol  string
	sortDesc bool

	actionMenuOpen bool
	pending        *pendingAction
	busy           bool

	statusMsg string
	statusOK  bool

	width    int
	height   int
	quitting bool
}

func InitialModel(ctx context.Context, svc Service, opts Options) MainModel {
	if opts.GracefulTimeout <= 0 {
		opts.GracefulTimeout = defaultGracefulTimeout
	}

	s := table.DefaultStyles()
	s.Header = tableHeaderStyle.BorderForeground(lipgloss.Color("#585858"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffaf")). // Light Yellow
		Background(lipgloss.Color("#5f00d7")). // Purple
		Bold(false)

	t := table.New(
		table.WithColumns(processColumns("pid", false)),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	t.SetStyles(s)

	ct := table.New(
		table.WithColumns(containerColumns()),
		table.WithFocused(false),
		table.WithHeight(20),
	)
	ct.SetStyles(s)

	ti := textinput.New()
	ti.Placeholder = "Filter by PID, name, user, port or container..."
	ti.CharLimit = 156
	ti.Width = 50
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Blur()

	return MainModel{
		ctx:            ctx,
		svc:            svc,
		opts:           opts,
		activeTab:      tabProcesses,
		table:          t,
		containerTable: ct,
		detail:         viewport.New(0, 0),
		input:          ti,
		showAll:        opts.IncludeNonListening,
		sortCol:        "pid",
	}
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, svc Service, opts Options) error {
	if os.Getenv("COLORTERM") == "" {
		os.Setenv("COLORTERM", "truecolor") //nolint:errcheck
	}

	p := tea.NewProgram(InitialModel(ctx, svc, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running tui: %w", err)
	}
	return nil
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.refreshSnapshot(),
		m.refreshContainers(),
		waitTick(),
	)
}
