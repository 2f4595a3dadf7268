// Package tui is the interactive frontend: a tabbed multi-select list
// of tasks and stacks with a detail panel and batch execution.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"provisor/internal/config"
	"provisor/internal/orchestrator"
	"provisor/internal/unit"
)

// Minimum usable terminal size.
const (
	MinTerminalWidth  = 60
	MinTerminalHeight = 15
)

// Deps carries everything the TUI needs to operate on units.
type Deps struct {
	Config *config.Config
	Engine *unit.Engine
	Loader *unit.Loader
	Logger *zap.Logger
}

// Tab selects which unit list is shown.
type Tab int

const (
	TabTasks Tab = iota
	TabStacks
)

// Screen is the current TUI screen.
type Screen int

const (
	ScreenBrowse Screen = iota
	ScreenRunning
	ScreenReport
)

// Model is the root Bubble Tea model.
type Model struct {
	deps *Deps
	orch *orchestrator.Orchestrator

	tasks  []*unit.Task
	stacks []*unit.Stack

	tab        Tab
	screen     Screen
	cursors    [2]int
	selections [2]*orchestrator.Selection

	showDetail bool
	detail     viewport.Model
	spinner    spinner.Model

	runningOp orchestrator.Operation
	result    *orchestrator.BatchResult

	err    error
	width  int
	height int
}

type batchDoneMsg struct {
	result *orchestrator.BatchResult
}

// Run starts the TUI application.
func Run(deps *Deps) error {
	ApplyTheme(deps.Config.UITheme)

	m, err := initialModel(deps)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func initialModel(deps *Deps) (Model, error) {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SelectedStyle

	m := Model{
		deps:       deps,
		spinner:    s,
		detail:     viewport.New(40, 10),
		selections: [2]*orchestrator.Selection{orchestrator.NewSelection(), orchestrator.NewSelection()},
	}
	m.orch = orchestrator.New(orchestrator.EngineApply(deps.Engine, func() []*unit.Task { return m.tasks }), deps.Logger)

	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

// reload re-reads the unit definitions and their state from disk.
func (m *Model) reload() error {
	tasks, err := m.deps.Loader.LoadTasks()
	if err != nil {
		return err
	}
	stacks, err := m.deps.Loader.LoadStacks(tasks)
	if err != nil {
		return err
	}
	m.tasks = tasks
	m.stacks = stacks
	m.clampCursors()
	return nil
}

func (m *Model) clampCursors() {
	for tab, max := range [2]int{len(m.tasks), len(m.stacks)} {
		if m.cursors[tab] >= max {
			m.cursors[tab] = max - 1
		}
		if m.cursors[tab] < 0 {
			m.cursors[tab] = 0
		}
	}
}

// currentUnits returns the active tab's units as the shared interface.
func (m Model) currentUnits() []unit.Unit {
	if m.tab == TabTasks {
		units := make([]unit.Unit, len(m.tasks))
		for i, t := range m.tasks {
			units[i] = t
		}
		return units
	}
	units := make([]unit.Unit, len(m.stacks))
	for i, s := range m.stacks {
		units[i] = s
	}
	return units
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeDetail()
		return m, nil

	case spinner.TickMsg:
		if m.screen == ScreenRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case batchDoneMsg:
		m.result = msg.result
		m.screen = ScreenReport
		m.selections[m.tab].Clear()
		// Derived stack state is stale after any task change.
		for _, s := range m.stacks {
			s.CheckInstallationStatus(m.tasks)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.showDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case ScreenRunning:
		// Batches are not interruptible; a half-applied unit would be
		// worse than a slow one.
		return m, nil

	case ScreenReport:
		switch msg.String() {
		case "enter", "esc":
			m.screen = ScreenBrowse
			m.result = nil
			return m, nil
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.tab == TabTasks {
			m.tab = TabStacks
		} else {
			m.tab = TabTasks
		}
		m.syncDetail()
		return m, nil

	case "up", "k":
		if m.cursors[m.tab] > 0 {
			m.cursors[m.tab]--
			m.syncDetail()
		}
		return m, nil

	case "down", "j":
		if m.cursors[m.tab] < len(m.currentUnits())-1 {
			m.cursors[m.tab]++
			m.syncDetail()
		}
		return m, nil

	case " ":
		if len(m.currentUnits()) > 0 {
			m.selections[m.tab].Toggle(m.cursors[m.tab])
		}
		return m, nil

	case "enter":
		m.showDetail = !m.showDetail
		if m.showDetail {
			m.resizeDetail()
			m.syncDetail()
		}
		return m, nil

	case "i":
		return m.startBatch(orchestrator.OpInstall)
	case "u":
		return m.startBatch(orchestrator.OpUninstall)
	case "r":
		return m.startBatch(orchestrator.OpReset)
	case "m":
		return m.startBatch(orchestrator.OpRemediate)
	}

	if m.showDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

// startBatch runs op against the selection, or against the cursor row
// when nothing is selected.
func (m Model) startBatch(op orchestrator.Operation) (tea.Model, tea.Cmd) {
	units := m.currentUnits()
	if len(units) == 0 {
		return m, nil
	}

	indices := m.selections[m.tab].Indices()
	if len(indices) == 0 {
		indices = []int{m.cursors[m.tab]}
	}

	m.screen = ScreenRunning
	m.runningOp = op

	orch := m.orch
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return batchDoneMsg{result: orch.RunBatch(units, indices, op)}
		},
	)
}

// syncDetail refreshes the detail viewport with the cursor row.
func (m *Model) syncDetail() {
	if !m.showDetail {
		return
	}
	units := m.currentUnits()
	if len(units) == 0 {
		m.detail.SetContent("Nothing to show.")
		return
	}
	m.detail.SetContent(units[m.cursors[m.tab]].Details())
	m.detail.GotoTop()
}

func (m *Model) resizeDetail() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.detail.Width = (m.width * 50 / 100) - 4
	m.detail.Height = m.height - 8
	if m.detail.Height < 3 {
		m.detail.Height = 3
	}
	if m.detail.Width < 10 {
		m.detail.Width = 10
	}
}
