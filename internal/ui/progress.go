package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wahlandcase/attuned.relsync/internal/models"
	"github.com/wahlandcase/attuned.relsync/internal/sync"
)

// stepState tracks how far a single state-machine step has come
type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

// RunDoneMsg ends the progress display with the run's terminal status
type RunDoneMsg struct {
	Status   models.RunStatus
	Warnings []string
	Err      error
}

// ProgressModel renders the state machine's steps while a run executes.
// Step events arrive from the run goroutine via Program.Send.
type ProgressModel struct {
	version models.Version
	dryRun  bool
	states  map[sync.Step]stepState
	notes   map[sync.Step]string

	done     bool
	status   models.RunStatus
	warnings []string
	err      error
}

// NewProgressModel creates a ProgressModel for the given target version
func NewProgressModel(version models.Version, dryRun bool) ProgressModel {
	return ProgressModel{
		version: version,
		dryRun:  dryRun,
		states:  make(map[sync.Step]stepState),
		notes:   make(map[sync.Step]string),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sync.StepUpdate:
		if msg.Started {
			m.states[msg.Step] = stepRunning
		} else if msg.Err != nil {
			m.states[msg.Step] = stepFailed
			m.notes[msg.Step] = msg.Err.Error()
		} else {
			m.states[msg.Step] = stepDone
			if msg.Note != "" {
				m.notes[msg.Step] = msg.Note
			}
		}
		return m, nil

	case RunDoneMsg:
		m.done = true
		m.status = msg.Status
		m.warnings = msg.Warnings
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		// Quitting the display interrupts the run: the command layer
		// cancels its context and waits for it before cleaning up
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(RenderBanner(m.dryRun))
	b.WriteString("\n\n")

	titleStyle := lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	versionStyle := lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true)
	b.WriteString(titleStyle.Render("Bumping to ") + versionStyle.Render(m.version.TagName()))
	b.WriteString("\n\n")

	pendingStyle := lipgloss.NewStyle().Foreground(ColorDarkGray)
	runningStyle := lipgloss.NewStyle().Foreground(ColorCyan)
	doneStyle := lipgloss.NewStyle().Foreground(ColorGreen)
	failedStyle := lipgloss.NewStyle().Foreground(ColorRed)

	for _, step := range sync.Steps {
		var line string
		switch m.states[step] {
		case stepRunning:
			line = runningStyle.Render("… " + step.Display())
		case stepDone:
			line = doneStyle.Render("✓ " + step.Display())
		case stepFailed:
			line = failedStyle.Render("✗ " + step.Display())
		default:
			line = pendingStyle.Render("· " + step.Display())
		}
		b.WriteString("  " + line)
		if note := m.notes[step]; note != "" {
			b.WriteString(pendingStyle.Render("  (" + note + ")"))
		}
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(failedStyle.Render("✗ " + m.err.Error()))
		} else {
			b.WriteString(RenderStatusLine(m.version, m.status, m.warnings))
		}
		b.WriteString("\n")
	}

	return b.String()
}
