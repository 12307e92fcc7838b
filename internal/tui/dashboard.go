// Package tui renders an interactive dashboard for the watch session:
// the current build state plus a scrolling tail of classified output.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moonbit-tools/moonbridge/internal/buildlog"
	"github.com/moonbit-tools/moonbridge/internal/session"
)

// maxTail bounds how many rendered lines the dashboard retains.
const maxTail = 200

type tickMsg time.Time

// Model is the bubbletea model for the serve dashboard.
type Model struct {
	session *session.Session
	module  string
	lines   []string
	height  int
}

// NewModel creates a dashboard over a running session.
func NewModel(s *session.Session) Model {
	module := "(manifest missing)"
	if id := s.Identity(); id != nil {
		module = id.Name()
	}

	return Model{
		session: s,
		module:  module,
		height:  24,
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key presses and poll ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height

	case tickMsg:
		for _, rec := range m.session.Flush() {
			m.lines = append(m.lines, renderRecord(rec))
		}
		if len(m.lines) > maxTail {
			m.lines = m.lines[len(m.lines)-maxTail:]
		}
		return m, tick()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("moonbridge"))
	b.WriteString("\n")

	target := m.session.Target()
	b.WriteString(fmt.Sprintf("%s  %s  %s/%s\n\n",
		StateBadge(m.session.State()),
		SubtleStyle.Render(m.module),
		target.Backend, target.Mode))

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	start := len(m.lines) - visible
	if start < 0 {
		start = 0
	}
	for _, line := range m.lines[start:] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("q to quit"))
	return b.String()
}

func renderRecord(rec buildlog.Record) string {
	switch rec.Kind {
	case buildlog.KindError:
		return ErrorStyle.Render(rec.Text)
	case buildlog.KindWarn:
		return WarnStyle.Render(rec.Text)
	default:
		return SubtleStyle.Render(rec.Text)
	}
}
