package buildlog

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// Printer renders flushed records to a writer with per-kind styling.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Print renders each record on its own line.
func (p *Printer) Print(records []Record) {
	for _, rec := range records {
		var line string
		switch rec.Kind {
		case KindError:
			line = errorStyle.Render(rec.Text)
		case KindWarn:
			line = warnStyle.Render(rec.Text)
		default:
			line = infoStyle.Render(rec.Text)
		}
		_, _ = fmt.Fprintln(p.out, line)
	}
}
