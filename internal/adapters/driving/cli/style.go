package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette shared by all command output.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
	colourError   = lipgloss.Color("#F38BA8") // Red
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colourMuted)
	nullStyle  = lipgloss.NewStyle().Italic(true).Foreground(colourMuted)
	highStyle  = lipgloss.NewStyle().Foreground(colourSuccess)
	midStyle   = lipgloss.NewStyle().Foreground(colourWarning)
	lowStyle   = lipgloss.NewStyle().Foreground(colourError)
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// painter renders styles only when writing to a terminal, so piped output
// stays plain text.
type painter struct {
	enabled bool
}

func newPainter(w io.Writer) painter {
	return painter{enabled: isTerminal(w)}
}

func (p painter) render(style lipgloss.Style, s string) string {
	if !p.enabled {
		return s
	}
	return style.Render(s)
}

func (p painter) title(s string) string { return p.render(titleStyle, s) }
func (p painter) label(s string) string { return p.render(labelStyle, s) }
func (p painter) muted(s string) string { return p.render(mutedStyle, s) }

// value renders an extracted value, showing nil as "(not found)".
func (p painter) value(v *string) string {
	if v == nil {
		return p.render(nullStyle, "(not found)")
	}
	return *v
}

// confidence renders a score coloured by band.
func (p painter) confidence(c float64) string {
	s := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.75:
		return p.render(highStyle, s)
	case c >= 0.4:
		return p.render(midStyle, s)
	default:
		return p.render(lowStyle, s)
	}
}
