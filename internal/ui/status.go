// Package ui renders the conversation's terminal output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the status output.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default teal theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00d7af"),
	Accent:  lipgloss.Color("#af87ff"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Banner  lipgloss.Style
	Cycle   lipgloss.Style
	User    lipgloss.Style
	Aria    lipgloss.Style
	Info    lipgloss.Style
	Listing lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Banner:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cycle:   lipgloss.NewStyle().Foreground(t.Dim),
		User:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Aria:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Info:    lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		Listing: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Status writes conversation progress lines. It implements the
// orchestrator's StatusSink.
type Status struct {
	out    io.Writer
	styles Styles
}

func NewStatus(out io.Writer, theme Theme) *Status {
	return &Status{out: out, styles: NewStyles(theme)}
}

// Banner prints the startup header with the active configuration summary.
func (s *Status) Banner(lines ...string) {
	width := 44
	for _, l := range lines {
		if len(l)+4 > width {
			width = len(l) + 4
		}
	}
	border := s.styles.Cycle
	fmt.Fprintln(s.out, border.Render("╭"+strings.Repeat("─", width-2)+"╮"))
	for i, l := range lines {
		text := l
		if i == 0 {
			text = s.styles.Banner.Render(l)
		} else {
			text = " " + s.styles.Listing.Render(l)
		}
		pad := width - 3 - lipgloss.Width(text)
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintln(s.out, border.Render("│")+text+strings.Repeat(" ", pad)+" "+border.Render("│"))
	}
	fmt.Fprintln(s.out, border.Render("╰"+strings.Repeat("─", width-2)+"╯"))
}

// Devices prints the enumerated audio devices.
func (s *Status) Devices(lines []string) {
	fmt.Fprintln(s.out, s.styles.Aria.Render("Audio devices:"))
	for _, l := range lines {
		fmt.Fprintln(s.out, s.styles.Listing.Render("  "+l))
	}
}

// CycleStart implements orchestrator.StatusSink.
func (s *Status) CycleStart(n int) {
	fmt.Fprintln(s.out, s.styles.Cycle.Render(fmt.Sprintf("── cycle %d ──", n)))
}

// Listening implements orchestrator.StatusSink.
func (s *Status) Listening() {
	fmt.Fprintln(s.out, s.styles.Info.Render("listening..."))
}

// Heard implements orchestrator.StatusSink.
func (s *Status) Heard(text string) {
	fmt.Fprintln(s.out, s.styles.User.Render("you: ")+text)
}

// Replying implements orchestrator.StatusSink.
func (s *Status) Replying(text string) {
	fmt.Fprintln(s.out, s.styles.Aria.Render("aria: ")+text)
}

// Info implements orchestrator.StatusSink.
func (s *Status) Info(msg string) {
	fmt.Fprintln(s.out, s.styles.Info.Render(msg))
}
