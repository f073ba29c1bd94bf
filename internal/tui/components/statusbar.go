package components

import (
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the status bar reports on its right side.
type StatusInfo struct {
	Premium    bool
	Refreshing bool
	Message    string // transient feedback such as "Logged BPC-157"
	Updated    string // e.g. "12:04"
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	msgStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	tierStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	if info.Premium {
		tierStyle = lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface).Bold(true)
	}

	left := base.Render(" ") +
		keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("r") + base.Render(" refresh  ") +
		keyStyle.Render("q") + base.Render(" quit")

	var right []string
	if info.Message != "" {
		right = append(right, msgStyle.Render(info.Message))
	}
	if info.Refreshing {
		right = append(right, base.Render("refreshing…"))
	} else if info.Updated != "" {
		right = append(right, base.Render("updated "+info.Updated))
	}
	tier := "free"
	if info.Premium {
		tier = "premium"
	}
	right = append(right, tierStyle.Render(tier))
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(rightStr), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + rightStr
}
