package tui

import (
	"fmt"
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/premium"
	"github.com/chiptspb/biohacker-nexus/internal/projection"
	"github.com/chiptspb/biohacker-nexus/internal/tui/components"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const historyChartDays = 14

func (a App) renderHistoryTab(cw, h int) string {
	t := theme.Active
	now := a.now()

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	since := premium.HistorySince(a.snap.Profile, now)
	logs := projection.History(a.snap.DoseLogs, since)

	counts := projection.DailyCounts(a.snap.DoseLogs, now, historyChartDays)
	labels := make([]string, historyChartDays)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", now.AddDate(0, 0, i-historyChartDays+1).Day())
	}
	chart := components.BarChart(counts, labels, t.Accent, components.CardInnerWidth(cw), 4)

	var b strings.Builder
	b.WriteString(components.ContentCard(fmt.Sprintf("Doses Logged · last %d days", historyChartDays), chart, cw))
	b.WriteString("\n")

	title := fmt.Sprintf("History (%d)", len(logs))
	if !since.IsZero() {
		title += fmt.Sprintf(" · since %s, premium unlocks all", since.Format("Jan 2"))
	}

	if len(logs) == 0 {
		b.WriteString(components.ContentCard(title, muted.Render("No doses logged yet."), cw))
		return b.String()
	}

	// Rows that fit under the chart card, its borders, and the list title.
	visible := max(h-lipgloss.Height(b.String())-3, 1)
	offset := min(a.historyOffset, max(len(logs)-visible, 0))

	innerW := components.CardInnerWidth(cw)
	nameW := max(innerW-48, 10)

	var list strings.Builder
	end := min(offset+visible, len(logs))
	for i := offset; i < end; i++ {
		l := logs[i]
		name := l.ProductID
		if p, ok := a.snap.Product(l.ProductID); ok {
			name = p.Name
		}
		line := fmt.Sprintf("%s %-5s  %-*s %12s %-6s",
			l.Date, l.Time,
			nameW, truncStr(name, nameW),
			cli.FormatQuantity(l.Amount, l.Unit),
			string(l.Route))
		list.WriteString(rowStyle.Render(line))
		if l.Site != "" {
			list.WriteString(dimStyle.Render(" @ " + l.Site))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}
	b.WriteString(components.ContentCard(title, list.String(), cw))
	return b.String()
}
