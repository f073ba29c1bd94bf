package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/tui/components"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderTodayTab(cw int) string {
	t := theme.Active
	now := a.now()

	next := "none"
	nextNote := ""
	if d, ok := a.due.NextDue(); ok {
		next = d.Time
		nextNote = truncStr(d.ProductName, 18)
	}

	overdueColor := t.TextPrimary
	if a.due.Overdue > 0 {
		overdueColor = t.Red
	}
	lowColor := t.TextPrimary
	if len(a.alerts) > 0 {
		lowColor = t.Orange
	}

	stats := []components.Stat{
		{Label: "Due today", Value: fmt.Sprintf("%d", len(a.due.Doses)), Note: a.due.Date},
		{Label: "Overdue", Value: fmt.Sprintf("%d", a.due.Overdue), Color: overdueColor},
		{Label: "Low stock", Value: fmt.Sprintf("%d", len(a.alerts)), Note: "under 3 months", Color: lowColor},
		{Label: "Next dose", Value: next, Note: nextNote},
	}

	var b strings.Builder
	if p := a.snap.Profile; p != nil && p.Name != "" {
		greet := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
		b.WriteString(greet.Render(" Hi " + p.Name))
		b.WriteString("\n")
	}
	b.WriteString(components.MetricCardRow(stats, cw))
	b.WriteString("\n")

	if len(a.alerts) > 0 {
		b.WriteString(a.renderLowStockBanner(cw))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard("Due Today", a.renderDueList(cw, now), cw))
	return b.String()
}

func (a App) renderLowStockBanner(cw int) string {
	t := theme.Active
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	for i, s := range a.alerts {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(warnStyle.Render("! "))
		body.WriteString(textStyle.Render(fmt.Sprintf("%s: %s left (%s)",
			s.ProductName,
			cli.FormatMonths(s.MonthsOfSupply, s.Consuming()),
			cli.FormatDays(s.DaysRemaining, s.Consuming()))))
	}
	return components.ContentCard("Reorder Soon", body.String(), cw)
}

func (a App) renderDueList(cw int, now time.Time) string {
	t := theme.Active

	if len(a.due.Doses) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return muted.Render("Nothing due today.")
	}

	innerW := components.CardInnerWidth(cw)
	nameW := max(innerW-46, 12)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	overdueStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	upcomingStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	for i, d := range a.due.Doses {
		marker := "  "
		style := rowStyle
		if i == a.todayCursor {
			marker = "▸ "
			style = selStyle
		}

		status := upcomingStyle
		when := "unscheduled"
		if d.TimeValid {
			when = cli.FormatRelative(d.At, now)
		}
		if d.Overdue {
			status = overdueStyle
			when = "overdue " + when
		}

		line := fmt.Sprintf("%s%-6s %-*s %12s %-6s",
			marker,
			d.Time,
			nameW, truncStr(d.ProductName, nameW),
			cli.FormatQuantity(d.DoseAmount, d.DoseUnit),
			string(d.Route))
		b.WriteString(style.Render(line))
		b.WriteString(status.Render(" " + when))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[j/k] select  [Enter] log dose"))
	return b.String()
}
