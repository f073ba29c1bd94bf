package tui

import (
	"fmt"
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/projection"
	"github.com/chiptspb/biohacker-nexus/internal/tui/components"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// supplyFullScale is the months of supply drawn as a full bar.
const supplyFullScale = 6.0

func (a App) renderInventoryTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)

	if len(a.stock) == 0 {
		return components.ContentCard("Inventory",
			muted.Render("No stock recorded. Use `nexus inventory set`."), cw)
	}

	innerW := components.CardInnerWidth(cw)
	labelW := min(24, innerW/4)
	barW := max(innerW-labelW-40, 10)

	var bars strings.Builder
	for i, s := range a.stock {
		if i > 0 {
			bars.WriteString("\n")
		}
		if !s.Consuming() {
			bars.WriteString(muted.Render(fmt.Sprintf("%-*s ", labelW, truncStr(s.ProductName, labelW))))
			bars.WriteString(muted.Render("not consumed on schedule  "))
			bars.WriteString(valueStyle.Render(cli.FormatQuantity(s.CurrentStock, s.Unit)))
			continue
		}
		bars.WriteString(components.SupplyBar(s.ProductName, s.MonthsOfSupply, supplyFullScale,
			projection.InventoryThresholdMonths, projection.DashboardThresholdMonths, labelW, barW))
		bars.WriteString(valueStyle.Render(fmt.Sprintf("  %s · %s/mo · %s",
			cli.FormatQuantity(s.CurrentStock, s.Unit),
			cli.FormatQuantity(s.MonthlyConsumption, s.Unit),
			cli.FormatDays(s.DaysRemaining, true))))
		if projection.IsInventoryWarning(s) {
			bars.WriteString(warnStyle.Render("  !"))
		}
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Months of Supply", bars.String(), cw))

	if warnings := projection.InventoryWarnings(a.stock); len(warnings) > 0 {
		var body strings.Builder
		for i, s := range warnings {
			if i > 0 {
				body.WriteString("\n")
			}
			body.WriteString(warnStyle.Render(fmt.Sprintf("%s runs out in %s",
				s.ProductName, cli.FormatDays(s.DaysRemaining, true))))
		}
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Running Out", body.String(), cw))
	}

	if untracked := a.untrackedProducts(); len(untracked) > 0 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("No Stock Tracked",
			muted.Render(strings.Join(untracked, ", ")), cw))
	}
	return b.String()
}

func (a App) untrackedProducts() []string {
	var out []string
	for _, p := range a.snap.Products {
		if _, ok := a.snap.InventoryFor(p.ID); !ok {
			out = append(out, p.Name)
		}
	}
	return out
}
