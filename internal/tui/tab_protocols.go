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

func (a App) renderProtocolsTab(cw int) string {
	t := theme.Active

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	products := a.snap.Products
	title := fmt.Sprintf("Protocols (%d)", len(products))
	if left := premium.RemainingProducts(a.snap.Profile, len(products)); left >= 0 {
		title += fmt.Sprintf(" · %d free slot(s) left", left)
	}

	if len(products) == 0 {
		return components.ContentCard(title,
			muted.Render("No products yet. Add one with `nexus product add`."), cw)
	}

	widths := components.LayoutRow(cw, 2)
	if cw < 100 {
		widths = []int{cw}
	}

	listW := components.CardInnerWidth(widths[0])
	nameW := max(listW-30, 10)

	var list strings.Builder
	for i, p := range products {
		marker := "  "
		style := rowStyle
		if i == a.protocolCursor {
			marker = "▸ "
			style = selStyle
		}
		line := fmt.Sprintf("%s%-*s %s",
			marker,
			nameW, truncStr(p.Name, nameW),
			truncStr(projection.ProtocolString(p), 26))
		list.WriteString(style.Render(line))
		if i < len(products)-1 {
			list.WriteString("\n")
		}
	}
	listCard := components.ContentCard(title, list.String(), widths[0])

	detail := components.ContentCard("Details", a.renderProtocolDetail(), widths[len(widths)-1])
	if len(widths) == 1 {
		return listCard + "\n" + detail
	}
	return components.CardRow([]string{listCard, detail})
}

func (a App) renderProtocolDetail() string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if a.protocolCursor >= len(a.snap.Products) {
		return ""
	}
	p := a.snap.Products[a.protocolCursor]

	rows := [][2]string{
		{"Name", p.Name},
		{"Category", p.Category},
		{"Dose", cli.FormatQuantity(p.DoseAmount, p.DoseUnit)},
		{"Route", string(p.Route)},
		{"Schedule", projection.ProtocolString(p)},
		{"Times", strings.Join(p.DoseTimes(), ", ")},
		{"Start", p.StartDate},
		{"Monthly", fmt.Sprintf("%.1f doses", projection.MonthlyDoseCount(p))},
	}
	if inv, ok := a.snap.InventoryFor(p.ID); ok {
		rows = append(rows, [2]string{"Stock", cli.FormatQuantity(inv.Quantity, inv.Unit)})
	}
	if p.Notes != "" {
		rows = append(rows, [2]string{"Notes", p.Notes})
	}

	var b strings.Builder
	for i, r := range rows {
		v := r[1]
		if v == "" {
			v = "-"
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", r[0])))
		b.WriteString(valueStyle.Render(v))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
