package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(10, 3)
	if len(widths) != 3 {
		t.Fatalf("len = %d, want 3", len(widths))
	}
	if widths[0] != 4 || widths[1] != 3 || widths[2] != 3 {
		t.Fatalf("widths = %v, want [4 3 3]", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(10, 0) should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	want := lipgloss.Width(tallCard) + lipgloss.Width(shortCard)
	for i, line := range lines {
		if got := lipgloss.Width(line); got != want {
			t.Errorf("line %d width = %d, want %d", i, got, want)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no ANSI styling", i)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Stat{
		{Label: "Due today", Value: "3"},
		{Label: "Overdue", Value: "1", Color: theme.Active.Red},
		{Label: "Low stock", Value: "0", Note: "under 3 months"},
	}, 90)

	for i, line := range strings.Split(row, "\n") {
		if got := lipgloss.Width(line); got != 90 {
			t.Fatalf("line %d width = %d, want 90", i, got)
		}
	}
}

func TestTabVisualWidth(t *testing.T) {
	today := Tabs[0]
	if got := TabVisualWidth(today, true); got != len("Today")+2 {
		t.Fatalf("active Today width = %d, want %d", got, len("Today")+2)
	}
	settings := Tabs[len(Tabs)-1]
	if got := TabVisualWidth(settings, false); got != len("Settings")+5 {
		t.Fatalf("inactive Settings width = %d, want %d", got, len("Settings")+5)
	}
	if got := TabVisualWidth(settings, true); got != len("Settings")+2 {
		t.Fatalf("active Settings width = %d, want %d", got, len("Settings")+2)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('i'); got != 2 {
		t.Fatalf("TabIdxByKey('i') = %d, want 2", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestSparklineLength(t *testing.T) {
	out := Sparkline([]float64{0, 1, 2, 3}, theme.Active.Accent)
	if got := lipgloss.Width(out); got != 4 {
		t.Fatalf("sparkline width = %d, want 4", got)
	}
	if Sparkline(nil, theme.Active.Accent) != "" {
		t.Fatal("empty sparkline should render nothing")
	}
}

func TestBarChartFallsBackWhenSmall(t *testing.T) {
	values := []float64{1, 2, 3}
	if got := BarChart(values, nil, theme.Active.Accent, 10, 5); got != Sparkline(values, theme.Active.Accent) {
		t.Fatal("narrow chart should fall back to a sparkline")
	}
	chart := BarChart(values, []string{"a", "b", "c"}, theme.Active.Accent, 40, 4)
	// 4 rows, axis, labels
	if got := lipgloss.Height(chart); got != 6 {
		t.Fatalf("chart height = %d, want 6", got)
	}
}

func TestSupplyBarColorsByThreshold(t *testing.T) {
	th := theme.FlexokiDark
	if got := th.SupplyColor(0.2, 0.5, 3); got != th.Red {
		t.Fatalf("0.2 months color = %v, want red", got)
	}
	if got := th.SupplyColor(2, 0.5, 3); got != th.Orange {
		t.Fatalf("2 months color = %v, want orange", got)
	}
	if got := th.SupplyColor(3, 0.5, 3); got != th.Green {
		t.Fatalf("3 months color = %v, want green", got)
	}

	bar := SupplyBar("BPC-157", 1.5, 6, 0.5, 3, 10, 20)
	if !strings.Contains(bar, "1.5 mo") {
		t.Fatalf("supply bar %q missing months label", bar)
	}
}
