package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		q    float64
		unit string
		want string
	}{
		{150, "mg", "150 mg"},
		{2.5, "ml", "2.5 ml"},
		{0.25, "mg", "0.25 mg"},
		{1234.5, "", "1,234.5"},
		{-30, "mg", "-30 mg"},
		{9.999, "IU", "10 IU"},
		{2.3, "", "2.3"},
	}
	for _, tt := range tests {
		if got := FormatQuantity(tt.q, tt.unit); got != tt.want {
			t.Errorf("FormatQuantity(%v, %q) = %q, want %q", tt.q, tt.unit, got, tt.want)
		}
	}
}

func TestFormatMonthsAndDays(t *testing.T) {
	if got := FormatMonths(0.5, true); got != "0.5 mo" {
		t.Errorf("FormatMonths(0.5) = %q", got)
	}
	if got := FormatMonths(0, false); got != "n/a" {
		t.Errorf("FormatMonths(not consuming) = %q", got)
	}
	days := []struct {
		in   float64
		want string
	}{
		{15.9, "15d"},
		{0.4, "<1d"},
		{0, "0d"},
	}
	for _, tt := range days {
		if got := FormatDays(tt.in, true); got != tt.want {
			t.Errorf("FormatDays(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if got := FormatRelative(now.Add(2*time.Hour+5*time.Minute), now); got != "in 2h 5m" {
		t.Errorf("future = %q", got)
	}
	if got := FormatRelative(now.Add(-45*time.Minute), now); got != "45m ago" {
		t.Errorf("past = %q", got)
	}
	if got := FormatRelative(now.Add(20*time.Second), now); got != "in <1m" {
		t.Errorf("soon = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200"}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Product", "Stock"},
		Rows: [][]string{
			{"BPC-157", "150 mg"},
			{"---"},
			{"Vitamin D3", "5 IU"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Vitamin D3") || !strings.Contains(out, "  5 IU") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1, 2}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q", got)
	}
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("RenderSparkline(nil) = %q", got)
	}
}
