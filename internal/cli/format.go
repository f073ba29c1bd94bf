// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatQuantity formats an amount with its unit, dropping a trailing ".0".
// e.g., 150 "mg" -> "150 mg", 2.5 "ml" -> "2.5 ml", 1234.5 "" -> "1,234.5"
func FormatQuantity(q float64, unit string) string {
	s := formatAmount(q)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func formatAmount(q float64) string {
	if q < 0 {
		return "-" + formatAmount(-q)
	}
	r := math.Round(q*100) / 100
	whole := math.Floor(r)
	s := FormatNumber(int64(whole))
	if r-whole < 1e-9 {
		return s
	}
	dec := strings.TrimRight(strconv.FormatFloat(r-whole, 'f', 2, 64), "0")
	return s + strings.TrimPrefix(dec, "0")
}

// FormatMonths formats a months-of-supply figure.
// e.g., 0.5 -> "0.5 mo", 12 -> "12.0 mo"; zero consumption renders as "n/a".
func FormatMonths(months float64, consuming bool) string {
	if !consuming {
		return "n/a"
	}
	return fmt.Sprintf("%.1f mo", months)
}

// FormatDays formats a days-remaining figure, rounding down.
// e.g., 15.9 -> "15d", 0.4 -> "<1d"
func FormatDays(days float64, consuming bool) string {
	if !consuming {
		return "n/a"
	}
	if days <= 0 {
		return "0d"
	}
	if days < 1 {
		return "<1d"
	}
	return fmt.Sprintf("%dd", int64(days))
}

// FormatRelative formats the distance from now to at.
// e.g., +2h5m -> "in 2h 5m", -45m -> "45m ago"
func FormatRelative(at, now time.Time) string {
	d := at.Sub(now)
	if d < 0 {
		return formatSpan(-d) + " ago"
	}
	return "in " + formatSpan(d)
}

func formatSpan(d time.Duration) string {
	secs := int64(d / time.Second)
	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return "<1m"
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}
