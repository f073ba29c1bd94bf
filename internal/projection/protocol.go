package projection

import (
	"strings"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// ProtocolString renders a product's schedule label, e.g. "Weekly (Mon, Thu)".
// With no explicit weekdays, week-based schedules fall back to the weekday of
// the product's start date.
func ProtocolString(p model.Product) string {
	freqs := make([]string, 0, len(p.Frequencies))
	weekBased := false
	for _, f := range p.Frequencies {
		freqs = append(freqs, string(f))
		if f.IsWeekBased() {
			weekBased = true
		}
	}
	label := strings.Join(freqs, " + ")

	if len(p.DaysOfWeek) > 0 {
		return label + " (" + strings.Join(p.DaysOfWeek, ", ") + ")"
	}
	if weekBased && p.StartDate != "" {
		if start, err := model.ParseDate(p.StartDate, time.Local); err == nil {
			return label + " (" + model.WeekdayShort(start.Weekday()) + ")"
		}
	}
	return label
}
