// Package schedule materializes ScheduledDose rows from a product's
// frequency and weekday configuration.
package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// DefaultDays is the default expansion horizon.
const DefaultDays = 30

// Slot names used for the split-day frequencies.
const (
	SlotAM = "AM"
	SlotPM = "PM"
)

// Expand produces one scheduled dose per (date, time) occurrence of p over
// [from, from+days), in from's location. Occurrences that coincide across
// frequencies are emitted once per frequency. Times are not validated; use
// ExpandChecked at input boundaries.
func Expand(p model.Product, from time.Time, days int) []model.ScheduledDose {
	if days <= 0 {
		return nil
	}
	loc := from.Location()
	first := civil(from)
	anchor := first
	hasStart := false
	if p.StartDate != "" {
		if sd, err := model.ParseDate(p.StartDate, loc); err == nil {
			anchor = civil(sd)
			hasStart = true
		}
	}

	weekdays := p.Weekdays()
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{anchor.Weekday()}
	}

	var out []model.ScheduledDose
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		if hasStart && day.Before(anchor) {
			continue
		}
		date := day.Format(model.DateLayout)
		for _, f := range p.Frequencies {
			f = f.Canonical()
			if !occurs(f, day, anchor, weekdays) {
				continue
			}
			for _, tm := range timesFor(f, p) {
				out = append(out, model.ScheduledDose{
					ID:          uuid.NewString(),
					ProductID:   p.ID,
					ProductName: p.Name,
					DoseAmount:  p.DoseAmount,
					DoseUnit:    p.DoseUnit,
					Route:       p.Route,
					Date:        date,
					Time:        tm,
				})
			}
		}
	}
	return out
}

// ExpandChecked validates every dose time on p before expanding.
func ExpandChecked(p model.Product, from time.Time, days int) ([]model.ScheduledDose, error) {
	for _, tm := range p.DoseTimes() {
		if _, _, err := model.ParseDoseTime(tm); err != nil {
			return nil, fmt.Errorf("expanding %s: %w", p.Name, err)
		}
	}
	return Expand(p, from, days), nil
}

// ExpandAll expands every product and concatenates the results.
func ExpandAll(products []model.Product, from time.Time, days int) []model.ScheduledDose {
	var out []model.ScheduledDose
	for _, p := range products {
		out = append(out, Expand(p, from, days)...)
	}
	return out
}

func occurs(f model.Frequency, day, anchor time.Time, weekdays []time.Weekday) bool {
	if n := f.IntervalDays(); n > 0 {
		return mod(daysBetween(anchor, day), n) == 0
	}
	switch f {
	case model.FreqDaily, model.FreqAMDaily, model.FreqPMDaily:
		return true
	case model.FreqWeekly:
		return hasWeekday(weekdays, day.Weekday())
	case model.FreqBiWeekly:
		if !hasWeekday(weekdays, day.Weekday()) {
			return false
		}
		weekStart := anchor.AddDate(0, 0, -int(anchor.Weekday()))
		return mod(daysBetween(weekStart, day)/7, 2) == 0
	case model.FreqMonthly:
		want := anchor.Day()
		if last := daysIn(day.Year(), day.Month()); want > last {
			want = last
		}
		return day.Day() == want
	default:
		// As Needed and unrecognized frequencies never schedule.
		return false
	}
}

func timesFor(f model.Frequency, p model.Product) []string {
	switch f {
	case model.FreqAMDaily:
		if len(p.Times) > 0 {
			return p.Times[:1]
		}
		return []string{SlotAM}
	case model.FreqPMDaily:
		if len(p.Times) > 1 {
			return p.Times[len(p.Times)-1:]
		}
		return []string{SlotPM}
	default:
		return p.DoseTimes()
	}
}

func hasWeekday(set []time.Weekday, wd time.Weekday) bool {
	for _, w := range set {
		if w == wd {
			return true
		}
	}
	return false
}

// civil returns noon UTC on t's calendar date so day arithmetic is immune
// to DST shifts.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
