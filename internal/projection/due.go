// Package projection computes the derived views of a protocol snapshot:
// doses due today, overdue status, and inventory runway. Every function
// here is pure; callers pass in the snapshot they already hold.
package projection

import (
	"sort"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// DueDose is one scheduled dose that falls on today's date.
type DueDose struct {
	model.ScheduledDose
	At       time.Time
	Overdue  bool
	Position int // index in the input slice, used as the row key
	// TimeValid is false when the stored time could not be parsed; At is
	// then the last instant of the day.
	TimeValid bool
}

// DueResult is the due-today view for a single calendar day.
type DueResult struct {
	Date     string
	DayStart time.Time
	DayEnd   time.Time
	Doses    []DueDose
	Overdue  int
	Upcoming int
}

// DayBounds returns the first and last instants of now's local calendar day.
func DayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// DueToday selects the uncompleted doses whose date string equals today's,
// marks the ones strictly before now as overdue, and orders them by instant.
// Date matching is string equality, not an interval test.
func DueToday(doses []model.ScheduledDose, now time.Time) DueResult {
	start, end := DayBounds(now)
	today := model.DateString(now)
	loc := now.Location()

	res := DueResult{Date: today, DayStart: start, DayEnd: end}
	for i, d := range doses {
		if d.Completed || d.Date != today {
			continue
		}
		due := DueDose{ScheduledDose: d, Position: i, TimeValid: true}
		at, err := model.CombineDateTime(d.Date, d.Time, loc)
		if err != nil {
			at = end
			due.TimeValid = false
		}
		due.At = at
		due.Overdue = at.Before(now)
		if due.Overdue {
			res.Overdue++
		} else {
			res.Upcoming++
		}
		res.Doses = append(res.Doses, due)
	}

	sort.SliceStable(res.Doses, func(i, j int) bool {
		return res.Doses[i].At.Before(res.Doses[j].At)
	})
	return res
}

// NextDue returns the first non-overdue dose in r, if any.
func (r DueResult) NextDue() (DueDose, bool) {
	for _, d := range r.Doses {
		if !d.Overdue {
			return d, true
		}
	}
	return DueDose{}, false
}
