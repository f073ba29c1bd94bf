package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for all stored dates.
const DateLayout = "2006-01-02"

// DefaultDoseTime is used when a product has no explicit dose times.
const DefaultDoseTime = "08:00"

// Named dose slots and the clock time each one resolves to.
var namedSlots = map[string][2]int{
	"morning":   {8, 0},
	"am":        {8, 0},
	"midday":    {12, 0},
	"noon":      {12, 0},
	"afternoon": {13, 0},
	"evening":   {18, 0},
	"pm":        {20, 0},
	"night":     {21, 0},
	"bedtime":   {22, 0},
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3PM", "3 PM"}

// ParseDoseTime resolves a 24-hour "HH:MM" string, a 12-hour clock string,
// or a named slot such as "morning" into hour and minute.
func ParseDoseTime(s string) (hour, minute int, err error) {
	trimmed := strings.TrimSpace(s)
	if slot, ok := namedSlots[strings.ToLower(trimmed)]; ok {
		return slot[0], slot[1], nil
	}
	upper := strings.ToUpper(trimmed)
	for _, layout := range clockLayouts {
		if t, perr := time.Parse(layout, upper); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("invalid dose time %q", s)
}

// ParseDate parses an ISO date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateString formats t as an ISO date in its own location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// CombineDateTime joins an ISO date and a dose time into one instant in loc.
func CombineDateTime(date, doseTime string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseDoseTime(doseTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), nil
}

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseWeekday accepts "Mon", "monday", "TUE" and so on.
func ParseWeekday(s string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) < 2 {
		return 0, false
	}
	for i := time.Sunday; i <= time.Saturday; i++ {
		full := strings.ToLower(i.String())
		if key == full || (len(key) >= 3 && strings.HasPrefix(full, key)) {
			return i, true
		}
	}
	switch key {
	case "tu", "tues":
		return time.Tuesday, true
	case "th", "thur", "thurs":
		return time.Thursday, true
	}
	return 0, false
}

// WeekdayShort returns the three-letter name of wd.
func WeekdayShort(wd time.Weekday) string {
	if wd < time.Sunday || wd > time.Saturday {
		return "???"
	}
	return weekdayNames[wd]
}
