// Package model defines the domain types for protocols, doses, and inventory.
package model

import (
	"errors"
	"strings"
	"time"
)

// Frequency is an administration cadence for a product.
type Frequency string

// Known frequencies. Anything else is carried through untouched and treated
// as unrecognized by the projection engine.
const (
	FreqDaily         Frequency = "Daily"
	FreqAMDaily       Frequency = "AM Daily"
	FreqPMDaily       Frequency = "PM Daily"
	FreqEveryOtherDay Frequency = "Every Other Day"
	FreqEvery3Days    Frequency = "Every 3 Days"
	FreqEvery4Days    Frequency = "Every 4 Days"
	FreqEvery5Days    Frequency = "Every 5 Days"
	FreqEvery6Days    Frequency = "Every 6 Days"
	FreqWeekly        Frequency = "Weekly"
	FreqBiWeekly      Frequency = "Bi-Weekly"
	FreqMonthly       Frequency = "Monthly"
	FreqAsNeeded      Frequency = "As Needed"
)

// Frequencies lists every known frequency in display order.
var Frequencies = []Frequency{
	FreqDaily,
	FreqAMDaily,
	FreqPMDaily,
	FreqEveryOtherDay,
	FreqEvery3Days,
	FreqEvery4Days,
	FreqEvery5Days,
	FreqEvery6Days,
	FreqWeekly,
	FreqBiWeekly,
	FreqMonthly,
	FreqAsNeeded,
}

var frequencyAliases = map[string]Frequency{
	"daily":         FreqDaily,
	"qd":            FreqDaily,
	"amdaily":       FreqAMDaily,
	"am":            FreqAMDaily,
	"pmdaily":       FreqPMDaily,
	"pm":            FreqPMDaily,
	"everyotherday": FreqEveryOtherDay,
	"eod":           FreqEveryOtherDay,
	"qod":           FreqEveryOtherDay,
	"every2days":    FreqEveryOtherDay,
	"every3days":    FreqEvery3Days,
	"every4days":    FreqEvery4Days,
	"every5days":    FreqEvery5Days,
	"every6days":    FreqEvery6Days,
	"weekly":        FreqWeekly,
	"biweekly":      FreqBiWeekly,
	"monthly":       FreqMonthly,
	"asneeded":      FreqAsNeeded,
	"prn":           FreqAsNeeded,
}

// ParseFrequency resolves user input such as "every 3 days" or "EOD".
func ParseFrequency(s string) (Frequency, bool) {
	f, ok := frequencyAliases[normalizeKey(s)]
	return f, ok
}

// Known reports whether f is one of the enumerated frequencies.
func (f Frequency) Known() bool {
	_, ok := frequencyAliases[normalizeKey(string(f))]
	return ok
}

// Canonical maps an alias spelling such as "daily" to its enumerated value.
// Unknown values are returned unchanged.
func (f Frequency) Canonical() Frequency {
	if c, ok := ParseFrequency(string(f)); ok {
		return c
	}
	return f
}

// IntervalDays returns N for the "every N days" family, 0 otherwise.
func (f Frequency) IntervalDays() int {
	switch f {
	case FreqEveryOtherDay:
		return 2
	case FreqEvery3Days:
		return 3
	case FreqEvery4Days:
		return 4
	case FreqEvery5Days:
		return 5
	case FreqEvery6Days:
		return 6
	default:
		return 0
	}
}

// IsWeekBased reports whether the frequency is anchored to weekdays.
func (f Frequency) IsWeekBased() bool {
	return f == FreqWeekly || f == FreqBiWeekly
}

// Route is a route of administration.
type Route string

// Routes of administration.
const (
	RouteSubQ    Route = "SubQ"
	RouteIM      Route = "IM"
	RouteOral    Route = "Oral"
	RouteNasal   Route = "Nasal"
	RouteTopical Route = "Topical"
	RouteIV      Route = "IV"
	RouteVaginal Route = "Vaginal"
)

// Routes lists every route in display order.
var Routes = []Route{RouteSubQ, RouteIM, RouteOral, RouteNasal, RouteTopical, RouteIV, RouteVaginal}

// ParseRoute resolves a route case-insensitively ("subcutaneous" maps to SubQ).
func ParseRoute(s string) (Route, bool) {
	key := normalizeKey(s)
	if key == "subcutaneous" || key == "sc" {
		return RouteSubQ, true
	}
	if key == "intramuscular" {
		return RouteIM, true
	}
	for _, r := range Routes {
		if normalizeKey(string(r)) == key {
			return r, true
		}
	}
	return "", false
}

// Product is a trackable medication or supplement definition.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	DoseAmount  float64     `json:"doseAmount"`
	DoseUnit    string      `json:"doseUnit"`
	Frequencies []Frequency `json:"frequency"`
	DaysOfWeek  []string    `json:"daysOfWeek,omitempty"`
	StartDate   string      `json:"startDate,omitempty"`
	Route       Route       `json:"route"`
	Times       []string    `json:"times,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Weekdays returns the explicit weekdays, deduplicated, ignoring unparsable entries.
func (p Product) Weekdays() []time.Weekday {
	seen := make(map[time.Weekday]bool, len(p.DaysOfWeek))
	var out []time.Weekday
	for _, d := range p.DaysOfWeek {
		wd, ok := ParseWeekday(d)
		if !ok || seen[wd] {
			continue
		}
		seen[wd] = true
		out = append(out, wd)
	}
	return out
}

// Normalize rewrites frequencies to their enumerated spelling and weekdays
// to deduplicated short names. Unparsable weekdays are kept for Validate.
func (p *Product) Normalize() {
	for i, f := range p.Frequencies {
		p.Frequencies[i] = f.Canonical()
	}
	if len(p.DaysOfWeek) == 0 {
		return
	}
	seen := make(map[string]bool, len(p.DaysOfWeek))
	days := make([]string, 0, len(p.DaysOfWeek))
	for _, d := range p.DaysOfWeek {
		if wd, ok := ParseWeekday(d); ok {
			d = WeekdayShort(wd)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	p.DaysOfWeek = days
}

// DoseTimes returns the configured dose times, defaulting to DefaultDoseTime.
func (p Product) DoseTimes() []string {
	if len(p.Times) == 0 {
		return []string{DefaultDoseTime}
	}
	return p.Times
}

// Validation errors for products.
var (
	ErrMissingName      = errors.New("product name is required")
	ErrMissingFrequency = errors.New("at least one frequency is required")
	ErrNegativeDose     = errors.New("dose amount must not be negative")
)

// Validate checks the fields a product must carry before it is stored.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if len(p.Frequencies) == 0 {
		return ErrMissingFrequency
	}
	if p.DoseAmount < 0 {
		return ErrNegativeDose
	}
	if p.StartDate != "" {
		if _, err := ParseDate(p.StartDate, time.Local); err != nil {
			return err
		}
	}
	for _, d := range p.DaysOfWeek {
		if _, ok := ParseWeekday(d); !ok {
			return &InvalidWeekdayError{Value: d}
		}
	}
	for _, t := range p.Times {
		if _, _, err := ParseDoseTime(t); err != nil {
			return err
		}
	}
	return nil
}

// InvalidWeekdayError reports a weekday string that could not be parsed.
type InvalidWeekdayError struct {
	Value string
}

func (e *InvalidWeekdayError) Error() string {
	return "invalid weekday " + `"` + e.Value + `"`
}

func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
