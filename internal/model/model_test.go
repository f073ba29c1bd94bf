package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestParseDoseTime(t *testing.T) {
	tests := []struct {
		in      string
		h, m    int
		wantErr bool
	}{
		{"08:00", 8, 0, false},
		{"8:05", 8, 5, false},
		{"23:59", 23, 59, false},
		{"07:30:15", 7, 30, false},
		{"9:15 pm", 21, 15, false},
		{"9:15PM", 21, 15, false},
		{"7am", 7, 0, false},
		{"12 AM", 0, 0, false},
		{"morning", 8, 0, false},
		{" Evening ", 18, 0, false},
		{"AM", 8, 0, false},
		{"PM", 20, 0, false},
		{"bedtime", 22, 0, false},
		{"24:00", 0, 0, true},
		{"later", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseDoseTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDoseTime(%q) = %d:%d, want error", tt.in, h, m)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDoseTime(%q) error: %v", tt.in, err)
			}
			if h != tt.h || m != tt.m {
				t.Errorf("ParseDoseTime(%q) = %d:%02d, want %d:%02d", tt.in, h, m, tt.h, tt.m)
			}
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)
	got, err := CombineDateTime("2025-02-28", "evening", loc)
	if err != nil {
		t.Fatalf("CombineDateTime: %v", err)
	}
	want := time.Date(2025, 2, 28, 18, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("CombineDateTime = %v, want %v", got, want)
	}

	if _, err := CombineDateTime("2025-02-30", "08:00", loc); err == nil {
		t.Error("expected error for impossible date")
	}
	if _, err := CombineDateTime("2025-02-28", "soonish", loc); err == nil {
		t.Error("expected error for bad time")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"Mon", time.Monday, true},
		{"monday", time.Monday, true},
		{"TUE", time.Tuesday, true},
		{"tues", time.Tuesday, true},
		{"th", time.Thursday, true},
		{"Thurs", time.Thursday, true},
		{"sat", time.Saturday, true},
		{"Sunday", time.Sunday, true},
		{"s", 0, false},
		{"mo", 0, false},
		{"funday", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseWeekday(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want Frequency
	}{
		{"Daily", FreqDaily},
		{"am daily", FreqAMDaily},
		{"PM-Daily", FreqPMDaily},
		{"every other day", FreqEveryOtherDay},
		{"EOD", FreqEveryOtherDay},
		{"Every 3 Days", FreqEvery3Days},
		{"every 6 days", FreqEvery6Days},
		{"weekly", FreqWeekly},
		{"Bi-Weekly", FreqBiWeekly},
		{"biweekly", FreqBiWeekly},
		{"Monthly", FreqMonthly},
		{"PRN", FreqAsNeeded},
		{"as needed", FreqAsNeeded},
	}
	for _, tt := range tests {
		got, ok := ParseFrequency(tt.in)
		if !ok || got != tt.want {
			t.Errorf("ParseFrequency(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}

	if _, ok := ParseFrequency("every 7 days"); ok {
		t.Error("ParseFrequency(every 7 days) should not be recognized")
	}
}

func TestFrequencyKnown(t *testing.T) {
	for _, f := range Frequencies {
		if !f.Known() {
			t.Errorf("%q.Known() = false", f)
		}
	}
	if Frequency("Hourly").Known() {
		t.Error(`"Hourly".Known() = true`)
	}
}

func TestParseRoute(t *testing.T) {
	tests := map[string]Route{
		"subq":          RouteSubQ,
		"Subcutaneous":  RouteSubQ,
		"im":            RouteIM,
		"intramuscular": RouteIM,
		"oral":          RouteOral,
		"IV":            RouteIV,
	}
	for in, want := range tests {
		if got, ok := ParseRoute(in); !ok || got != want {
			t.Errorf("ParseRoute(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseRoute("inhaled"); ok {
		t.Error("ParseRoute(inhaled) should fail")
	}
}

func TestProductWeekdays_Dedup(t *testing.T) {
	p := Product{DaysOfWeek: []string{"Thu", "mon", "Monday", "bogus"}}
	got := p.Weekdays()
	if len(got) != 2 || got[0] != time.Thursday || got[1] != time.Monday {
		t.Errorf("Weekdays() = %v, want [Thursday Monday]", got)
	}
}

func TestFrequencyCanonical(t *testing.T) {
	tests := map[Frequency]Frequency{
		"daily":        FreqDaily,
		"EOD":          FreqEveryOtherDay,
		"every 4 days": FreqEvery4Days,
		FreqWeekly:     FreqWeekly,
		"hourly":       "hourly",
	}
	for in, want := range tests {
		if got := in.Canonical(); got != want {
			t.Errorf("%q.Canonical() = %q, want %q", in, got, want)
		}
	}
}

func TestProductNormalize(t *testing.T) {
	p := Product{
		Frequencies: []Frequency{"daily", "bi-weekly"},
		DaysOfWeek:  []string{"monday", "Mon", "THU", "bogus"},
	}
	p.Normalize()

	if len(p.Frequencies) != 2 || p.Frequencies[0] != FreqDaily || p.Frequencies[1] != FreqBiWeekly {
		t.Errorf("Frequencies = %v, want [Daily Bi-Weekly]", p.Frequencies)
	}
	want := []string{"Mon", "Thu", "bogus"}
	if strings.Join(p.DaysOfWeek, ",") != strings.Join(want, ",") {
		t.Errorf("DaysOfWeek = %v, want %v", p.DaysOfWeek, want)
	}
	var wdErr *InvalidWeekdayError
	if err := p.Validate(); !errors.As(err, &wdErr) {
		t.Errorf("Validate() after Normalize = %v, want InvalidWeekdayError", err)
	}
}

func TestProductValidate(t *testing.T) {
	valid := Product{Name: "NAD+", DoseAmount: 100, Frequencies: []Frequency{FreqDaily}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on valid product: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *Product)
		want   error
	}{
		{"missing name", func(p *Product) { p.Name = "  " }, ErrMissingName},
		{"no frequency", func(p *Product) { p.Frequencies = nil }, ErrMissingFrequency},
		{"negative dose", func(p *Product) { p.DoseAmount = -1 }, ErrNegativeDose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	bad := valid
	bad.DaysOfWeek = []string{"Mon", "Blursday"}
	var wdErr *InvalidWeekdayError
	if err := bad.Validate(); !errors.As(err, &wdErr) || wdErr.Value != "Blursday" {
		t.Errorf("Validate() = %v, want InvalidWeekdayError{Blursday}", err)
	}

	bad = valid
	bad.Times = []string{"noonish"}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted an unparsable dose time")
	}
}

func TestScheduledDoseSlotKey(t *testing.T) {
	d := ScheduledDose{ProductID: "p", Date: "2025-01-02", Time: "08:00"}
	if got := d.SlotKey(); got != "p|2025-01-02|08:00" {
		t.Errorf("SlotKey() = %q", got)
	}
}

func FuzzParseDoseTime(f *testing.F) {
	f.Add("08:00")
	f.Add("23:59")
	f.Add("8:30 pm")
	f.Add("3PM")
	f.Add("morning")
	f.Add(" Bedtime ")
	f.Add("24:00")
	f.Add("12:60")
	f.Add("")
	f.Add("::")

	f.Fuzz(func(t *testing.T, s string) {
		h, m, err := ParseDoseTime(s)
		if err != nil {
			return
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			t.Fatalf("ParseDoseTime(%q) = %d:%d, out of range", s, h, m)
		}
		canon := fmt.Sprintf("%02d:%02d", h, m)
		h2, m2, err := ParseDoseTime(canon)
		if err != nil || h2 != h || m2 != m {
			t.Errorf("ParseDoseTime(%q) = %d:%d, %v; want %d:%d", canon, h2, m2, err, h, m)
		}
	})
}

func FuzzCombineDateTime(f *testing.F) {
	f.Add("2025-06-10", "08:00")
	f.Add("2024-02-29", "evening")
	f.Add(" 2025-12-31 ", "11:59 PM")
	f.Add("2025-02-30", "08:00")
	f.Add("2025-6-1", "8:00")
	f.Add("", "")

	f.Fuzz(func(t *testing.T, date, doseTime string) {
		got, err := CombineDateTime(date, doseTime, time.UTC)
		if err != nil {
			return
		}
		if DateString(got) != strings.TrimSpace(date) {
			t.Errorf("CombineDateTime(%q, %q) date = %s", date, doseTime, DateString(got))
		}
		h, m, err := ParseDoseTime(doseTime)
		if err != nil {
			t.Fatalf("CombineDateTime accepted %q but ParseDoseTime rejects it: %v", doseTime, err)
		}
		if got.Hour() != h || got.Minute() != m {
			t.Errorf("CombineDateTime(%q, %q) = %s, want %02d:%02d", date, doseTime, got.Format("15:04"), h, m)
		}
		if got.Format("15:04") != fmt.Sprintf("%02d:%02d", h, m) {
			t.Errorf("HH:MM round trip = %s", got.Format("15:04"))
		}
	})
}
