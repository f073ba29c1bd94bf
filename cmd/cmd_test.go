package cmd

import (
	"errors"
	"math"
	"testing"

	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/store"

	"github.com/spf13/cobra"
)

func TestFindProduct(t *testing.T) {
	products := []model.Product{
		{ID: "a1b2c3d4-0000", Name: "BPC-157"},
		{ID: "a1ffffff-0000", Name: "TB-500"},
		{ID: "9999aaaa-0000", Name: "Vitamin D3"},
	}

	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{ref: "a1b2c3d4-0000", want: "BPC-157"},
		{ref: "bpc-157", want: "BPC-157"},
		{ref: "  vitamin d3 ", want: "Vitamin D3"},
		{ref: "9999", want: "Vitamin D3"},
		{ref: "a1", wantErr: errAmbiguous},
		{ref: "nope", wantErr: store.ErrNotFound},
		{ref: "", wantErr: store.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := findProduct(products, tt.ref)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("findProduct(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("findProduct(%q) error = %v", tt.ref, err)
			continue
		}
		if got.Name != tt.want {
			t.Errorf("findProduct(%q) = %q, want %q", tt.ref, got.Name, tt.want)
		}
	}
}

func TestFindProductNamePrecedesPrefix(t *testing.T) {
	products := []model.Product{
		{ID: "nad-0001", Name: "Other"},
		{ID: "zzzz-0002", Name: "nad"},
	}
	got, err := findProduct(products, "NAD")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "zzzz-0002" {
		t.Errorf("findProduct(NAD) = %s, want zzzz-0002", got.ID)
	}
}

func TestMatchScheduledID(t *testing.T) {
	sched := []model.ScheduledDose{{ID: "abc123"}, {ID: "abd456"}, {ID: "xyz789"}}

	if id, err := matchScheduledID(sched, "xy"); err != nil || id != "xyz789" {
		t.Errorf("prefix xy = %q, %v; want xyz789", id, err)
	}
	if id, err := matchScheduledID(sched, "abc123"); err != nil || id != "abc123" {
		t.Errorf("exact = %q, %v; want abc123", id, err)
	}
	if _, err := matchScheduledID(sched, "ab"); !errors.Is(err, errAmbiguous) {
		t.Errorf("prefix ab error = %v, want ambiguous", err)
	}
	if _, err := matchScheduledID(sched, "q"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown error = %v, want not found", err)
	}
}

func TestProductFlagsApply(t *testing.T) {
	var f productFlags
	c := &cobra.Command{Use: "edit"}
	bindProductFlags(c, &f)
	if err := c.ParseFlags([]string{"--dose", "250", "--freq", "weekly", "--days", "Mon,Thu", "--time", "8pm"}); err != nil {
		t.Fatal(err)
	}

	p := model.Product{Name: "BPC-157", DoseAmount: 10, DoseUnit: "mg", Route: model.RouteSubQ}
	if err := f.apply(c, &p, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if p.Name != "BPC-157" || p.DoseUnit != "mg" {
		t.Errorf("unchanged fields modified: %+v", p)
	}
	if p.DoseAmount != 250 {
		t.Errorf("DoseAmount = %v, want 250", p.DoseAmount)
	}
	if len(p.Frequencies) != 1 || p.Frequencies[0] != model.FreqWeekly {
		t.Errorf("Frequencies = %v, want [Weekly]", p.Frequencies)
	}
	if len(p.DaysOfWeek) != 2 {
		t.Errorf("DaysOfWeek = %v, want 2 entries", p.DaysOfWeek)
	}
	if len(p.Times) != 1 || p.Times[0] != "20:00" {
		t.Errorf("Times = %v, want [20:00]", p.Times)
	}
}

func TestProductFlagsRejectUnknownFrequency(t *testing.T) {
	var f productFlags
	c := &cobra.Command{Use: "edit"}
	bindProductFlags(c, &f)
	if err := c.ParseFlags([]string{"--freq", "hourly"}); err != nil {
		t.Fatal(err)
	}
	p := model.Product{}
	if err := f.apply(c, &p, false); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestWeightConversion(t *testing.T) {
	kg := weightToKg(220.462, model.UnitsImperial)
	if math.Abs(kg-100) > 0.01 {
		t.Errorf("weightToKg(220.462 lb) = %v, want 100", kg)
	}
	if got := weightToKg(80, model.UnitsMetric); got != 80 {
		t.Errorf("weightToKg(80 kg) = %v, want 80", got)
	}
	if got := formatWeight(100, model.UnitsImperial); got != "220.5 lb" {
		t.Errorf("formatWeight = %q, want 220.5 lb", got)
	}
	if got := formatWeight(0, model.UnitsMetric); got != "" {
		t.Errorf("formatWeight(0) = %q, want empty", got)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"daemon", "--addr", ":9000"}
	if len(got) != len(want) {
		t.Fatalf("filterDetachArg = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("filterDetachArg[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
