package projection

import (
	"math"
	"testing"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMonthlyRate_Table(t *testing.T) {
	tests := []struct {
		freq     model.Frequency
		weekdays int
		want     float64
	}{
		{model.FreqDaily, 0, 30},
		{model.FreqAMDaily, 0, 30},
		{model.FreqPMDaily, 0, 30},
		{model.FreqEveryOtherDay, 0, 15},
		{model.FreqEvery3Days, 0, 10},
		{model.FreqEvery4Days, 0, 7.5},
		{model.FreqEvery5Days, 0, 6},
		{model.FreqEvery6Days, 0, 5},
		{model.FreqWeekly, 0, 4},
		{model.FreqWeekly, 1, 4},
		{model.FreqWeekly, 3, 12},
		{model.FreqBiWeekly, 0, 2},
		{model.FreqBiWeekly, 2, 4},
		{model.FreqMonthly, 0, 1},
		{model.FreqMonthly, 5, 1},
		{model.FreqAsNeeded, 0, 0},
		{model.Frequency("Twice a Fortnight"), 0, 0},
		{model.Frequency(""), 3, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			if got := MonthlyRate(tt.freq, tt.weekdays); !approx(got, tt.want) {
				t.Errorf("MonthlyRate(%q, %d) = %v, want %v", tt.freq, tt.weekdays, got, tt.want)
			}
		})
	}
}

func TestMonthlyRate_CoversEveryKnownFrequency(t *testing.T) {
	for _, f := range model.Frequencies {
		if _, ok := monthlyRates[f]; !ok {
			t.Errorf("monthlyRates missing %q", f)
		}
	}
}

func TestMonthlyDoseCount_SumsFrequencies(t *testing.T) {
	p := model.Product{
		Frequencies: []model.Frequency{model.FreqAMDaily, model.FreqPMDaily, model.FreqWeekly},
		DaysOfWeek:  []string{"Mon", "Wed", "Mon"},
	}
	// 30 + 30 + 4*3, every stored weekday entry counts
	if got := MonthlyDoseCount(p); !approx(got, 72) {
		t.Errorf("MonthlyDoseCount = %v, want 72", got)
	}

	p.Normalize()
	// 30 + 30 + 4*2 once the product is normalized
	if got := MonthlyDoseCount(p); !approx(got, 68) {
		t.Errorf("MonthlyDoseCount after Normalize = %v, want 68", got)
	}
}

func TestMonthlyRate_AliasSpellings(t *testing.T) {
	tests := []struct {
		f    model.Frequency
		want float64
	}{
		{"daily", 30},
		{"EOD", 15},
		{"every 3 days", 10},
		{"bi-weekly", 2},
		{"hourly", 0},
	}
	for _, tt := range tests {
		if got := MonthlyRate(tt.f, 1); !approx(got, tt.want) {
			t.Errorf("MonthlyRate(%q) = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestProject_DailyHalfMonthBoundary(t *testing.T) {
	products := []model.Product{{
		ID:          "p1",
		Name:        "BPC-157",
		DoseAmount:  10,
		DoseUnit:    "mg",
		Frequencies: []model.Frequency{model.FreqDaily},
	}}
	inventory := []model.Inventory{{ProductID: "p1", Quantity: 150, Unit: "mg"}}

	proj := Project(products, inventory)
	if len(proj) != 1 {
		t.Fatalf("len(Project) = %d, want 1", len(proj))
	}
	sp := proj[0]
	if !approx(sp.MonthlyConsumption, 300) {
		t.Errorf("MonthlyConsumption = %v, want 300", sp.MonthlyConsumption)
	}
	if !approx(sp.MonthsOfSupply, 0.5) {
		t.Errorf("MonthsOfSupply = %v, want 0.5", sp.MonthsOfSupply)
	}
	if !approx(sp.DaysRemaining, 15) {
		t.Errorf("DaysRemaining = %v, want 15", sp.DaysRemaining)
	}

	if got := DashboardAlerts(proj); len(got) != 1 {
		t.Errorf("DashboardAlerts len = %d, want 1", len(got))
	}
	if got := InventoryWarnings(proj); len(got) != 0 {
		t.Errorf("InventoryWarnings len = %d, want 0 (0.5 is not < 0.5)", len(got))
	}
	if IsInventoryWarning(sp) {
		t.Error("IsInventoryWarning = true at exactly 0.5 months")
	}
}

func TestProject_WeeklyWithWeekdays(t *testing.T) {
	products := []model.Product{{
		ID:          "p2",
		Name:        "Test E",
		DoseAmount:  5,
		Frequencies: []model.Frequency{model.FreqWeekly},
		DaysOfWeek:  []string{"Mon", "Thu"},
	}}
	inventory := []model.Inventory{{ProductID: "p2", Quantity: 40}}

	proj := Project(products, inventory)
	if len(proj) != 1 {
		t.Fatalf("len(Project) = %d, want 1", len(proj))
	}
	sp := proj[0]
	if !approx(sp.MonthlyDoses, 8) {
		t.Errorf("MonthlyDoses = %v, want 8", sp.MonthlyDoses)
	}
	if !approx(sp.MonthlyConsumption, 40) {
		t.Errorf("MonthlyConsumption = %v, want 40", sp.MonthlyConsumption)
	}
	if !approx(sp.MonthsOfSupply, 1.0) {
		t.Errorf("MonthsOfSupply = %v, want 1.0", sp.MonthsOfSupply)
	}
	if got := InventoryWarnings(proj); len(got) != 0 {
		t.Errorf("InventoryWarnings len = %d, want 0", len(got))
	}
}

func TestProject_MissingInventoryExcluded(t *testing.T) {
	products := []model.Product{
		{ID: "a", DoseAmount: 1, Frequencies: []model.Frequency{model.FreqDaily}},
		{ID: "b", DoseAmount: 1, Frequencies: []model.Frequency{model.FreqDaily}},
		{ID: "c"},
	}
	inventory := []model.Inventory{{ProductID: "b", Quantity: 1}}

	proj := Project(products, inventory)
	if len(proj) != 1 || proj[0].ProductID != "b" {
		t.Fatalf("Project = %+v, want only b", proj)
	}
}

func TestProject_ZeroConsumptionSuppressesAlerts(t *testing.T) {
	products := []model.Product{
		{ID: "prn", DoseAmount: 2, Frequencies: []model.Frequency{model.FreqAsNeeded}},
		{ID: "nodose", DoseAmount: 0, Frequencies: []model.Frequency{model.FreqDaily}},
	}
	inventory := []model.Inventory{
		{ProductID: "prn", Quantity: 1},
		{ProductID: "nodose", Quantity: 0},
	}

	proj := Project(products, inventory)
	for _, sp := range proj {
		if sp.MonthsOfSupply != 0 || math.IsInf(sp.MonthsOfSupply, 0) {
			t.Errorf("%s MonthsOfSupply = %v, want 0", sp.ProductID, sp.MonthsOfSupply)
		}
	}
	if got := DashboardAlerts(proj); len(got) != 0 {
		t.Errorf("DashboardAlerts len = %d, want 0", len(got))
	}
	if got := InventoryWarnings(proj); len(got) != 0 {
		t.Errorf("InventoryWarnings len = %d, want 0", len(got))
	}
}

func TestProject_EmptyStockAlertsBoth(t *testing.T) {
	products := []model.Product{{ID: "x", DoseAmount: 1, Frequencies: []model.Frequency{model.FreqDaily}}}
	inventory := []model.Inventory{{ProductID: "x", Quantity: 0}}

	proj := Project(products, inventory)
	if len(DashboardAlerts(proj)) != 1 || len(InventoryWarnings(proj)) != 1 {
		t.Error("empty stock with consumption should trip both thresholds")
	}
}

func TestDashboardAlerts_SortedByRunway(t *testing.T) {
	proj := []StockProjection{
		{ProductID: "two", MonthlyConsumption: 1, MonthsOfSupply: 2},
		{ProductID: "half", MonthlyConsumption: 1, MonthsOfSupply: 0.5},
		{ProductID: "four", MonthlyConsumption: 1, MonthsOfSupply: 4},
	}
	got := DashboardAlerts(proj)
	if len(got) != 2 || got[0].ProductID != "half" || got[1].ProductID != "two" {
		t.Errorf("DashboardAlerts = %+v, want [half two]", got)
	}
}

func TestProtocolString(t *testing.T) {
	tests := []struct {
		name string
		p    model.Product
		want string
	}{
		{
			"explicit weekdays",
			model.Product{Frequencies: []model.Frequency{model.FreqWeekly}, DaysOfWeek: []string{"Mon", "Thu"}},
			"Weekly (Mon, Thu)",
		},
		{
			"weekly falls back to start date",
			model.Product{Frequencies: []model.Frequency{model.FreqWeekly}, StartDate: "2025-06-11"},
			"Weekly (Wed)",
		},
		{
			"bi-weekly falls back to start date",
			model.Product{Frequencies: []model.Frequency{model.FreqDaily, model.FreqBiWeekly}, StartDate: "2025-06-15"},
			"Daily + Bi-Weekly (Sun)",
		},
		{
			"daily ignores start date",
			model.Product{Frequencies: []model.Frequency{model.FreqDaily}, StartDate: "2025-06-11"},
			"Daily",
		},
		{
			"weekly without start date",
			model.Product{Frequencies: []model.Frequency{model.FreqWeekly}},
			"Weekly",
		},
		{
			"multiple frequencies",
			model.Product{Frequencies: []model.Frequency{model.FreqAMDaily, model.FreqPMDaily}},
			"AM Daily + PM Daily",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProtocolString(tt.p); got != tt.want {
				t.Errorf("ProtocolString() = %q, want %q", got, tt.want)
			}
		})
	}
}
