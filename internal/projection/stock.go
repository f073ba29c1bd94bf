package projection

import (
	"sort"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// Thresholds for the two low-stock surfaces. They are intentionally kept as
// separate checks: the dashboard banner and the inventory screen disagree.
const (
	DashboardThresholdMonths = 3.0
	InventoryThresholdMonths = 0.5
	DaysPerMonth             = 30.0
)

// monthlyRates maps a frequency to the number of doses it implies per month.
// Week-based frequencies are multiplied by the weekday count in MonthlyRate.
var monthlyRates = map[model.Frequency]float64{
	model.FreqDaily:         30,
	model.FreqAMDaily:       30,
	model.FreqPMDaily:       30,
	model.FreqEveryOtherDay: 15,
	model.FreqEvery3Days:    10,
	model.FreqEvery4Days:    7.5,
	model.FreqEvery5Days:    6,
	model.FreqEvery6Days:    5,
	model.FreqWeekly:        4,
	model.FreqBiWeekly:      2,
	model.FreqMonthly:       1,
	model.FreqAsNeeded:      0,
}

// MonthlyRate returns the monthly dose count contributed by one frequency.
// weekdays is the number of explicit weekdays configured on the product.
// Alias spellings resolve to their canonical rate; unrecognized frequencies
// contribute nothing.
func MonthlyRate(f model.Frequency, weekdays int) float64 {
	f = f.Canonical()
	rate, ok := monthlyRates[f]
	if !ok {
		return 0
	}
	if f.IsWeekBased() {
		if weekdays < 1 {
			weekdays = 1
		}
		return rate * float64(weekdays)
	}
	return rate
}

// MonthlyDoseCount sums MonthlyRate over every configured frequency. Week-based
// rates scale with the number of entries in DaysOfWeek as stored.
func MonthlyDoseCount(p model.Product) float64 {
	weekdays := len(p.DaysOfWeek)
	var total float64
	for _, f := range p.Frequencies {
		total += MonthlyRate(f, weekdays)
	}
	return total
}

// StockProjection is the inventory runway for one product.
type StockProjection struct {
	ProductID          string
	ProductName        string
	CurrentStock       float64
	Unit               string
	MonthlyDoses       float64
	MonthlyConsumption float64
	MonthsOfSupply     float64
	DaysRemaining      float64
}

// Consuming reports whether the product is projected to deplete at all.
func (s StockProjection) Consuming() bool {
	return s.MonthlyConsumption > 0
}

// Project computes a StockProjection for each product that has an inventory
// record. Products without inventory are skipped. Zero consumption yields zero
// months of supply rather than infinity.
func Project(products []model.Product, inventory []model.Inventory) []StockProjection {
	byProduct := make(map[string]model.Inventory, len(inventory))
	for _, inv := range inventory {
		byProduct[inv.ProductID] = inv
	}

	out := make([]StockProjection, 0, len(products))
	for _, p := range products {
		inv, ok := byProduct[p.ID]
		if !ok {
			continue
		}
		doses := MonthlyDoseCount(p)
		consumption := doses * p.DoseAmount

		sp := StockProjection{
			ProductID:          p.ID,
			ProductName:        p.Name,
			CurrentStock:       inv.Quantity,
			Unit:               inv.Unit,
			MonthlyDoses:       doses,
			MonthlyConsumption: consumption,
		}
		if sp.Unit == "" {
			sp.Unit = p.DoseUnit
		}
		if consumption > 0 {
			sp.MonthsOfSupply = inv.Quantity / consumption
			sp.DaysRemaining = sp.MonthsOfSupply * DaysPerMonth
		}
		out = append(out, sp)
	}
	return out
}

// DashboardAlerts returns the projections under the dashboard banner
// threshold, lowest runway first.
func DashboardAlerts(projections []StockProjection) []StockProjection {
	return below(projections, DashboardThresholdMonths)
}

// InventoryWarnings returns the projections under the inventory screen
// threshold, lowest runway first.
func InventoryWarnings(projections []StockProjection) []StockProjection {
	return below(projections, InventoryThresholdMonths)
}

// IsInventoryWarning reports whether a single projection trips the inventory
// screen warning.
func IsInventoryWarning(s StockProjection) bool {
	return s.Consuming() && s.MonthsOfSupply < InventoryThresholdMonths
}

func below(projections []StockProjection, months float64) []StockProjection {
	var out []StockProjection
	for _, p := range projections {
		if p.Consuming() && p.MonthsOfSupply < months {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthsOfSupply < out[j].MonthsOfSupply
	})
	return out
}
