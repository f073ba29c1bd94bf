package model

import "time"

// Inventory is the on-hand stock for one product.
type Inventory struct {
	ProductID string    `json:"productId"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	LotNumber string    `json:"lotNumber,omitempty"`
	Storage   string    `json:"storage,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DoseLog is an immutable record of an administered dose.
type DoseLog struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Amount      float64   `json:"amount"`
	Unit        string    `json:"unit"`
	Route       Route     `json:"route"`
	Site        string    `json:"site,omitempty"`
	SideEffects string    `json:"sideEffects,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScheduledDose is one materialized occurrence of a product's schedule.
// Name, dose, and route are denormalized copies taken at expansion time.
type ScheduledDose struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	DoseAmount  float64 `json:"doseAmount"`
	DoseUnit    string  `json:"doseUnit"`
	Route       Route   `json:"route"`
	Date        string  `json:"scheduledDate"`
	Time        string  `json:"scheduledTime"`
	Completed   bool    `json:"completed"`
}

// SlotKey identifies the product/date/time slot of a scheduled dose.
func (d ScheduledDose) SlotKey() string {
	return d.ProductID + "|" + d.Date + "|" + d.Time
}

// UserProfile holds the single local user's profile.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Age       int       `json:"age,omitempty"`
	Sex       string    `json:"sex,omitempty"`
	WeightKg  float64   `json:"weightKg,omitempty"`
	Units     string    `json:"units"`
	Premium   bool      `json:"premium"`
	CreatedAt time.Time `json:"createdAt"`
}

// Unit systems for UserProfile.Units.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)
