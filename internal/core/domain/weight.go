package domain

import (
	"fmt"
	"time"
)

// DefaultLegalGrossLbs is the federal gross vehicle weight limit on the
// interstate system.
const DefaultLegalGrossLbs = 80000

// Weight sources.
const (
	WeightSourceManual = "manual"
	WeightSourceScale  = "scale"
)

// Weight is a weigh ticket recorded for a vehicle.
type Weight struct {
	Base          `bson:",inline"`
	CompanyID     string    `json:"company_id" bson:"company_id"`
	TicketNumber  string    `json:"ticket_number" bson:"ticket_number"`
	VehicleID     string    `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty"`
	DriverID      string    `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	LoadID        string    `json:"load_id,omitempty" bson:"load_id,omitempty"`
	ScaleID       string    `json:"scale_id,omitempty" bson:"scale_id,omitempty"`
	GrossLbs      float64   `json:"gross_lbs" bson:"gross_lbs"`
	TareLbs       float64   `json:"tare_lbs" bson:"tare_lbs"`
	NetLbs        float64   `json:"net_lbs" bson:"net_lbs"`
	LegalLimitLbs float64   `json:"legal_limit_lbs" bson:"legal_limit_lbs"`
	Overweight    bool      `json:"overweight" bson:"overweight"`
	Source        string    `json:"source" bson:"source"`
	WeighedAt     time.Time `json:"weighed_at" bson:"weighed_at"`
}

func (w *Weight) Owner() string { return w.CompanyID }

func (w *Weight) SetOwner(id string) { w.CompanyID = id }

// Compute validates the scale readings and derives the net weight and the
// overweight flag. A zero limit falls back to defaultLimit.
func (w *Weight) Compute(defaultLimit float64) error {
	if w.GrossLbs <= 0 {
		return fmt.Errorf("%w: gross_lbs must be greater than 0", ErrInvalidInput)
	}
	if w.TareLbs < 0 {
		return fmt.Errorf("%w: tare_lbs must not be negative", ErrInvalidInput)
	}
	if w.TareLbs > w.GrossLbs {
		return fmt.Errorf("%w: tare_lbs exceeds gross_lbs", ErrInvalidInput)
	}
	if w.LegalLimitLbs <= 0 {
		w.LegalLimitLbs = defaultLimit
	}
	if w.LegalLimitLbs <= 0 {
		w.LegalLimitLbs = DefaultLegalGrossLbs
	}
	w.NetLbs = w.GrossLbs - w.TareLbs
	w.Overweight = w.GrossLbs > w.LegalLimitLbs
	return nil
}
