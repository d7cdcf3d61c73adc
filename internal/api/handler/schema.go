package handler

import (
	"time"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

// Request bodies. company_id and city_id are optional: restricted callers get
// their own tenant stamped, and naming another tenant is refused.

type CompanyRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	DOTNumber string `json:"dot_number" validate:"omitempty,numeric,max=8"`
	MCNumber  string `json:"mc_number" validate:"omitempty,max=12"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Active    *bool  `json:"active"`
}

func (r *CompanyRequest) Apply(c *domain.Company) {
	c.Name, c.DOTNumber, c.MCNumber = r.Name, r.DOTNumber, r.MCNumber
	c.Address, c.Phone, c.Email = r.Address, r.Phone, r.Email
	c.Active = activeFlag(r.Active, c.ID, c.Active)
}

type DriverRequest struct {
	CompanyID     string `json:"company_id"`
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	LicenseNumber string `json:"license_number" validate:"required"`
	LicenseState  string `json:"license_state" validate:"omitempty,len=2"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	Active        *bool  `json:"active"`
}

func (r *DriverRequest) Apply(d *domain.Driver) {
	setOwner(&d.CompanyID, r.CompanyID)
	d.FirstName, d.LastName = r.FirstName, r.LastName
	d.LicenseNumber, d.LicenseState = r.LicenseNumber, r.LicenseState
	d.Phone, d.Email = r.Phone, r.Email
	d.Active = activeFlag(r.Active, d.ID, d.Active)
}

type VehicleRequest struct {
	CompanyID   string  `json:"company_id"`
	UnitNumber  string  `json:"unit_number" validate:"required"`
	VIN         string  `json:"vin" validate:"omitempty,len=17"`
	Plate       string  `json:"plate" validate:"required"`
	PlateState  string  `json:"plate_state" validate:"omitempty,len=2"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Year        int     `json:"year" validate:"omitempty,gte=1950,lte=2100"`
	Axles       int     `json:"axles" validate:"gte=2,lte=13"`
	MaxGrossLbs float64 `json:"max_gross_lbs" validate:"gte=0"`
	Active      *bool   `json:"active"`
}

func (r *VehicleRequest) Apply(v *domain.Vehicle) {
	setOwner(&v.CompanyID, r.CompanyID)
	v.UnitNumber, v.VIN, v.Plate, v.PlateState = r.UnitNumber, r.VIN, r.Plate, r.PlateState
	v.Make, v.Model, v.Year = r.Make, r.Model, r.Year
	v.Axles, v.MaxGrossLbs = r.Axles, r.MaxGrossLbs
	v.Active = activeFlag(r.Active, v.ID, v.Active)
}

type ScaleRequest struct {
	CompanyID   string  `json:"company_id"`
	Name        string  `json:"name" validate:"required"`
	Location    string  `json:"location"`
	CapacityLbs float64 `json:"capacity_lbs" validate:"gt=0"`
	Active      *bool   `json:"active"`
}

func (r *ScaleRequest) Apply(s *domain.Scale) {
	setOwner(&s.CompanyID, r.CompanyID)
	s.Name, s.Location, s.CapacityLbs = r.Name, r.Location, r.CapacityLbs
	s.Active = activeFlag(r.Active, s.ID, s.Active)
}

type LoadRequest struct {
	CompanyID   string     `json:"company_id"`
	Reference   string     `json:"reference" validate:"required"`
	DriverID    string     `json:"driver_id"`
	VehicleID   string     `json:"vehicle_id"`
	Origin      string     `json:"origin" validate:"required"`
	Destination string     `json:"destination" validate:"required"`
	Commodity   string     `json:"commodity"`
	PickupAt    *time.Time `json:"pickup_at"`
}

func (r *LoadRequest) Apply(l *domain.Load) {
	setOwner(&l.CompanyID, r.CompanyID)
	l.Reference, l.DriverID, l.VehicleID = r.Reference, r.DriverID, r.VehicleID
	l.Origin, l.Destination, l.Commodity = r.Origin, r.Destination, r.Commodity
	l.PickupAt = r.PickupAt
}

type LoadStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=planned dispatched in_transit delivered cancelled"`
}

type WeightRequest struct {
	CompanyID     string     `json:"company_id"`
	VehicleID     string     `json:"vehicle_id"`
	DriverID      string     `json:"driver_id"`
	LoadID        string     `json:"load_id"`
	ScaleID       string     `json:"scale_id"`
	GrossLbs      float64    `json:"gross_lbs" validate:"gt=0"`
	TareLbs       float64    `json:"tare_lbs" validate:"gte=0"`
	LegalLimitLbs float64    `json:"legal_limit_lbs" validate:"gte=0"`
	WeighedAt     *time.Time `json:"weighed_at"`
}

func (r *WeightRequest) Apply(w *domain.Weight) {
	setOwner(&w.CompanyID, r.CompanyID)
	w.VehicleID, w.DriverID, w.LoadID, w.ScaleID = r.VehicleID, r.DriverID, r.LoadID, r.ScaleID
	w.GrossLbs, w.TareLbs, w.LegalLimitLbs = r.GrossLbs, r.TareLbs, r.LegalLimitLbs
	if r.WeighedAt != nil {
		w.WeighedAt = r.WeighedAt.UTC()
	}
}

// IngestRequest is posted by scale integrations; the ticket number is the
// deduplication key.
type IngestRequest struct {
	WeightRequest
	TicketNumber string `json:"ticket_number" validate:"required,max=64"`
}

type PermitRequest struct {
	CityID       string     `json:"city_id"`
	PermitNumber string     `json:"permit_number" validate:"required"`
	CompanyName  string     `json:"company_name" validate:"required"`
	VehiclePlate string     `json:"vehicle_plate" validate:"required"`
	MaxGrossLbs  float64    `json:"max_gross_lbs" validate:"gt=0"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidTo      time.Time  `json:"valid_to" validate:"required"`
	Status       string     `json:"status" validate:"omitempty,oneof=active revoked"`
}

func (r *PermitRequest) Apply(p *domain.Permit) {
	setOwner(&p.CityID, r.CityID)
	p.PermitNumber, p.CompanyName, p.VehiclePlate = r.PermitNumber, r.CompanyName, r.VehiclePlate
	p.MaxGrossLbs = r.MaxGrossLbs
	if r.ValidFrom != nil {
		p.ValidFrom = r.ValidFrom.UTC()
	}
	p.ValidTo = r.ValidTo.UTC()
	if r.Status != "" {
		p.Status = domain.PermitStatus(r.Status)
	}
}

type WebhookRequest struct {
	CompanyID string   `json:"company_id"`
	URL       string   `json:"url" validate:"required,http_url"`
	Events    []string `json:"events" validate:"required,min=1,dive,required"`
	Active    *bool    `json:"active"`
}

func (r *WebhookRequest) Apply(w *domain.Webhook) {
	setOwner(&w.CompanyID, r.CompanyID)
	w.URL, w.Events = r.URL, r.Events
	w.Active = activeFlag(r.Active, w.ID, w.Active)
}

type APIKeyRequest struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name" validate:"required,max=100"`
}

func (r *APIKeyRequest) Apply(k *domain.APIKey) {
	setOwner(&k.CompanyID, r.CompanyID)
	k.Name = r.Name
}

type CitySettingsRequest struct {
	CityID             string  `json:"city_id"`
	GrossLimitLbs      float64 `json:"gross_limit_lbs" validate:"gt=0"`
	PermitThresholdLbs float64 `json:"permit_threshold_lbs" validate:"gte=0"`
	Timezone           string  `json:"timezone"`
}

type CreateUserRequest struct {
	ID        string `json:"id"`
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
	IsAdmin   bool   `json:"is_admin"`
}

type UpdateUserRequest struct {
	Active  *bool   `json:"active"`
	IsAdmin *bool   `json:"is_admin"`
	Name    *string `json:"name"`
}

// setOwner copies an explicitly requested tenant id; an empty request keeps
// the stored owner.
func setOwner(dst *string, requested string) {
	if requested != "" {
		*dst = requested
	}
}

// activeFlag resolves the active column: explicit values win, new rows
// default to active, stored rows keep their value.
func activeFlag(requested *bool, id string, current bool) bool {
	if requested != nil {
		return *requested
	}
	if id == "" {
		return true
	}
	return current
}
