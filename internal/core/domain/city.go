package domain

import "time"

// CitySettings holds the per-city enforcement configuration.
type CitySettings struct {
	GrossLimitLbs      float64 `json:"gross_limit_lbs" bson:"gross_limit_lbs"`
	PermitThresholdLbs float64 `json:"permit_threshold_lbs" bson:"permit_threshold_lbs"`
	Timezone           string  `json:"timezone,omitempty" bson:"timezone,omitempty"`
}

// City is a municipality, the root of the city tenant.
type City struct {
	Base     `bson:",inline"`
	Name     string       `json:"name" bson:"name"`
	State    string       `json:"state" bson:"state"`
	Settings CitySettings `json:"settings" bson:"settings"`
}

func (c *City) Owner() string { return c.ID }

func (c *City) SetOwner(id string) { c.ID = id }

// PermitStatus is the stored state of an overweight permit. Expiry is
// derived from ValidTo and never stored.
type PermitStatus string

const (
	PermitActive  PermitStatus = "active"
	PermitRevoked PermitStatus = "revoked"
	PermitExpired PermitStatus = "expired"
)

// Permit is an overweight permit issued by a city.
type Permit struct {
	Base         `bson:",inline"`
	CityID       string       `json:"city_id" bson:"city_id"`
	PermitNumber string       `json:"permit_number" bson:"permit_number"`
	CompanyName  string       `json:"company_name" bson:"company_name"`
	VehiclePlate string       `json:"vehicle_plate" bson:"vehicle_plate"`
	MaxGrossLbs  float64      `json:"max_gross_lbs" bson:"max_gross_lbs"`
	ValidFrom    time.Time    `json:"valid_from" bson:"valid_from"`
	ValidTo      time.Time    `json:"valid_to" bson:"valid_to"`
	Status       PermitStatus `json:"status" bson:"status"`
}

func (p *Permit) Owner() string { return p.CityID }

func (p *Permit) SetOwner(id string) { p.CityID = id }

// EffectiveStatus reports the permit status at now.
func (p *Permit) EffectiveStatus(now time.Time) PermitStatus {
	if p.Status == PermitRevoked {
		return PermitRevoked
	}
	if !p.ValidTo.IsZero() && now.After(p.ValidTo) {
		return PermitExpired
	}
	return PermitActive
}
