package domain

// Company is a trucking company, the root of the company tenant. A company
// owns itself, so its owner id is its own id.
type Company struct {
	Base      `bson:",inline"`
	Name      string `json:"name" bson:"name"`
	DOTNumber string `json:"dot_number,omitempty" bson:"dot_number,omitempty"`
	MCNumber  string `json:"mc_number,omitempty" bson:"mc_number,omitempty"`
	Address   string `json:"address,omitempty" bson:"address,omitempty"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
	Active    bool   `json:"active" bson:"active"`
}

func (c *Company) Owner() string { return c.ID }

func (c *Company) SetOwner(id string) { c.ID = id }

// Driver is a commercial driver employed by a company.
type Driver struct {
	Base          `bson:",inline"`
	CompanyID     string `json:"company_id" bson:"company_id"`
	FirstName     string `json:"first_name" bson:"first_name"`
	LastName      string `json:"last_name" bson:"last_name"`
	LicenseNumber string `json:"license_number" bson:"license_number"`
	LicenseState  string `json:"license_state" bson:"license_state"`
	Phone         string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email         string `json:"email,omitempty" bson:"email,omitempty"`
	Active        bool   `json:"active" bson:"active"`
}

func (d *Driver) Owner() string { return d.CompanyID }

func (d *Driver) SetOwner(id string) { d.CompanyID = id }

// Vehicle is a power unit or combination registered to a company.
type Vehicle struct {
	Base        `bson:",inline"`
	CompanyID   string  `json:"company_id" bson:"company_id"`
	UnitNumber  string  `json:"unit_number" bson:"unit_number"`
	VIN         string  `json:"vin,omitempty" bson:"vin,omitempty"`
	Plate       string  `json:"plate" bson:"plate"`
	PlateState  string  `json:"plate_state,omitempty" bson:"plate_state,omitempty"`
	Make        string  `json:"make,omitempty" bson:"make,omitempty"`
	Model       string  `json:"model,omitempty" bson:"model,omitempty"`
	Year        int     `json:"year,omitempty" bson:"year,omitempty"`
	Axles       int     `json:"axles" bson:"axles"`
	MaxGrossLbs float64 `json:"max_gross_lbs,omitempty" bson:"max_gross_lbs,omitempty"`
	Active      bool    `json:"active" bson:"active"`
}

func (v *Vehicle) Owner() string { return v.CompanyID }

func (v *Vehicle) SetOwner(id string) { v.CompanyID = id }

// Scale is a certified truck scale operated by a company.
type Scale struct {
	Base        `bson:",inline"`
	CompanyID   string  `json:"company_id" bson:"company_id"`
	Name        string  `json:"name" bson:"name"`
	Location    string  `json:"location,omitempty" bson:"location,omitempty"`
	CapacityLbs float64 `json:"capacity_lbs" bson:"capacity_lbs"`
	Active      bool    `json:"active" bson:"active"`
}

func (s *Scale) Owner() string { return s.CompanyID }

func (s *Scale) SetOwner(id string) { s.CompanyID = id }
