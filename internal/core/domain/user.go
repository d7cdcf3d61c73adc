package domain

import "time"

// CompanyUser is the application record of a trucking-company account. The
// ID equals the subject id issued by the hosted auth service.
type CompanyUser struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	CompanyID *string   `json:"company_id" bson:"company_id"`
	IsAdmin   bool      `json:"is_admin" bson:"is_admin"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Identity converts the record into a request identity.
func (u *CompanyUser) Identity() Identity {
	id := Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   CompanyRole(u.IsAdmin, u.CompanyID),
	}
	if id.Role != RoleSuperAdmin && u.CompanyID != nil {
		id.CompanyID = *u.CompanyID
	}
	return id
}

// CityUser is the application record of a municipal portal account.
type CityUser struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	CityID    string    `json:"city_id" bson:"city_id"`
	Role      string    `json:"role" bson:"role"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Identity converts the record into a request identity.
func (u *CityUser) Identity() (Identity, error) {
	role, err := CityRole(u.Role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: u.ID, Email: u.Email, Role: role, CityID: u.CityID}, nil
}
