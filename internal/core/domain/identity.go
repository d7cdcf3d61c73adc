package domain

import "fmt"

// Role is the privilege tier of a resolved identity.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleCompanyAdmin  Role = "company_admin"
	RoleCompanyUser   Role = "company_user"
	RoleCityAdmin     Role = "city_admin"
	RoleCityInspector Role = "city_inspector"
	// RoleIntegration is carried by scale integrations authenticated with an API key.
	RoleIntegration Role = "integration"
)

// CompanyRoles and CityRoles group the roles of each tenant family.
var (
	CompanyRoles = []Role{RoleSuperAdmin, RoleCompanyAdmin, RoleCompanyUser}
	CityRoles    = []Role{RoleCityAdmin, RoleCityInspector}
)

// TenantKind names the unit of data isolation a row or identity belongs to.
type TenantKind string

const (
	TenantPlatform TenantKind = ""
	TenantCompany  TenantKind = "company"
	TenantCity     TenantKind = "city"
)

// Identity is the request-scoped principal derived from a verified token.
// Exactly one of CompanyID and CityID is set, except for super-admins which
// carry neither.
type Identity struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	CityID    string `json:"city_id,omitempty"`
}

func (i Identity) IsSuperAdmin() bool { return i.Role == RoleSuperAdmin }

// TenantKind reports which tenant family the identity is scoped to.
func (i Identity) TenantKind() TenantKind {
	switch i.Role {
	case RoleCompanyAdmin, RoleCompanyUser, RoleIntegration:
		return TenantCompany
	case RoleCityAdmin, RoleCityInspector:
		return TenantCity
	default:
		return TenantPlatform
	}
}

// TenantID returns the id of the tenant the identity is confined to, or ""
// for super-admins.
func (i Identity) TenantID() string {
	switch i.TenantKind() {
	case TenantCompany:
		return i.CompanyID
	case TenantCity:
		return i.CityID
	default:
		return ""
	}
}

// CompanyRestricted reports whether downstream queries must be filtered by
// the identity's company.
func (i Identity) CompanyRestricted() bool {
	return i.TenantKind() == TenantCompany && i.CompanyID != ""
}

// HasRole reports whether the identity's role is one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// CompanyRole classifies a company user record. An admin without a company
// is a platform super-admin; there is no separate flag for it.
func CompanyRole(isAdmin bool, companyID *string) Role {
	hasCompany := companyID != nil && *companyID != ""
	switch {
	case isAdmin && !hasCompany:
		return RoleSuperAdmin
	case isAdmin:
		return RoleCompanyAdmin
	default:
		return RoleCompanyUser
	}
}

// CityRole maps the role column of a city user record.
func CityRole(role string) (Role, error) {
	switch role {
	case "admin", string(RoleCityAdmin):
		return RoleCityAdmin, nil
	case "inspector", string(RoleCityInspector), "":
		return RoleCityInspector, nil
	default:
		return "", fmt.Errorf("%w: unknown city role %q", ErrInvalidInput, role)
	}
}
