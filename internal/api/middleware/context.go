package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

// Context keys set by the access-control chain.
const (
	identityKey          = "identity"
	companyRestrictedKey = "company_restricted"
)

// SetIdentity stores the resolved identity on the request context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by Authenticate or APIKey.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

// CompanyRestricted reports whether the guard marked the request as confined
// to the caller's company.
func CompanyRestricted(c echo.Context) bool {
	restricted, _ := c.Get(companyRestrictedKey).(bool)
	return restricted
}
