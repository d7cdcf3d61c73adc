package ports

import (
	"context"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

// TokenVerifier is the hosted auth service's token check. It returns the
// verified subject id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Lookup selects a single directory record by id or, when ID is empty, by email.
type Lookup struct {
	ID    string
	Email string
}

// Directory is the hosted data service's view of application accounts.
// Single-record lookups return domain.ErrNotFound when nothing matches.
type Directory interface {
	FindCompanyUser(ctx context.Context, by Lookup) (*domain.CompanyUser, error)
	FindCityUser(ctx context.Context, by Lookup) (*domain.CityUser, error)

	// ListCompanyUsers returns all company users, or those of one company
	// when companyID is non-empty.
	ListCompanyUsers(ctx context.Context, companyID string) ([]*domain.CompanyUser, error)
	CreateCompanyUser(ctx context.Context, u *domain.CompanyUser) error
	UpdateCompanyUser(ctx context.Context, u *domain.CompanyUser) error
	ListCityUsers(ctx context.Context, cityID string) ([]*domain.CityUser, error)

	Ping(ctx context.Context) error
}

// Authenticator resolves the identity behind an Authorization header.
type Authenticator interface {
	Authenticate(ctx context.Context, header string, family domain.TenantKind) (domain.Identity, error)
}

// APIKeyAuthenticator resolves the identity behind a scale integration key.
type APIKeyAuthenticator interface {
	AuthenticateKey(ctx context.Context, key string) (domain.Identity, error)
}
