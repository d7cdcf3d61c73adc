package ports

import (
	"context"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

// ResourceService is the tenant-scoped CRUD surface the handlers call.
type ResourceService[T any] interface {
	List(ctx context.Context, id domain.Identity, q ListQuery) (*Page[T], error)
	Get(ctx context.Context, id domain.Identity, recID string) (*T, error)
	Create(ctx context.Context, id domain.Identity, rec *T) (*T, error)
	// Update loads the row, applies fn to it and stores the result.
	Update(ctx context.Context, id domain.Identity, recID string, fn func(*T) error) (*T, error)
	Delete(ctx context.Context, id domain.Identity, recID string) error
}

// CompanyStats is the company dashboard summary.
type CompanyStats struct {
	Drivers       int64            `json:"drivers"`
	Vehicles      int64            `json:"vehicles"`
	LoadsByStatus map[string]int64 `json:"loads_by_status"`
	Weights       int64            `json:"weights"`
	Overweight    int64            `json:"overweight"`
}

// CityStats is the city dashboard summary.
type CityStats struct {
	CityID          string           `json:"city_id"`
	Permits         int64            `json:"permits"`
	PermitsByStatus map[string]int64 `json:"permits_by_status"`
	Users           int              `json:"users"`
}

// DashboardService aggregates the dashboard views.
type DashboardService interface {
	CompanyStats(ctx context.Context, id domain.Identity) (*CompanyStats, error)
	CityStats(ctx context.Context, id domain.Identity, cityID string) (*CityStats, error)
}

// CreateCompanyUserInput carries the fields an operator may set on a new account.
type CreateCompanyUserInput struct {
	ID        string
	Email     string
	Name      string
	CompanyID string
	IsAdmin   bool
}

// UpdateCompanyUserInput carries optional account changes.
type UpdateCompanyUserInput struct {
	Active  *bool
	IsAdmin *bool
	Name    *string
}

// UserService manages application accounts.
type UserService interface {
	ListCompanyUsers(ctx context.Context, id domain.Identity, companyID string) ([]*domain.CompanyUser, error)
	CreateCompanyUser(ctx context.Context, id domain.Identity, in CreateCompanyUserInput) (*domain.CompanyUser, error)
	UpdateCompanyUser(ctx context.Context, id domain.Identity, userID string, in UpdateCompanyUserInput) (*domain.CompanyUser, error)
	ListCityUsers(ctx context.Context, id domain.Identity, cityID string) ([]*domain.CityUser, error)
}

// CityService reads and writes the caller's city settings.
type CityService interface {
	Settings(ctx context.Context, id domain.Identity, cityID string) (*domain.City, error)
	UpdateSettings(ctx context.Context, id domain.Identity, cityID string, s domain.CitySettings) (*domain.City, error)
}

// LoadService adds status transitions to the generic load CRUD.
type LoadService interface {
	ResourceService[domain.Load]
	Transition(ctx context.Context, id domain.Identity, loadID string, next domain.LoadStatus) (*domain.Load, error)
}

// WeightService adds integration ingestion to the generic weight CRUD.
type WeightService interface {
	ResourceService[domain.Weight]
	Ingest(ctx context.Context, id domain.Identity, w *domain.Weight) (*domain.Weight, error)
}

// APIKeyService issues keys; the plaintext key is returned only from Issue.
type APIKeyService interface {
	ResourceService[domain.APIKey]
	Issue(ctx context.Context, id domain.Identity, name, companyID string) (*domain.APIKey, string, error)
}

// WebhookService registers webhooks; the signing secret is returned only from Register.
type WebhookService interface {
	ResourceService[domain.Webhook]
	Register(ctx context.Context, id domain.Identity, wh *domain.Webhook) (*domain.Webhook, string, error)
}
