package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// NewPermitService returns the CRUD surface for a city's overweight permits.
func NewPermitService(repo ports.TenantRepository[domain.Permit], log zerolog.Logger) *ResourceService[domain.Permit, *domain.Permit] {
	return NewResourceService[domain.Permit, *domain.Permit]("permit", domain.TenantCity, repo, log).
		WithPrepare(func(_ context.Context, _ domain.Scope, next, _ *domain.Permit) error {
			next.PermitNumber = strings.TrimSpace(next.PermitNumber)
			if next.PermitNumber == "" {
				return fmt.Errorf("%w: permit_number is required", domain.ErrInvalidInput)
			}
			if next.MaxGrossLbs <= 0 {
				return fmt.Errorf("%w: max_gross_lbs must be greater than 0", domain.ErrInvalidInput)
			}
			if next.ValidFrom.IsZero() {
				next.ValidFrom = next.CreatedAt
			}
			if !next.ValidTo.IsZero() && !next.ValidTo.After(next.ValidFrom) {
				return fmt.Errorf("%w: valid_to must be after valid_from", domain.ErrInvalidInput)
			}
			switch next.Status {
			case "":
				next.Status = domain.PermitActive
			case domain.PermitActive, domain.PermitRevoked, domain.PermitExpired:
			default:
				return fmt.Errorf("%w: unknown permit status %q", domain.ErrInvalidInput, next.Status)
			}
			next.Status = next.EffectiveStatus(next.UpdatedAt)
			return nil
		})
}

// CityService reads and writes city enforcement settings.
type CityService struct {
	cities ports.TenantRepository[domain.City]
	now    func() time.Time
	log    zerolog.Logger
}

func NewCityService(cities ports.TenantRepository[domain.City], log zerolog.Logger) *CityService {
	return &CityService{
		cities: cities,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

// Settings returns the caller's city. Super-admins must name one.
func (s *CityService) Settings(ctx context.Context, id domain.Identity, cityID string) (*domain.City, error) {
	scope, target, err := s.resolve(id, cityID)
	if err != nil {
		return nil, err
	}
	city, err := s.cities.Get(ctx, scope, target)
	if err != nil {
		return nil, fmt.Errorf("city settings: %w", err)
	}
	return city, nil
}

// UpdateSettings replaces the settings of the caller's city. Inspectors may
// read settings but not change them.
func (s *CityService) UpdateSettings(ctx context.Context, id domain.Identity, cityID string, settings domain.CitySettings) (*domain.City, error) {
	if !id.HasRole(domain.RoleCityAdmin, domain.RoleSuperAdmin) {
		return nil, fmt.Errorf("update city settings: %w", domain.ErrForbidden)
	}
	if settings.GrossLimitLbs <= 0 {
		return nil, fmt.Errorf("%w: gross_limit_lbs must be greater than 0", domain.ErrInvalidInput)
	}
	if settings.PermitThresholdLbs < 0 {
		return nil, fmt.Errorf("%w: permit_threshold_lbs must not be negative", domain.ErrInvalidInput)
	}
	if settings.Timezone != "" {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, settings.Timezone)
		}
	}

	city, err := s.Settings(ctx, id, cityID)
	if err != nil {
		return nil, err
	}
	city.Settings = settings
	city.Stamp(s.now())
	scope := domain.Scope{Kind: domain.TenantCity, TenantID: city.ID}
	if err := s.cities.Update(ctx, scope, city); err != nil {
		return nil, fmt.Errorf("update city settings: %w", err)
	}
	s.log.Info().Str("city_id", city.ID).Str("user_id", id.UserID).Msg("city settings updated")
	return city, nil
}

func (s *CityService) resolve(id domain.Identity, cityID string) (domain.Scope, string, error) {
	scope, err := domain.ScopeFor(id, domain.TenantCity)
	if err != nil {
		return domain.Scope{}, "", fmt.Errorf("city settings: %w", err)
	}
	if scope.Restricted() {
		return scope, scope.TenantID, nil
	}
	if cityID == "" {
		return domain.Scope{}, "", fmt.Errorf("%w: city_id is required", domain.ErrInvalidInput)
	}
	return scope, cityID, nil
}
