package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

func NewCompanyService(repo ports.TenantRepository[domain.Company], log zerolog.Logger) *ResourceService[domain.Company, *domain.Company] {
	return NewResourceService[domain.Company, *domain.Company]("company", domain.TenantCompany, repo, log).
		WithPrepare(func(_ context.Context, _ domain.Scope, next, _ *domain.Company) error {
			return required("name", &next.Name)
		})
}

func NewDriverService(repo ports.TenantRepository[domain.Driver], log zerolog.Logger) *ResourceService[domain.Driver, *domain.Driver] {
	return NewResourceService[domain.Driver, *domain.Driver]("driver", domain.TenantCompany, repo, log).
		WithPrepare(func(_ context.Context, _ domain.Scope, next, _ *domain.Driver) error {
			if err := required("first_name", &next.FirstName); err != nil {
				return err
			}
			if err := required("last_name", &next.LastName); err != nil {
				return err
			}
			next.LicenseState = strings.ToUpper(next.LicenseState)
			return required("license_number", &next.LicenseNumber)
		})
}

func NewVehicleService(repo ports.TenantRepository[domain.Vehicle], log zerolog.Logger) *ResourceService[domain.Vehicle, *domain.Vehicle] {
	return NewResourceService[domain.Vehicle, *domain.Vehicle]("vehicle", domain.TenantCompany, repo, log).
		WithPrepare(func(_ context.Context, _ domain.Scope, next, _ *domain.Vehicle) error {
			if err := required("unit_number", &next.UnitNumber); err != nil {
				return err
			}
			next.Plate = strings.ToUpper(strings.TrimSpace(next.Plate))
			next.VIN = strings.ToUpper(next.VIN)
			if next.Axles < 0 || next.MaxGrossLbs < 0 {
				return fmt.Errorf("%w: axles and max_gross_lbs must not be negative", domain.ErrInvalidInput)
			}
			return nil
		})
}

func NewScaleService(repo ports.TenantRepository[domain.Scale], log zerolog.Logger) *ResourceService[domain.Scale, *domain.Scale] {
	return NewResourceService[domain.Scale, *domain.Scale]("scale", domain.TenantCompany, repo, log).
		WithPrepare(func(_ context.Context, _ domain.Scope, next, _ *domain.Scale) error {
			if next.CapacityLbs <= 0 {
				return fmt.Errorf("%w: capacity_lbs must be greater than 0", domain.ErrInvalidInput)
			}
			return required("name", &next.Name)
		})
}

// required trims *v and rejects an empty result.
func required(field string, v *string) error {
	*v = strings.TrimSpace(*v)
	if *v == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	return nil
}
