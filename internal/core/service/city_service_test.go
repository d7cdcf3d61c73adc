package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

func newCityFixture() (*CityService, *memRepo[domain.City, *domain.City]) {
	repo := newMemRepo[domain.City, *domain.City](nil)
	repo.seed(
		&domain.City{Base: domain.Base{ID: "austin"}, Name: "Austin", State: "TX", Settings: domain.CitySettings{GrossLimitLbs: 80000}},
		&domain.City{Base: domain.Base{ID: "dallas"}, Name: "Dallas", State: "TX"},
	)
	return NewCityService(repo, zerolog.Nop()), repo
}

func TestCityService_Settings_OwnCity(t *testing.T) {
	svc, _ := newCityFixture()
	city, err := svc.Settings(context.Background(), cityInspect, "dallas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if city.ID != "austin" {
		t.Errorf("expected own city, got %s", city.ID)
	}
	if _, err := svc.Settings(context.Background(), superAdmin, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected super-admin to name a city, got %v", err)
	}
}

func TestCityService_UpdateSettings(t *testing.T) {
	svc, repo := newCityFixture()
	settings := domain.CitySettings{GrossLimitLbs: 84000, PermitThresholdLbs: 80000, Timezone: "America/Chicago"}

	if _, err := svc.UpdateSettings(context.Background(), cityInspect, "", settings); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected inspector refused, got %v", err)
	}
	city, err := svc.UpdateSettings(context.Background(), cityAdmin, "", settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if city.Settings != settings || repo.rows["austin"].Settings != settings {
		t.Errorf("settings not stored: %+v", city.Settings)
	}

	settings.Timezone = "Mars/Olympus"
	if _, err := svc.UpdateSettings(context.Background(), cityAdmin, "", settings); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPermitService_Create(t *testing.T) {
	repo := newMemRepo[domain.Permit, *domain.Permit](nil)
	svc := NewPermitService(repo, zerolog.Nop())
	now := time.Now().UTC()

	p, err := svc.Create(context.Background(), cityAdmin, &domain.Permit{
		PermitNumber: " OW-1 ", MaxGrossLbs: 95000, ValidTo: now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CityID != "austin" || p.Status != domain.PermitActive || p.PermitNumber != "OW-1" {
		t.Errorf("unexpected permit %+v", p)
	}

	_, err = svc.Create(context.Background(), cityAdmin, &domain.Permit{
		PermitNumber: "OW-2", MaxGrossLbs: 95000, ValidFrom: now, ValidTo: now.Add(-time.Hour),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := svc.Create(context.Background(), userCo5, &domain.Permit{PermitNumber: "OW-3", MaxGrossLbs: 1}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected company identity refused, got %v", err)
	}
}
