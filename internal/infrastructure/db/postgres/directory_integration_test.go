//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

func startDirectory(t *testing.T) *Directory {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgC, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("weighbridge"),
		postgres.WithUsername("weighbridge"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	dir := NewDirectory(pool)
	if err := dir.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dir
}

func TestDirectory_CompanyUsers_Integration(t *testing.T) {
	dir := startDirectory(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	company := "5"

	admin := &domain.CompanyUser{ID: "sub-admin", Email: "admin@acme.example", CompanyID: &company, IsAdmin: true, Active: true, CreatedAt: now, UpdatedAt: now}
	super := &domain.CompanyUser{ID: "sub-super", Email: "root@haulscale.example", IsAdmin: true, Active: true, CreatedAt: now, UpdatedAt: now}
	for _, u := range []*domain.CompanyUser{admin, super} {
		if err := dir.CreateCompanyUser(ctx, u); err != nil {
			t.Fatalf("create %s: %v", u.ID, err)
		}
	}
	if err := dir.CreateCompanyUser(ctx, admin); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := dir.FindCompanyUser(ctx, ports.Lookup{ID: "sub-super"})
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.CompanyID != nil || got.Identity().Role != domain.RoleSuperAdmin {
		t.Errorf("expected null company for super-admin, got %+v", got)
	}

	got, err = dir.FindCompanyUser(ctx, ports.Lookup{Email: "admin@acme.example"})
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.Identity().Role != domain.RoleCompanyAdmin || got.Identity().CompanyID != "5" {
		t.Errorf("unexpected identity %+v", got.Identity())
	}

	if _, err := dir.FindCompanyUser(ctx, ports.Lookup{ID: "nobody"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	users, err := dir.ListCompanyUsers(ctx, "5")
	if err != nil || len(users) != 1 {
		t.Fatalf("expected 1 user of company 5, got %d, %v", len(users), err)
	}
	users, _ = dir.ListCompanyUsers(ctx, "")
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	admin.Active = false
	if err := dir.UpdateCompanyUser(ctx, admin); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = dir.FindCompanyUser(ctx, ports.Lookup{ID: admin.ID})
	if got.Active {
		t.Error("expected user deactivated")
	}
}

func TestDirectory_CityUsers_Integration(t *testing.T) {
	dir := startDirectory(t)
	ctx := context.Background()

	if _, err := dir.pool.Exec(ctx,
		`INSERT INTO city_users (id, email, city_id, role) VALUES ('sub-insp', 'insp@austin.example', 'austin', 'inspector')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	u, err := dir.FindCityUser(ctx, ports.Lookup{ID: "sub-insp"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	id, err := u.Identity()
	if err != nil || id.Role != domain.RoleCityInspector || id.CityID != "austin" {
		t.Fatalf("unexpected identity %+v, %v", id, err)
	}
	users, err := dir.ListCityUsers(ctx, "dallas")
	if err != nil || len(users) != 0 {
		t.Fatalf("expected no dallas users, got %d, %v", len(users), err)
	}
	if err := dir.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
