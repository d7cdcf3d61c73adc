package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/policy"
)

func guarded(t *testing.T, path string, id *domain.Identity) (echo.Context, bool, error) {
	t.Helper()
	c, _ := newContext("", "")
	if id != nil {
		SetIdentity(c, *id)
	}
	called := false
	h := Guard(policy.DefaultTable().For(path), zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})
	err := h(c)
	return c, called, err
}

func TestGuard_CompanyAdminDeniedOnDenyList(t *testing.T) {
	admin := domain.Identity{UserID: "u1", Role: domain.RoleCompanyAdmin, CompanyID: "c1"}

	_, called, err := guarded(t, "/api/city-permits/:id", &admin)
	if called {
		t.Fatalf("next must not run")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if he.Message != policy.CompanyAdminDenied {
		t.Fatalf("unexpected message %v", he.Message)
	}
}

func TestGuard_SuperAdminNotRestricted(t *testing.T) {
	super := domain.Identity{UserID: "root", Role: domain.RoleSuperAdmin}

	c, called, err := guarded(t, "/api/admin/users", &super)
	if err != nil || !called {
		t.Fatalf("super-admin must pass: err=%v called=%v", err, called)
	}
	if CompanyRestricted(c) {
		t.Fatalf("super-admin must not be company restricted")
	}
}

func TestGuard_CompanyUserRestricted(t *testing.T) {
	user := domain.Identity{UserID: "u2", Role: domain.RoleCompanyUser, CompanyID: "c7"}

	c, called, err := guarded(t, "/api/drivers", &user)
	if err != nil || !called {
		t.Fatalf("company user must pass: err=%v called=%v", err, called)
	}
	if !CompanyRestricted(c) {
		t.Fatalf("company user must be company restricted")
	}
}

func TestGuard_MissingIdentity(t *testing.T) {
	_, called, err := guarded(t, "/api/drivers", nil)
	if called {
		t.Fatalf("next must not run")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		name    string
		role    domain.Role
		allowed bool
	}{
		{"listed role", domain.RoleCityAdmin, true},
		{"super-admin always", domain.RoleSuperAdmin, true},
		{"other role", domain.RoleCityInspector, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newContext("", "")
			SetIdentity(c, domain.Identity{UserID: "u", Role: tc.role, CityID: "city1"})

			called := false
			err := RequireRoles(domain.RoleCityAdmin)(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			if called != tc.allowed {
				t.Fatalf("called = %v, want %v (err=%v)", called, tc.allowed, err)
			}
			if !tc.allowed {
				var he *echo.HTTPError
				if !errors.As(err, &he) || he.Code != http.StatusForbidden {
					t.Fatalf("expected 403, got %v", err)
				}
			}
		})
	}
}
