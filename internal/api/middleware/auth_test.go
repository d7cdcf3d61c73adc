package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

type stubAuthn struct {
	id     domain.Identity
	err    error
	header string
	family domain.TenantKind
}

func (s *stubAuthn) Authenticate(_ context.Context, header string, family domain.TenantKind) (domain.Identity, error) {
	s.header, s.family = header, family
	return s.id, s.err
}

type stubKeys struct {
	id  domain.Identity
	err error
	key string
}

func (s *stubKeys) AuthenticateKey(_ context.Context, key string) (domain.Identity, error) {
	s.key = key
	return s.id, s.err
}

func newContext(header, value string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/drivers", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate_StoresIdentity(t *testing.T) {
	authn := &stubAuthn{id: domain.Identity{UserID: "u1", Role: domain.RoleCompanyUser, CompanyID: "c1"}}
	c, rec := newContext(echo.HeaderAuthorization, "Bearer tok")

	called := false
	h := Authenticate(authn, domain.TenantCity)(func(c echo.Context) error {
		called = true
		id, ok := IdentityFrom(c)
		if !ok || id.UserID != "u1" {
			t.Fatalf("identity not set: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if authn.header != "Bearer tok" || authn.family != domain.TenantCity {
		t.Fatalf("authenticator got header=%q family=%q", authn.header, authn.family)
	}
}

func TestAuthenticate_ReturnsFailure(t *testing.T) {
	authn := &stubAuthn{err: domain.ErrNoToken}
	c, _ := newContext("", "")

	h := Authenticate(authn, domain.TenantCompany)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := h(c); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestFailureReason(t *testing.T) {
	cases := map[error]string{
		domain.ErrNoToken:         "no_token",
		domain.ErrInvalidToken:    "invalid_token",
		domain.ErrUserNotFound:    "user_not_found",
		domain.ErrInactiveAccount: "inactive",
		errors.New("boom"):        "error",
	}
	for err, want := range cases {
		if got := failureReason(err); got != want {
			t.Errorf("failureReason(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestAPIKey_MissingHeader(t *testing.T) {
	keys := &stubKeys{}
	c, _ := newContext("", "")

	h := APIKey(keys)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := h(c); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestAPIKey_StoresIntegrationIdentity(t *testing.T) {
	keys := &stubKeys{id: domain.Identity{UserID: "apikey:k1", Role: domain.RoleIntegration, CompanyID: "c1"}}
	c, _ := newContext(APIKeyHeader, "wb_abc_secret")

	h := APIKey(keys)(func(c echo.Context) error {
		id, _ := IdentityFrom(c)
		if id.Role != domain.RoleIntegration || id.CompanyID != "c1" {
			t.Fatalf("unexpected identity %+v", id)
		}
		return nil
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if keys.key != "wb_abc_secret" {
		t.Fatalf("key not forwarded: %q", keys.key)
	}
}

func TestAPIKey_RejectsRevoked(t *testing.T) {
	keys := &stubKeys{err: domain.ErrInactiveAccount}
	c, _ := newContext(APIKeyHeader, "wb_abc_secret")

	h := APIKey(keys)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := h(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
}
