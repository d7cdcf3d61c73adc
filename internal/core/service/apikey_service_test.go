package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

type memKeyStore struct {
	*memRepo[domain.APIKey, *domain.APIKey]
	touched []string
}

func (s *memKeyStore) FindByPrefix(_ context.Context, prefix string) (*domain.APIKey, error) {
	for _, k := range s.rows {
		if k.Prefix == prefix {
			clone := *k
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memKeyStore) TouchLastUsed(_ context.Context, id string) error {
	now := time.Now()
	s.rows[id].LastUsedAt = &now
	s.touched = append(s.touched, id)
	return nil
}

func newKeyFixture() (*APIKeyService, *memKeyStore) {
	store := &memKeyStore{memRepo: newMemRepo[domain.APIKey, *domain.APIKey](nil)}
	svc := NewAPIKeyService(store, zerolog.Nop())
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestAPIKeyService_IssueAndAuthenticate(t *testing.T) {
	svc, store := newKeyFixture()
	key, plain, err := svc.Issue(context.Background(), adminCo5, "Scale house 1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(plain, "wb_"+key.Prefix+"_") {
		t.Fatalf("unexpected key format %q", plain)
	}
	if key.CompanyID != "5" || key.Hash == "" || strings.Contains(key.Hash, plain) {
		t.Fatalf("unexpected stored key %+v", key)
	}

	id, err := svc.AuthenticateKey(context.Background(), plain)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Role != domain.RoleIntegration || id.CompanyID != "5" || id.UserID != "apikey:"+key.ID {
		t.Errorf("unexpected identity %+v", id)
	}
	if len(store.touched) != 1 {
		t.Error("expected last-used recorded")
	}
}

func TestAPIKeyService_Authenticate_Rejects(t *testing.T) {
	svc, store := newKeyFixture()
	key, plain, _ := svc.Issue(context.Background(), adminCo5, "k", "")

	for _, raw := range []string{"", "garbage", "wb_", "wb_" + key.Prefix + "_wrong", "xx_" + strings.TrimPrefix(plain, "wb_"), "wb_ffffffffffff_secret"} {
		if _, err := svc.AuthenticateKey(context.Background(), raw); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("%q: expected ErrInvalidToken, got %v", raw, err)
		}
	}

	store.rows[key.ID].Revoked = true
	if _, err := svc.AuthenticateKey(context.Background(), plain); !errors.Is(err, domain.ErrInactiveAccount) {
		t.Fatalf("expected revoked key rejected, got %v", err)
	}
}

func TestAPIKeyService_Issue_RequiresName(t *testing.T) {
	svc, _ := newKeyFixture()
	if _, _, err := svc.Issue(context.Background(), adminCo5, " ", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAPIKeyService_Issue_ForeignCompanyForbidden(t *testing.T) {
	svc, store := newKeyFixture()
	if _, _, err := svc.Issue(context.Background(), adminCo5, "k", "7"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Error("nothing should be stored")
	}
}
