package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

func TestWebhookService_Register(t *testing.T) {
	repo := newMemRepo[domain.Webhook, *domain.Webhook](nil)
	svc := NewWebhookService(repo, zerolog.Nop())

	wh, secret, err := svc.Register(context.Background(), userCo5, &domain.Webhook{
		URL:    "https://tms.example.com/hooks",
		Events: []string{domain.EventWeightOverweight},
		Active: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(secret, "whsec_") || repo.rows[wh.ID].Secret != secret {
		t.Errorf("expected stored signing secret, got %q", secret)
	}
	if !wh.Active || wh.CompanyID != "5" {
		t.Errorf("unexpected webhook %+v", wh)
	}
}

func TestWebhookService_RegisterKeepsInactiveFlag(t *testing.T) {
	repo := newMemRepo[domain.Webhook, *domain.Webhook](nil)
	svc := NewWebhookService(repo, zerolog.Nop())

	wh, _, err := svc.Register(context.Background(), userCo5, &domain.Webhook{
		URL:    "https://tms.example.com/hooks",
		Events: []string{"*"},
		Active: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wh.Active || repo.rows[wh.ID].Active {
		t.Errorf("expected webhook to be stored inactive, got %+v", repo.rows[wh.ID])
	}
}

func TestWebhookService_Validation(t *testing.T) {
	svc := NewWebhookService(newMemRepo[domain.Webhook, *domain.Webhook](nil), zerolog.Nop())
	cases := []*domain.Webhook{
		{URL: "ftp://example.com", Events: []string{"*"}},
		{URL: "/relative", Events: []string{"*"}},
		{URL: "https://example.com"},
		{URL: "https://example.com", Events: []string{"driver.deleted"}},
	}
	for _, wh := range cases {
		if _, _, err := svc.Register(context.Background(), userCo5, wh); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", wh, err)
		}
	}
}

func TestWebhookService_UpdateKeepsSecret(t *testing.T) {
	repo := newMemRepo[domain.Webhook, *domain.Webhook](nil)
	svc := NewWebhookService(repo, zerolog.Nop())
	wh, secret, _ := svc.Register(context.Background(), userCo5, &domain.Webhook{URL: "https://a.example.com", Events: []string{"*"}})

	out, err := svc.Update(context.Background(), userCo5, wh.ID, func(w *domain.Webhook) error {
		w.Secret = ""
		w.Active = false
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Secret != secret || out.Active {
		t.Errorf("unexpected webhook %+v", out)
	}
}
