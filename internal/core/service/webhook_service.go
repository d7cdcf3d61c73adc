package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"slices"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// WebhookService manages a company's outbound event subscriptions.
type WebhookService struct {
	*ResourceService[domain.Webhook, *domain.Webhook]
}

func NewWebhookService(repo ports.TenantRepository[domain.Webhook], log zerolog.Logger) *WebhookService {
	s := &WebhookService{
		ResourceService: NewResourceService[domain.Webhook, *domain.Webhook]("webhook", domain.TenantCompany, repo, log),
	}
	s.WithPrepare(func(_ context.Context, _ domain.Scope, next, prev *domain.Webhook) error {
		if prev != nil {
			next.Secret = prev.Secret
		}
		return validateWebhook(next)
	})
	return s
}

func (s *WebhookService) Create(ctx context.Context, id domain.Identity, wh *domain.Webhook) (*domain.Webhook, error) {
	out, _, err := s.Register(ctx, id, wh)
	return out, err
}

// Register stores wh with a freshly generated signing secret. The secret is
// returned once; deliveries are signed with it. wh.Active is stored as given.
func (s *WebhookService) Register(ctx context.Context, id domain.Identity, wh *domain.Webhook) (*domain.Webhook, string, error) {
	secret, err := randomToken(32, hex.EncodeToString)
	if err != nil {
		return nil, "", fmt.Errorf("register webhook: %w", err)
	}
	wh.Secret = "whsec_" + secret
	out, err := s.ResourceService.Create(ctx, id, wh)
	if err != nil {
		return nil, "", err
	}
	return out, wh.Secret, nil
}

func validateWebhook(wh *domain.Webhook) error {
	u, err := url.Parse(wh.URL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL", domain.ErrInvalidInput)
	}
	if len(wh.Events) == 0 {
		return fmt.Errorf("%w: at least one event is required", domain.ErrInvalidInput)
	}
	for _, e := range wh.Events {
		if e != "*" && !slices.Contains(domain.KnownEvents, e) {
			return fmt.Errorf("%w: unknown event %q", domain.ErrInvalidInput, e)
		}
	}
	return nil
}
