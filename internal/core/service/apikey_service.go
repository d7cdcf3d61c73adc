package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

const apiKeyScheme = "wb"

// APIKeyStore is the persistence an APIKeyService needs.
type APIKeyStore interface {
	ports.TenantRepository[domain.APIKey]
	ports.APIKeyRepository
}

// APIKeyService issues and authenticates scale integration keys. A key has
// the form wb_<prefix>_<secret>; only the bcrypt hash of the secret is stored.
type APIKeyService struct {
	*ResourceService[domain.APIKey, *domain.APIKey]
	keys APIKeyStore
	cost int
	log  zerolog.Logger
}

func NewAPIKeyService(keys APIKeyStore, log zerolog.Logger) *APIKeyService {
	return &APIKeyService{
		ResourceService: NewResourceService[domain.APIKey, *domain.APIKey]("api_key", domain.TenantCompany, keys, log),
		keys:            keys,
		cost:            bcrypt.DefaultCost,
		log:             log,
	}
}

// Create is not supported; keys are only minted through Issue so the
// plaintext can be returned once.
func (s *APIKeyService) Create(ctx context.Context, id domain.Identity, k *domain.APIKey) (*domain.APIKey, error) {
	out, _, err := s.Issue(ctx, id, k.Name, k.CompanyID)
	return out, err
}

// Issue mints a key for companyID (the caller's company when restricted).
// The returned plaintext is not recoverable afterwards.
func (s *APIKeyService) Issue(ctx context.Context, id domain.Identity, name, companyID string) (*domain.APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	prefix, err := randomToken(6, hex.EncodeToString)
	if err != nil {
		return nil, "", fmt.Errorf("issue api key: %w", err)
	}
	secret, err := randomToken(24, base64.RawURLEncoding.EncodeToString)
	if err != nil {
		return nil, "", fmt.Errorf("issue api key: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("issue api key: hash: %w", err)
	}

	key := &domain.APIKey{CompanyID: companyID, Name: name, Prefix: prefix, Hash: string(hash)}
	out, err := s.ResourceService.Create(ctx, id, key)
	if err != nil {
		return nil, "", err
	}
	return out, apiKeyScheme + "_" + prefix + "_" + secret, nil
}

// AuthenticateKey resolves a presented key to its integration identity.
func (s *APIKeyService) AuthenticateKey(ctx context.Context, raw string) (domain.Identity, error) {
	prefix, secret, ok := splitAPIKey(raw)
	if !ok {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	key, err := s.keys.FindByPrefix(ctx, prefix)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("authenticate api key: %w", err)
	}
	if key.Revoked {
		return domain.Identity{}, domain.ErrInactiveAccount
	}
	if bcrypt.CompareHashAndPassword([]byte(key.Hash), []byte(secret)) != nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	if err := s.keys.TouchLastUsed(ctx, key.ID); err != nil {
		s.log.Warn().Err(err).Str("api_key_id", key.ID).Msg("failed to record key use")
	}
	return key.Identity(), nil
}

func splitAPIKey(raw string) (prefix, secret string, ok bool) {
	scheme, rest, ok := strings.Cut(raw, "_")
	if !ok || scheme != apiKeyScheme {
		return "", "", false
	}
	prefix, secret, ok = strings.Cut(rest, "_")
	if !ok || prefix == "" || secret == "" {
		return "", "", false
	}
	return prefix, secret, true
}

func randomToken(n int, encode func([]byte) string) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return encode(b), nil
}
