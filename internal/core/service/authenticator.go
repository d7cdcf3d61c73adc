package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

const bearerScheme = "bearer"

// Authenticator turns an Authorization header into a request identity. It
// keeps no state between requests: every call re-verifies the token and
// reloads the account record.
type Authenticator struct {
	verifier  ports.TokenVerifier
	directory ports.Directory
	log       zerolog.Logger
}

// NewAuthenticator returns an Authenticator backed by the given hosted-service
// primitives.
func NewAuthenticator(verifier ports.TokenVerifier, directory ports.Directory, log zerolog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, directory: directory, log: log}
}

// Authenticate resolves the identity for header. The route family picks which
// account table is consulted first; the other table is consulted only when
// the first has no record, so the guard can refuse a cross-family caller with
// 403 instead of reporting an unknown user.
func (a *Authenticator) Authenticate(ctx context.Context, header string, family domain.TenantKind) (domain.Identity, error) {
	token, ok := bearerToken(header)
	if !ok {
		return domain.Identity{}, domain.ErrNoToken
	}

	subject, err := a.verifier.VerifyToken(ctx, token)
	if err != nil {
		a.log.Debug().Err(err).Msg("token verification failed")
		return domain.Identity{}, domain.ErrInvalidToken
	}
	if subject == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	lookups := []func(context.Context, string) (domain.Identity, error){a.companyIdentity, a.cityIdentity}
	if family == domain.TenantCity {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	for _, lookup := range lookups {
		id, err := lookup(ctx, subject)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.Identity{}, err
		}
		return id, nil
	}

	a.log.Debug().Str("subject", subject).Msg("no account for verified subject")
	return domain.Identity{}, domain.ErrUserNotFound
}

func (a *Authenticator) companyIdentity(ctx context.Context, subject string) (domain.Identity, error) {
	u, err := a.directory.FindCompanyUser(ctx, ports.Lookup{ID: subject})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, fmt.Errorf("load company user: %w", err)
	}
	if !u.Active {
		a.log.Info().Str("user_id", u.ID).Msg("inactive company account rejected")
		return domain.Identity{}, domain.ErrInactiveAccount
	}
	return u.Identity(), nil
}

func (a *Authenticator) cityIdentity(ctx context.Context, subject string) (domain.Identity, error) {
	u, err := a.directory.FindCityUser(ctx, ports.Lookup{ID: subject})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, fmt.Errorf("load city user: %w", err)
	}
	if !u.Active {
		a.log.Info().Str("user_id", u.ID).Msg("inactive city account rejected")
		return domain.Identity{}, domain.ErrInactiveAccount
	}
	id, err := u.Identity()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("city user %s: %v", u.ID, err)
	}
	return id, nil
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
