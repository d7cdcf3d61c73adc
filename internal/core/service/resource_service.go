package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// PrepareFunc validates and normalises a row before it is written. prev is
// nil on create and holds the stored row on update.
type PrepareFunc[T any] func(ctx context.Context, scope domain.Scope, next, prev *T) error

// ResourceService is the shared tenant-scoped data-access helper every
// resource goes through. It decides the query scope from the identity, stamps
// the owner on writes and refuses writes that name a foreign tenant.
type ResourceService[T any, P ports.Record[T]] struct {
	name    string
	kind    domain.TenantKind
	repo    ports.TenantRepository[T]
	prepare PrepareFunc[T]
	now     func() time.Time
	log     zerolog.Logger
}

// NewResourceService returns a ResourceService for rows of the given tenant family.
func NewResourceService[T any, P ports.Record[T]](
	name string,
	kind domain.TenantKind,
	repo ports.TenantRepository[T],
	log zerolog.Logger,
) *ResourceService[T, P] {
	return &ResourceService[T, P]{
		name: name,
		kind: kind,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		log:  log.With().Str("resource", name).Logger(),
	}
}

// WithPrepare installs a validation hook run before every write.
func (s *ResourceService[T, P]) WithPrepare(fn PrepareFunc[T]) *ResourceService[T, P] {
	s.prepare = fn
	return s
}

// Scope returns the query scope of id on this resource.
func (s *ResourceService[T, P]) Scope(id domain.Identity) (domain.Scope, error) {
	scope, err := domain.ScopeFor(id, s.kind)
	if err != nil {
		return domain.Scope{}, fmt.Errorf("%s: %w", s.name, err)
	}
	return scope, nil
}

func (s *ResourceService[T, P]) List(ctx context.Context, id domain.Identity, q ports.ListQuery) (*ports.Page[T], error) {
	scope, err := s.Scope(id)
	if err != nil {
		return nil, err
	}
	q = normalizeQuery(q)

	items, total, err := s.repo.List(ctx, scope, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	if items == nil {
		items = []*T{}
	}
	return &ports.Page[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages(total, q.Limit),
	}, nil
}

func (s *ResourceService[T, P]) Get(ctx context.Context, id domain.Identity, recID string) (*T, error) {
	scope, err := s.Scope(id)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.Get(ctx, scope, recID)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.name, err)
	}
	return rec, nil
}

func (s *ResourceService[T, P]) Create(ctx context.Context, id domain.Identity, rec *T) (*T, error) {
	scope, err := s.Scope(id)
	if err != nil {
		return nil, err
	}
	p := P(rec)
	p.SetRecordID(uuid.NewString())
	if err := s.checkOwner(scope, p); err != nil {
		return nil, err
	}
	p.Stamp(s.now())
	if s.prepare != nil {
		if err := s.prepare(ctx, scope, rec, nil); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.name, err)
	}
	s.log.Info().Str("id", p.RecordID()).Str("tenant_id", p.Owner()).Str("user_id", id.UserID).Msg("created")
	return rec, nil
}

func (s *ResourceService[T, P]) Update(ctx context.Context, id domain.Identity, recID string, fn func(*T) error) (*T, error) {
	scope, err := s.Scope(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, scope, recID)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.name, err)
	}
	prev := *existing
	next := existing

	if err := fn(next); err != nil {
		return nil, err
	}
	p := P(next)
	p.SetRecordID(recID)
	if p.Owner() != P(&prev).Owner() {
		if err := s.checkOwner(scope, p); err != nil {
			return nil, err
		}
	}
	p.Stamp(s.now())
	if s.prepare != nil {
		if err := s.prepare(ctx, scope, next, &prev); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, scope, next); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.name, err)
	}
	s.log.Info().Str("id", recID).Str("user_id", id.UserID).Msg("updated")
	return next, nil
}

func (s *ResourceService[T, P]) Delete(ctx context.Context, id domain.Identity, recID string) error {
	scope, err := s.Scope(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope, recID); err != nil {
		return fmt.Errorf("delete %s: %w", s.name, err)
	}
	s.log.Info().Str("id", recID).Str("user_id", id.UserID).Msg("deleted")
	return nil
}

// checkOwner stamps the caller's tenant on rec. A restricted caller naming
// another tenant is refused; an unrestricted caller must name one.
func (s *ResourceService[T, P]) checkOwner(scope domain.Scope, rec P) error {
	if scope.Restricted() {
		if owner := rec.Owner(); owner != "" && owner != scope.TenantID {
			return fmt.Errorf("%s: write to foreign tenant: %w", s.name, domain.ErrForbidden)
		}
		rec.SetOwner(scope.TenantID)
		return nil
	}
	if rec.Owner() == "" && s.kind != domain.TenantPlatform {
		return fmt.Errorf("%w: %s_id is required", domain.ErrInvalidInput, s.kind)
	}
	return nil
}

func normalizeQuery(q ports.ListQuery) ports.ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > ports.MaxPageSize {
		q.Limit = ports.MaxPageSize
	}
	return q
}

func totalPages(total int64, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
