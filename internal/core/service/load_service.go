package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// LoadService is the load CRUD surface plus the status state machine. Status
// and history only change through Transition.
type LoadService struct {
	*ResourceService[domain.Load, *domain.Load]
	events ports.EventPublisher
	now    func() time.Time
	log    zerolog.Logger
}

// NewLoadService returns a LoadService. Referenced drivers and vehicles must
// belong to the load's company.
func NewLoadService(
	loads ports.TenantRepository[domain.Load],
	drivers ports.TenantRepository[domain.Driver],
	vehicles ports.TenantRepository[domain.Vehicle],
	events ports.EventPublisher,
	log zerolog.Logger,
) *LoadService {
	s := &LoadService{
		ResourceService: NewResourceService[domain.Load, *domain.Load]("load", domain.TenantCompany, loads, log),
		events:          events,
		now:             func() time.Time { return time.Now().UTC() },
		log:             log,
	}
	s.WithPrepare(func(ctx context.Context, scope domain.Scope, next, prev *domain.Load) error {
		if next.Reference == "" {
			return fmt.Errorf("%w: reference is required", domain.ErrInvalidInput)
		}
		if prev == nil {
			next.Status = domain.LoadPlanned
			next.StatusHistory = []domain.LoadStatusEntry{{Status: domain.LoadPlanned, Timestamp: next.CreatedAt}}
		}
		if err := ensureRef(ctx, drivers, next.CompanyID, next.DriverID, "driver_id"); err != nil {
			return err
		}
		return ensureRef(ctx, vehicles, next.CompanyID, next.VehicleID, "vehicle_id")
	})
	return s
}

// Update applies fn to the load. Changes fn makes to the status or history
// are discarded.
func (s *LoadService) Update(ctx context.Context, id domain.Identity, loadID string, fn func(*domain.Load) error) (*domain.Load, error) {
	return s.ResourceService.Update(ctx, id, loadID, func(l *domain.Load) error {
		status, history := l.Status, l.StatusHistory
		if err := fn(l); err != nil {
			return err
		}
		l.Status, l.StatusHistory = status, history
		return nil
	})
}

// Transition moves the load to next and notifies the company's webhooks.
func (s *LoadService) Transition(ctx context.Context, id domain.Identity, loadID string, next domain.LoadStatus) (*domain.Load, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, next)
	}
	var from domain.LoadStatus
	load, err := s.ResourceService.Update(ctx, id, loadID, func(l *domain.Load) error {
		from = l.Status
		if !l.Status.CanTransitionTo(next) {
			return fmt.Errorf("load %s: %w (from %s to %s)", loadID, domain.ErrInvalidTransition, l.Status, next)
		}
		l.Status = next
		l.StatusHistory = append(l.StatusHistory, domain.LoadStatusEntry{
			Status:    next,
			Timestamp: s.now(),
			ChangedBy: id.UserID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("load_id", loadID).Str("from", string(from)).Str("to", string(next)).Msg("load status changed")
	s.events.Publish(ctx, load.CompanyID, domain.EventLoadStatus, map[string]any{
		"load_id":   load.ID,
		"reference": load.Reference,
		"from":      from,
		"to":        next,
	})
	return load, nil
}

// ensureRef checks that refID, when set, names a row of the given company.
func ensureRef[T any](ctx context.Context, repo ports.TenantRepository[T], companyID, refID, field string) error {
	if refID == "" {
		return nil
	}
	scope := domain.Scope{Kind: domain.TenantCompany, TenantID: companyID}
	if _, err := repo.Get(ctx, scope, refID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s does not exist", domain.ErrInvalidInput, field)
		}
		return fmt.Errorf("check %s: %w", field, err)
	}
	return nil
}
