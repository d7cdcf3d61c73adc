package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
	"github.com/haulscale/weighbridge/internal/pkg/metrics"
)

// WeightRefs groups the repositories a weigh ticket may reference.
type WeightRefs struct {
	Drivers  ports.TenantRepository[domain.Driver]
	Vehicles ports.TenantRepository[domain.Vehicle]
	Loads    ports.TenantRepository[domain.Load]
	Scales   ports.TenantRepository[domain.Scale]
}

// WeightService records weigh tickets entered by hand or pushed by scales.
type WeightService struct {
	*ResourceService[domain.Weight, *domain.Weight]
	dedup  ports.TicketDedup
	events ports.EventPublisher
	log    zerolog.Logger
}

// NewWeightService returns a WeightService. legalLimit is the gross limit
// applied to tickets that do not carry their own.
func NewWeightService(
	weights ports.TenantRepository[domain.Weight],
	refs WeightRefs,
	dedup ports.TicketDedup,
	events ports.EventPublisher,
	legalLimit float64,
	log zerolog.Logger,
) *WeightService {
	s := &WeightService{
		ResourceService: NewResourceService[domain.Weight, *domain.Weight]("weight", domain.TenantCompany, weights, log),
		dedup:           dedup,
		events:          events,
		log:             log,
	}
	s.WithPrepare(func(ctx context.Context, _ domain.Scope, next, prev *domain.Weight) error {
		if prev != nil {
			next.TicketNumber = prev.TicketNumber
			next.Source = prev.Source
		}
		if next.TicketNumber == "" {
			next.TicketNumber = newTicketNumber()
		}
		if next.Source == "" {
			next.Source = domain.WeightSourceManual
		}
		if next.WeighedAt.IsZero() {
			next.WeighedAt = next.CreatedAt
		}
		if err := next.Compute(legalLimit); err != nil {
			return err
		}
		checks := []error{
			ensureRef(ctx, refs.Drivers, next.CompanyID, next.DriverID, "driver_id"),
			ensureRef(ctx, refs.Vehicles, next.CompanyID, next.VehicleID, "vehicle_id"),
			ensureRef(ctx, refs.Loads, next.CompanyID, next.LoadID, "load_id"),
			ensureRef(ctx, refs.Scales, next.CompanyID, next.ScaleID, "scale_id"),
		}
		for _, err := range checks {
			if err != nil {
				return err
			}
		}
		return nil
	})
	return s
}

// Create stores a manually entered ticket and notifies subscribers.
func (s *WeightService) Create(ctx context.Context, id domain.Identity, w *domain.Weight) (*domain.Weight, error) {
	w.Source = domain.WeightSourceManual
	out, err := s.ResourceService.Create(ctx, id, w)
	if err != nil {
		return nil, err
	}
	s.recorded(ctx, out)
	return out, nil
}

// Ingest stores a ticket pushed by a scale integration. A ticket number seen
// before for the same company is rejected with domain.ErrDuplicateTicket.
func (s *WeightService) Ingest(ctx context.Context, id domain.Identity, w *domain.Weight) (*domain.Weight, error) {
	if strings.TrimSpace(w.TicketNumber) == "" {
		return nil, fmt.Errorf("%w: ticket_number is required", domain.ErrInvalidInput)
	}
	scope, err := s.Scope(id)
	if err != nil {
		return nil, err
	}
	companyID := scope.TenantID
	if companyID == "" {
		companyID = w.CompanyID
	}

	// Redis failures must not block ingestion; the unique index still
	// rejects the duplicate on write.
	claimed, err := s.dedup.Claim(ctx, companyID, w.TicketNumber)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("ticket", w.TicketNumber).Msg("dedup claim failed, ingesting anyway")
		claimed = true
	case !claimed:
		metrics.IngestDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("ticket", w.TicketNumber).Str("company_id", companyID).Msg("duplicate ticket skipped")
		return nil, fmt.Errorf("ticket %s: %w", w.TicketNumber, domain.ErrDuplicateTicket)
	default:
		metrics.IngestDedupTotal.WithLabelValues("miss").Inc()
	}

	w.Source = domain.WeightSourceScale
	out, err := s.ResourceService.Create(ctx, id, w)
	if err != nil {
		if claimed {
			if relErr := s.dedup.Release(ctx, companyID, w.TicketNumber); relErr != nil {
				s.log.Warn().Err(relErr).Str("ticket", w.TicketNumber).Msg("failed to release dedup key")
			}
		}
		return nil, err
	}
	s.recorded(ctx, out)
	return out, nil
}

func (s *WeightService) recorded(ctx context.Context, w *domain.Weight) {
	metrics.WeightsRecordedTotal.WithLabelValues(w.Source, strconv.FormatBool(w.Overweight)).Inc()
	s.events.Publish(ctx, w.CompanyID, domain.EventWeightRecorded, w)
	if w.Overweight {
		s.log.Info().Str("ticket", w.TicketNumber).Float64("gross_lbs", w.GrossLbs).Float64("limit_lbs", w.LegalLimitLbs).Msg("overweight ticket")
		s.events.Publish(ctx, w.CompanyID, domain.EventWeightOverweight, w)
	}
}

// newTicketNumber returns a ticket number in the format WT-XXXXXXXX.
func newTicketNumber() string {
	id := uuid.New()
	return fmt.Sprintf("WT-%X", id[:4])
}
