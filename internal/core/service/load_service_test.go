package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

type loadFixture struct {
	svc    *LoadService
	loads  *memRepo[domain.Load, *domain.Load]
	events *stubPublisher
}

func newLoadFixture() loadFixture {
	loads := newMemRepo[domain.Load, *domain.Load](func(l *domain.Load) map[string]any {
		return map[string]any{"status": l.Status}
	})
	vehicles := newMemRepo[domain.Vehicle, *domain.Vehicle](nil)
	vehicles.seed(&domain.Vehicle{Base: domain.Base{ID: "v5"}, CompanyID: "5", UnitNumber: "T-1"})
	events := &stubPublisher{}
	svc := NewLoadService(loads, driverRepo(driver("d5", "5"), driver("d7", "7")), vehicles, events, zerolog.Nop())
	return loadFixture{svc: svc, loads: loads, events: events}
}

func TestLoadService_Create_StartsPlanned(t *testing.T) {
	f := newLoadFixture()
	out, err := f.svc.Create(context.Background(), userCo5, &domain.Load{
		Reference: "PO-1", DriverID: "d5", VehicleID: "v5", Status: domain.LoadDelivered,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != domain.LoadPlanned {
		t.Errorf("expected planned, got %s", out.Status)
	}
	if len(out.StatusHistory) != 1 || out.StatusHistory[0].Status != domain.LoadPlanned {
		t.Errorf("expected initial history entry, got %+v", out.StatusHistory)
	}
}

func TestLoadService_Create_ForeignDriverRejected(t *testing.T) {
	f := newLoadFixture()
	_, err := f.svc.Create(context.Background(), userCo5, &domain.Load{Reference: "PO-1", DriverID: "d7"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadService_Update_IgnoresStatus(t *testing.T) {
	f := newLoadFixture()
	l, _ := f.svc.Create(context.Background(), userCo5, &domain.Load{Reference: "PO-1"})
	out, err := f.svc.Update(context.Background(), userCo5, l.ID, func(l *domain.Load) error {
		l.Status = domain.LoadDelivered
		l.Destination = "Dallas, TX"
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != domain.LoadPlanned || out.Destination != "Dallas, TX" {
		t.Fatalf("unexpected load %+v", out)
	}
}

func TestLoadService_Transition_HappyPath(t *testing.T) {
	f := newLoadFixture()
	l, _ := f.svc.Create(context.Background(), userCo5, &domain.Load{Reference: "PO-1"})

	for _, next := range []domain.LoadStatus{domain.LoadDispatched, domain.LoadInTransit, domain.LoadDelivered} {
		out, err := f.svc.Transition(context.Background(), userCo5, l.ID, next)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if out.Status != next {
			t.Fatalf("expected %s, got %s", next, out.Status)
		}
	}
	stored := f.loads.rows[l.ID]
	if len(stored.StatusHistory) != 4 {
		t.Errorf("expected 4 history entries, got %d", len(stored.StatusHistory))
	}
	if stored.StatusHistory[3].ChangedBy != userCo5.UserID {
		t.Errorf("expected changed_by recorded, got %q", stored.StatusHistory[3].ChangedBy)
	}
	if len(f.events.events) != 3 || f.events.events[0].eventType != domain.EventLoadStatus || f.events.events[0].companyID != "5" {
		t.Errorf("unexpected events %+v", f.events.events)
	}
}

func TestLoadService_Transition_Invalid(t *testing.T) {
	f := newLoadFixture()
	l, _ := f.svc.Create(context.Background(), userCo5, &domain.Load{Reference: "PO-1"})

	if _, err := f.svc.Transition(context.Background(), userCo5, l.ID, domain.LoadDelivered); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.Transition(context.Background(), userCo5, l.ID, "teleported"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Transition(context.Background(), userCo5, l.ID, domain.LoadCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.svc.Transition(context.Background(), userCo5, l.ID, domain.LoadDispatched); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected terminal state, got %v", err)
	}
	if len(f.events.events) != 1 {
		t.Errorf("expected only the cancel event, got %d", len(f.events.events))
	}
}

func TestLoadService_Transition_ForeignLoadNotFound(t *testing.T) {
	f := newLoadFixture()
	l, _ := f.svc.Create(context.Background(), userCo5, &domain.Load{Reference: "PO-1"})
	if _, err := f.svc.Transition(context.Background(), userCo7, l.ID, domain.LoadDispatched); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
