package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// DashboardRepos groups the repositories the dashboards aggregate over.
type DashboardRepos struct {
	Drivers  ports.TenantRepository[domain.Driver]
	Vehicles ports.TenantRepository[domain.Vehicle]
	Loads    ports.TenantRepository[domain.Load]
	Weights  ports.TenantRepository[domain.Weight]
	Permits  ports.TenantRepository[domain.Permit]
}

type DashboardService struct {
	repos     DashboardRepos
	directory ports.Directory
}

func NewDashboardService(repos DashboardRepos, directory ports.Directory) *DashboardService {
	return &DashboardService{repos: repos, directory: directory}
}

// CompanyStats counts the caller's operational data. Super-admins get
// platform-wide totals.
func (s *DashboardService) CompanyStats(ctx context.Context, id domain.Identity) (*ports.CompanyStats, error) {
	scope, err := domain.ScopeFor(id, domain.TenantCompany)
	if err != nil {
		return nil, fmt.Errorf("company stats: %w", err)
	}

	stats := &ports.CompanyStats{LoadsByStatus: make(map[string]int64)}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, fn func() (int64, error)) {
		g.Go(func() error {
			n, err := fn()
			if err != nil {
				return err
			}
			mu.Lock()
			*dst = n
			mu.Unlock()
			return nil
		})
	}
	count(&stats.Drivers, func() (int64, error) { return s.repos.Drivers.Count(ctx, scope) })
	count(&stats.Vehicles, func() (int64, error) { return s.repos.Vehicles.Count(ctx, scope) })
	count(&stats.Weights, func() (int64, error) { return s.repos.Weights.Count(ctx, scope) })
	count(&stats.Overweight, func() (int64, error) {
		return s.repos.Weights.Count(ctx, scope, ports.Filter{Field: "overweight", Value: true})
	})
	for _, st := range []domain.LoadStatus{domain.LoadPlanned, domain.LoadDispatched, domain.LoadInTransit, domain.LoadDelivered, domain.LoadCancelled} {
		g.Go(func() error {
			n, err := s.repos.Loads.Count(ctx, scope, ports.Filter{Field: "status", Value: st})
			if err != nil {
				return err
			}
			mu.Lock()
			stats.LoadsByStatus[string(st)] = n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("company stats: %w", err)
	}
	return stats, nil
}

// CityStats summarises permits and portal accounts of a city. City identities
// always see their own city; super-admins pick one with cityID or get totals.
func (s *DashboardService) CityStats(ctx context.Context, id domain.Identity, cityID string) (*ports.CityStats, error) {
	scope, err := domain.ScopeFor(id, domain.TenantCity)
	if err != nil {
		return nil, fmt.Errorf("city stats: %w", err)
	}
	if !scope.Restricted() && cityID != "" {
		scope.TenantID = cityID
	}

	stats := &ports.CityStats{CityID: scope.TenantID, PermitsByStatus: make(map[string]int64)}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repos.Permits.Count(ctx, scope)
		if err != nil {
			return err
		}
		mu.Lock()
		stats.Permits = n
		mu.Unlock()
		return nil
	})
	for _, st := range []domain.PermitStatus{domain.PermitActive, domain.PermitRevoked, domain.PermitExpired} {
		g.Go(func() error {
			n, err := s.repos.Permits.Count(ctx, scope, ports.Filter{Field: "status", Value: st})
			if err != nil {
				return err
			}
			mu.Lock()
			stats.PermitsByStatus[string(st)] = n
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		users, err := s.directory.ListCityUsers(ctx, scope.TenantID)
		if err != nil {
			return err
		}
		mu.Lock()
		stats.Users = len(users)
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("city stats: %w", err)
	}
	return stats, nil
}
