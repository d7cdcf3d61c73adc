package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory tenant repository
// ---------------------------------------------------------------------------

// memRepo mirrors the Mongo repository: a restricted scope is part of every
// query, so foreign rows are indistinguishable from missing ones.
type memRepo[T any, P ports.Record[T]] struct {
	mu        sync.Mutex
	rows      map[string]*T
	fields    func(*T) map[string]any // used by filters
	createErr error
	lastScope domain.Scope
}

func newMemRepo[T any, P ports.Record[T]](fields func(*T) map[string]any) *memRepo[T, P] {
	return &memRepo[T, P]{rows: make(map[string]*T), fields: fields}
}

func (r *memRepo[T, P]) seed(rows ...*T) {
	for _, row := range rows {
		clone := *row
		r.rows[P(row).RecordID()] = &clone
	}
}

func (r *memRepo[T, P]) visible(scope domain.Scope, row *T, filters []ports.Filter) bool {
	if scope.Restricted() && P(row).Owner() != scope.TenantID {
		return false
	}
	for _, f := range filters {
		if r.fields == nil || r.fields(row)[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func (r *memRepo[T, P]) List(_ context.Context, scope domain.Scope, q ports.ListQuery) ([]*T, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastScope = scope

	var matched []*T
	for _, row := range r.rows {
		if r.visible(scope, row, q.Filters) {
			clone := *row
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return P(matched[i]).RecordID() < P(matched[j]).RecordID() })

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memRepo[T, P]) Get(_ context.Context, scope domain.Scope, id string) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastScope = scope
	row, ok := r.rows[id]
	if !ok || !r.visible(scope, row, nil) {
		return nil, domain.ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *memRepo[T, P]) Create(_ context.Context, rec *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	id := P(rec).RecordID()
	if _, ok := r.rows[id]; ok {
		return domain.ErrConflict
	}
	clone := *rec
	r.rows[id] = &clone
	return nil
}

func (r *memRepo[T, P]) Update(_ context.Context, scope domain.Scope, rec *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := P(rec).RecordID()
	row, ok := r.rows[id]
	if !ok || !r.visible(scope, row, nil) {
		return domain.ErrNotFound
	}
	clone := *rec
	r.rows[id] = &clone
	return nil
}

func (r *memRepo[T, P]) Delete(_ context.Context, scope domain.Scope, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !r.visible(scope, row, nil) {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo[T, P]) Count(_ context.Context, scope domain.Scope, filters ...ports.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if r.visible(scope, row, filters) {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Other stubs
// ---------------------------------------------------------------------------

type stubVerifier struct {
	subjects map[string]string // token -> subject
	err      error
}

func (v *stubVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	sub, ok := v.subjects[token]
	if !ok {
		return "", errors.New("token rejected")
	}
	return sub, nil
}

type stubDirectory struct {
	companyUsers map[string]*domain.CompanyUser
	cityUsers    map[string]*domain.CityUser
	err          error
	created      []*domain.CompanyUser
	updated      []*domain.CompanyUser
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		companyUsers: make(map[string]*domain.CompanyUser),
		cityUsers:    make(map[string]*domain.CityUser),
	}
}

func (d *stubDirectory) FindCompanyUser(_ context.Context, by ports.Lookup) (*domain.CompanyUser, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.companyUsers {
		if (by.ID != "" && u.ID == by.ID) || (by.ID == "" && u.Email == by.Email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *stubDirectory) FindCityUser(_ context.Context, by ports.Lookup) (*domain.CityUser, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.cityUsers {
		if (by.ID != "" && u.ID == by.ID) || (by.ID == "" && u.Email == by.Email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *stubDirectory) ListCompanyUsers(_ context.Context, companyID string) ([]*domain.CompanyUser, error) {
	var out []*domain.CompanyUser
	for _, u := range d.companyUsers {
		if companyID == "" || (u.CompanyID != nil && *u.CompanyID == companyID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *stubDirectory) CreateCompanyUser(_ context.Context, u *domain.CompanyUser) error {
	if _, ok := d.companyUsers[u.ID]; ok {
		return domain.ErrConflict
	}
	d.companyUsers[u.ID] = u
	d.created = append(d.created, u)
	return nil
}

func (d *stubDirectory) UpdateCompanyUser(_ context.Context, u *domain.CompanyUser) error {
	d.companyUsers[u.ID] = u
	d.updated = append(d.updated, u)
	return nil
}

func (d *stubDirectory) ListCityUsers(_ context.Context, cityID string) ([]*domain.CityUser, error) {
	var out []*domain.CityUser
	for _, u := range d.cityUsers {
		if cityID == "" || u.CityID == cityID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *stubDirectory) Ping(context.Context) error { return d.err }

type stubDedup struct {
	seen     map[string]bool
	claimErr error
	released []string
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func (d *stubDedup) Claim(_ context.Context, companyID, ticket string) (bool, error) {
	if d.claimErr != nil {
		return false, d.claimErr
	}
	key := companyID + ":" + ticket
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *stubDedup) Release(_ context.Context, companyID, ticket string) error {
	key := companyID + ":" + ticket
	delete(d.seen, key)
	d.released = append(d.released, key)
	return nil
}

type published struct {
	companyID string
	eventType string
}

type stubPublisher struct {
	events []published
}

func (p *stubPublisher) Publish(_ context.Context, companyID, eventType string, _ any) {
	p.events = append(p.events, published{companyID: companyID, eventType: eventType})
}

// ---------------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------------

func strPtr(s string) *string { return &s }

var (
	superAdmin   = domain.Identity{UserID: "u-super", Role: domain.RoleSuperAdmin}
	adminCo5     = domain.Identity{UserID: "u-admin5", Role: domain.RoleCompanyAdmin, CompanyID: "5"}
	userCo5      = domain.Identity{UserID: "u-user5", Role: domain.RoleCompanyUser, CompanyID: "5"}
	userCo7      = domain.Identity{UserID: "u-user7", Role: domain.RoleCompanyUser, CompanyID: "7"}
	cityAdmin    = domain.Identity{UserID: "u-cadmin", Role: domain.RoleCityAdmin, CityID: "austin"}
	cityInspect  = domain.Identity{UserID: "u-insp", Role: domain.RoleCityInspector, CityID: "austin"}
	integration5 = domain.Identity{UserID: "apikey:k1", Role: domain.RoleIntegration, CompanyID: "5"}
)

func driver(id, companyID string) *domain.Driver {
	return &domain.Driver{
		Base:          domain.Base{ID: id},
		CompanyID:     companyID,
		FirstName:     "Dana",
		LastName:      "Reyes",
		LicenseNumber: "D" + id,
		Active:        true,
	}
}

func driverRepo(rows ...*domain.Driver) *memRepo[domain.Driver, *domain.Driver] {
	r := newMemRepo[domain.Driver, *domain.Driver](nil)
	r.seed(rows...)
	return r
}
