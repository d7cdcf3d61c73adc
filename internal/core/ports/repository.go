package ports

import (
	"context"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

// Record constrains a type parameter to pointers of tenant-owned rows.
type Record[T any] interface {
	*T
	domain.TenantRecord
}

// Filter is an equality condition on a stored field.
type Filter struct {
	Field string
	Value any
}

// ListQuery carries paging and optional equality filters.
type ListQuery struct {
	Page    int // 1-based
	Limit   int // capped at MaxPageSize by the service
	Filters []Filter
}

// MaxPageSize bounds every list response.
const MaxPageSize = 100

// Page is one page of a listing.
type Page[T any] struct {
	Items      []*T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// TenantRepository persists tenant-owned rows. Every read and write takes a
// Scope; a restricted scope adds the tenant condition to the query itself, so
// rows of other tenants behave exactly like missing rows (domain.ErrNotFound).
type TenantRepository[T any] interface {
	List(ctx context.Context, scope domain.Scope, q ListQuery) ([]*T, int64, error)
	Get(ctx context.Context, scope domain.Scope, id string) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, scope domain.Scope, rec *T) error
	Delete(ctx context.Context, scope domain.Scope, id string) error
	Count(ctx context.Context, scope domain.Scope, filters ...Filter) (int64, error)
}

// APIKeyRepository adds the unscoped lookup used to authenticate a key.
type APIKeyRepository interface {
	FindByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error)
	TouchLastUsed(ctx context.Context, id string) error
}

// WebhookRepository adds the lookup used when fanning out events.
type WebhookRepository interface {
	ListSubscribed(ctx context.Context, companyID, eventType string) ([]*domain.Webhook, error)
}
