package domain

import "time"

// Scope restricts a data-store query to one tenant. A Scope with an empty
// TenantID is unrestricted and is only ever produced for super-admins.
type Scope struct {
	Kind     TenantKind
	TenantID string
}

func (s Scope) Restricted() bool { return s.TenantID != "" }

// ScopeFor derives the query scope an identity gets on rows of the given
// tenant family. Identities of the other family are refused outright.
func ScopeFor(id Identity, kind TenantKind) (Scope, error) {
	if id.IsSuperAdmin() {
		return Scope{Kind: kind}, nil
	}
	if id.TenantKind() != kind || id.TenantID() == "" {
		return Scope{}, ErrForbidden
	}
	return Scope{Kind: kind, TenantID: id.TenantID()}, nil
}

// TenantRecord is implemented by pointers to rows owned by a tenant.
type TenantRecord interface {
	RecordID() string
	SetRecordID(id string)
	Owner() string
	SetOwner(tenantID string)
	Stamp(now time.Time)
}

// Base holds the columns every row carries.
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Base) RecordID() string { return b.ID }

func (b *Base) SetRecordID(id string) { b.ID = id }

// Stamp sets CreatedAt on first write and UpdatedAt on every write.
func (b *Base) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
