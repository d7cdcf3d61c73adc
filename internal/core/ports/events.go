package ports

import (
	"context"
	"time"
)

// TicketDedup guards against the same weigh ticket being ingested twice.
type TicketDedup interface {
	// Claim reports true when the ticket was not seen before and is now reserved.
	Claim(ctx context.Context, companyID, ticketNumber string) (bool, error)
	// Release drops a reservation whose write failed.
	Release(ctx context.Context, companyID, ticketNumber string) error
}

// Event is the payload delivered to webhook subscribers.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CompanyID  string    `json:"company_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// EventPublisher fans events out to a company's webhook subscriptions.
type EventPublisher interface {
	Publish(ctx context.Context, companyID, eventType string, data any)
}
