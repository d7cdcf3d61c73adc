package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 72 * time.Hour

// TicketDedup reserves weigh ticket numbers so a scale retrying a push does
// not record the same ticket twice.
// Key format: dedup:ticket:<company_id>:<ticket_number>
type TicketDedup struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewTicketDedup creates a TicketDedup wrapping the given Redis client. A
// zero ttl uses defaultDedupTTL.
func NewTicketDedup(client redis.Cmdable, ttl time.Duration) *TicketDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &TicketDedup{client: client, ttl: ttl}
}

// Claim reserves the ticket. It reports false when the ticket was already claimed.
func (d *TicketDedup) Claim(ctx context.Context, companyID, ticketNumber string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(companyID, ticketNumber), time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}

// Release drops a reservation so the ticket can be pushed again.
func (d *TicketDedup) Release(ctx context.Context, companyID, ticketNumber string) error {
	if err := d.client.Del(ctx, d.key(companyID, ticketNumber)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

func (d *TicketDedup) key(companyID, ticketNumber string) string {
	return fmt.Sprintf("dedup:ticket:%s:%s", companyID, ticketNumber)
}
