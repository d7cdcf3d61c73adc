package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
	"github.com/haulscale/weighbridge/internal/pkg/metrics"
)

const (
	defaultWorkers  = 4
	channelBuffer   = 256
	maxAttempts     = 3
	baseRetryDelay  = 500 * time.Millisecond
	deliveryTimeout = 15 * time.Second
)

// Sender delivers one event to one webhook.
type Sender interface {
	Send(ctx context.Context, wh *domain.Webhook, ev ports.Event) error
}

// Dispatcher fans events out to webhook subscribers on a fixed set of
// workers. Events are sharded by company id, so each company's events are
// delivered in the order they were published.
type Dispatcher struct {
	workers []chan ports.Event
	hooks   ports.WebhookRepository
	sender  Sender
	now     func() time.Time
	sleep   func(context.Context, time.Duration) bool
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, hooks ports.WebhookRepository, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Event, numWorkers),
		hooks:   hooks,
		sender:  sender,
		now:     func() time.Time { return time.Now().UTC() },
		sleep:   sleepCtx,
		log:     log.With().Str("component", "webhook_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Event, channelBuffer)
	}
	return d
}

// Run processes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	done := make(chan struct{}, len(d.workers))
	for i, ch := range d.workers {
		go func() {
			d.runWorker(ctx, i, ch)
			done <- struct{}{}
		}()
	}
	for range d.workers {
		<-done
	}
	return nil
}

// Publish enqueues an event for companyID's subscribers. It never blocks the
// caller: when the worker's buffer is full the event is dropped and logged.
func (d *Dispatcher) Publish(_ context.Context, companyID, eventType string, data any) {
	ev := ports.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CompanyID:  companyID,
		OccurredAt: d.now(),
		Data:       data,
	}
	idx := d.shardIndex(companyID)
	select {
	case d.workers[idx] <- ev:
		metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.WebhookDeliveriesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("event_id", ev.ID).Str("type", eventType).Str("company_id", companyID).Msg("webhook queue full, event dropped")
	}
}

// shardIndex maps a company id deterministically to a worker index.
func (d *Dispatcher) shardIndex(companyID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(companyID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Event) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			metrics.WebhookQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.dispatch(ctx, id, ev)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, worker int, ev ports.Event) {
	hooks, err := d.hooks.ListSubscribed(ctx, ev.CompanyID, ev.Type)
	if err != nil {
		d.log.Error().Err(err).Str("event_id", ev.ID).Int("worker_id", worker).Msg("load webhook subscriptions failed")
		return
	}
	for _, wh := range hooks {
		d.deliver(ctx, wh, ev)
	}
}

// deliver retries with exponential backoff up to maxAttempts.
func (d *Dispatcher) deliver(ctx context.Context, wh *domain.Webhook, ev ports.Event) {
	delay := baseRetryDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		err := d.sender.Send(sendCtx, wh, ev)
		cancel()

		if err == nil {
			metrics.WebhookDeliveryDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
			metrics.WebhookDeliveriesTotal.WithLabelValues("ok").Inc()
			d.log.Debug().Str("event_id", ev.ID).Str("webhook_id", wh.ID).Int("attempt", attempt).Msg("webhook delivered")
			return
		}
		metrics.WebhookDeliveryDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		d.log.Warn().Err(err).Str("event_id", ev.ID).Str("webhook_id", wh.ID).Int("attempt", attempt).Msg("webhook delivery failed")

		if attempt == maxAttempts || !d.sleep(ctx, delay) {
			break
		}
		delay *= 2
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
