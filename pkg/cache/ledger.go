package cache

import (
	"context"
	"time"
)

// DefaultEventTTL matches the window in which Stripe retries a delivery.
const DefaultEventTTL = 72 * time.Hour

const eventKeyPrefix = "stripe:event:"

// EventLedger records the IDs of webhook events that were fully processed.
type EventLedger struct {
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewEventLedger creates an EventLedger. Entries expire after ttl.
func NewEventLedger(c Cache, ttl time.Duration) *EventLedger {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &EventLedger{cache: c, ttl: ttl, now: time.Now}
}

// Seen reports whether eventID was marked processed and has not expired.
func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	val, err := l.cache.Get(ctx, eventKeyPrefix+eventID)
	if err != nil {
		return false, err
	}
	return val != "", nil
}

// MarkProcessed stores eventID with the processing time as its value.
func (l *EventLedger) MarkProcessed(ctx context.Context, eventID string) error {
	return l.cache.Set(ctx, eventKeyPrefix+eventID, l.now().UTC().Format(time.RFC3339), l.ttl)
}
