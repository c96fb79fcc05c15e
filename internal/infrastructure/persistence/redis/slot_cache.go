package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/pkg/circuitbreaker"
)

// SlotCache implements calendar.SlotCache on top of Cache.
// Slots are stored as a JSON array of RFC 3339 timestamps.
type SlotCache struct {
	cache *Cache
}

var _ calendar.SlotCache = (*SlotCache)(nil)

// NewSlotCache creates a new SlotCache.
func NewSlotCache(cache *Cache) *SlotCache {
	return &SlotCache{cache: cache}
}

// Get returns cached slots; found is false on a cache miss.
func (c *SlotCache) Get(ctx context.Context, mentorID string) ([]time.Time, bool, error) {
	var slots []time.Time
	err := c.cache.Get(ctx, SlotsKey(mentorID), &slots)
	if errors.Is(err, ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if slots == nil {
		slots = []time.Time{}
	}
	return slots, true, nil
}

// Set stores the slots for ttl. A zero ttl falls back to TTLSlotCache.
func (c *SlotCache) Set(ctx context.Context, mentorID string, slots []time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLSlotCache
	}
	if slots == nil {
		slots = []time.Time{}
	}
	return c.cache.Set(ctx, SlotsKey(mentorID), slots, ttl)
}

// Invalidate drops the cached slots.
func (c *SlotCache) Invalidate(ctx context.Context, mentorID string) error {
	return c.cache.Delete(ctx, SlotsKey(mentorID))
}

// GuardedSlotCache wraps a calendar.SlotCache with a circuit breaker. While the
// circuit is open reads report a miss and writes are skipped, so slot listings
// go straight to the calendar repository.
type GuardedSlotCache struct {
	next    calendar.SlotCache
	breaker *circuitbreaker.CircuitBreaker
}

var _ calendar.SlotCache = (*GuardedSlotCache)(nil)

// NewGuardedSlotCache creates a new GuardedSlotCache.
func NewGuardedSlotCache(next calendar.SlotCache, breaker *circuitbreaker.CircuitBreaker) *GuardedSlotCache {
	return &GuardedSlotCache{next: next, breaker: breaker}
}

// Get implements calendar.SlotCache.
func (c *GuardedSlotCache) Get(ctx context.Context, mentorID string) ([]time.Time, bool, error) {
	var (
		slots []time.Time
		found bool
	)
	err := c.breaker.ExecuteWithFallback(ctx, func(ctx context.Context) error {
		var err error
		slots, found, err = c.next.Get(ctx, mentorID)
		return err
	}, skipOpen)
	if err != nil {
		return nil, false, err
	}
	return slots, found, nil
}

// Set implements calendar.SlotCache.
func (c *GuardedSlotCache) Set(ctx context.Context, mentorID string, slots []time.Time, ttl time.Duration) error {
	return c.breaker.ExecuteWithFallback(ctx, func(ctx context.Context) error {
		return c.next.Set(ctx, mentorID, slots, ttl)
	}, skipOpen)
}

// Invalidate implements calendar.SlotCache.
func (c *GuardedSlotCache) Invalidate(ctx context.Context, mentorID string) error {
	return c.breaker.ExecuteWithFallback(ctx, func(ctx context.Context) error {
		return c.next.Invalidate(ctx, mentorID)
	}, skipOpen)
}

func skipOpen(error) error { return nil }
