package memory

import (
	"context"
	"sync"
	"time"
)

// PenaltyCounter counts refusals per mentor.
type PenaltyCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewPenaltyCounter creates an empty counter.
func NewPenaltyCounter() *PenaltyCounter {
	return &PenaltyCounter{counts: make(map[string]int64)}
}

// Increment implements session.PenaltyCounter.
func (c *PenaltyCounter) Increment(_ context.Context, mentorID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[mentorID]++
	return c.counts[mentorID], nil
}

// Get implements session.PenaltyCounter.
func (c *PenaltyCounter) Get(_ context.Context, mentorID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[mentorID], nil
}

// SlotCache is a map-backed calendar.SlotCache with expiry.
type SlotCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]slotEntry
}

type slotEntry struct {
	slots     []time.Time
	expiresAt time.Time
}

// NewSlotCache creates an empty cache. now may be nil.
func NewSlotCache(now func() time.Time) *SlotCache {
	if now == nil {
		now = time.Now
	}
	return &SlotCache{now: now, entries: make(map[string]slotEntry)}
}

// Get implements calendar.SlotCache.
func (c *SlotCache) Get(_ context.Context, mentorID string) ([]time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[mentorID]
	if !ok || !c.now().Before(e.expiresAt) {
		delete(c.entries, mentorID)
		return nil, false, nil
	}
	return append([]time.Time(nil), e.slots...), true, nil
}

// Set implements calendar.SlotCache.
func (c *SlotCache) Set(_ context.Context, mentorID string, slots []time.Time, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[mentorID] = slotEntry{
		slots:     append([]time.Time(nil), slots...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Invalidate implements calendar.SlotCache.
func (c *SlotCache) Invalidate(_ context.Context, mentorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, mentorID)
	return nil
}
