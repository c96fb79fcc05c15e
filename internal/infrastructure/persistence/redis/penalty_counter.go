package redis

import (
	"context"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
)

// PenaltyCounter implements session.PenaltyCounter with INCR.
type PenaltyCounter struct {
	cache *Cache
}

var _ session.PenaltyCounter = (*PenaltyCounter)(nil)

// NewPenaltyCounter creates a new PenaltyCounter.
func NewPenaltyCounter(cache *Cache) *PenaltyCounter {
	return &PenaltyCounter{cache: cache}
}

// Increment adds one penalty and returns the new total.
func (c *PenaltyCounter) Increment(ctx context.Context, mentorID string) (int64, error) {
	return c.cache.Incr(ctx, PenaltyKey(mentorID))
}

// Get returns the mentor's penalty total.
func (c *PenaltyCounter) Get(ctx context.Context, mentorID string) (int64, error) {
	return c.cache.GetInt64(ctx, PenaltyKey(mentorID))
}
