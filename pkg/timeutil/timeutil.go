// Package timeutil provides the clock abstraction used by every time-dependent
// rule in Mentoria Hub, plus a few helpers for lead-time arithmetic.
// Domain code never calls time.Now directly: it asks a Clock.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the wall-clock implementation.
func System() Clock {
	return SystemClock{}
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// ManualClock is a Clock whose time only moves when told to.
// Safe for concurrent use.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a ManualClock pinned at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set pins the clock at t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d (backwards when d is negative).
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// LeadTime returns how far target lies ahead of now. Negative when target is in the past.
func LeadTime(now, target time.Time) time.Duration {
	return target.Sub(now)
}

// AtOrAfter reports whether t is equal to or later than ref.
func AtOrAfter(t, ref time.Time) bool {
	return !t.Before(ref)
}

// InWindow reports whether t lies in the half-open interval [from, to).
func InWindow(t, from, to time.Time) bool {
	return AtOrAfter(t, from) && t.Before(to)
}

// FormatSlot renders an instant the way slots are shown to users.
func FormatSlot(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 MST")
}

// FormatLeadTime renders a lead time as "in 2d 3h", "in 45m" or "3h ago".
func FormatLeadTime(d time.Duration) string {
	if d < 0 {
		return formatDuration(-d) + " ago"
	}
	return "in " + formatDuration(d)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
