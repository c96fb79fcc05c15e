package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestInWindow(t *testing.T) {
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	assert.True(t, InWindow(from, from, to))
	assert.True(t, InWindow(from.Add(59*time.Minute), from, to))
	assert.False(t, InWindow(to, from, to))
	assert.False(t, InWindow(from.Add(-time.Second), from, to))
}

func TestFormatLeadTime(t *testing.T) {
	cases := map[time.Duration]string{
		45 * time.Minute:              "in 45m",
		3*time.Hour + 20*time.Minute:  "in 3h 20m",
		50 * time.Hour:                "in 2d 2h",
		-2 * time.Hour:                "2h 0m ago",
	}
	for d, want := range cases {
		assert.Equal(t, want, FormatLeadTime(d))
	}
}
