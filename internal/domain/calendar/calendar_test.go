package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

var base = time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	_, err := New("", "m-1")
	assert.True(t, shared.IsValidation(err))

	c, err := New("c-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCalendar_AddSlot(t *testing.T) {
	c, _ := New("c-1", "m-1")

	assert.True(t, c.AddSlot(base))
	assert.False(t, c.AddSlot(base), "duplicate instant is ignored")
	assert.False(t, c.AddSlot(base.In(time.FixedZone("BRT", -3*3600))), "same instant in another zone")
	assert.False(t, c.AddSlot(time.Time{}), "zero instant is ignored")
	assert.True(t, c.AddSlot(base.Add(time.Hour)))

	assert.Equal(t, []time.Time{base, base.Add(time.Hour)}, c.Slots())
}

func TestCalendar_RemoveSlot(t *testing.T) {
	c, _ := New("c-1", "m-1")
	c.AddSlot(base)

	assert.False(t, c.RemoveSlot(base.Add(time.Minute)))
	assert.True(t, c.RemoveSlot(base))
	assert.False(t, c.Has(base))
	assert.False(t, c.RemoveSlot(base))
}

func TestCalendar_HasExactMatchOnly(t *testing.T) {
	c, _ := New("c-1", "m-1")
	c.AddSlot(base)

	assert.True(t, c.Has(base))
	assert.False(t, c.Has(base.Add(time.Nanosecond)))

	var missing *Calendar
	assert.False(t, missing.Has(base))
}

func TestCalendar_SlotsIsSnapshot(t *testing.T) {
	c, _ := New("c-1", "m-1")
	c.AddSlot(base)

	snap := c.Slots()
	snap[0] = base.Add(24 * time.Hour)

	assert.True(t, c.Has(base))
	assert.Equal(t, 1, c.Len())
}

func TestCalendar_Upcoming(t *testing.T) {
	c := Restore("c-1", "m-1", []time.Time{base.Add(2 * time.Hour), base.Add(-time.Hour), base}, base)
	assert.Equal(t, []time.Time{base, base.Add(2 * time.Hour)}, c.Upcoming(base))
}
