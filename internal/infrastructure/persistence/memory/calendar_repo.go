package memory

import (
	"context"
	"sync"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// CalendarRepository stores one calendar per mentor.
type CalendarRepository struct {
	mu       sync.RWMutex
	byMentor map[string]*calendar.Calendar
}

// NewCalendarRepository creates an empty repository.
func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{byMentor: make(map[string]*calendar.Calendar)}
}

// GetByMentor implements calendar.Repository.
func (r *CalendarRepository) GetByMentor(_ context.Context, mentorID string) (*calendar.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byMentor[mentorID]
	if !ok {
		return nil, shared.ErrCalendarNotFound
	}
	return cloneCalendar(c), nil
}

// Save implements calendar.Repository.
func (r *CalendarRepository) Save(_ context.Context, c *calendar.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byMentor[c.MentorID] = cloneCalendar(c)
	return nil
}

func cloneCalendar(c *calendar.Calendar) *calendar.Calendar {
	return calendar.Restore(c.ID, c.MentorID, c.Slots(), c.UpdatedAt)
}
