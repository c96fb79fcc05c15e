// Package calendar содержит доменную модель календаря ментора:
// множество моментов времени, которые ментор готов предложить для сессий.
package calendar

import (
	"sort"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// Calendar - доступные слоты одного ментора.
// Членство определяется точным совпадением момента (time.Time.Equal), без допуска.
type Calendar struct {
	ID       string
	MentorID string

	slots []time.Time

	UpdatedAt time.Time
}

// New создаёт пустой календарь ментора.
func New(id, mentorID string) (*Calendar, error) {
	if id == "" || mentorID == "" {
		return nil, shared.NewDomainError("calendar", "New", shared.ErrInvalidID, "calendar id and mentor id are required")
	}
	return &Calendar{ID: id, MentorID: mentorID}, nil
}

// Restore собирает календарь из сохранённых слотов (для репозиториев).
func Restore(id, mentorID string, slots []time.Time, updatedAt time.Time) *Calendar {
	c := &Calendar{ID: id, MentorID: mentorID, UpdatedAt: updatedAt}
	for _, s := range slots {
		c.AddSlot(s)
	}
	return c
}

// AddSlot добавляет слот. Нулевое время и повтор игнорируются, тогда возвращает false.
func (c *Calendar) AddSlot(t time.Time) bool {
	if t.IsZero() || c.Has(t) {
		return false
	}
	c.slots = append(c.slots, t)
	return true
}

// RemoveSlot удаляет слот, если он есть. Отсутствие слота не ошибка.
func (c *Calendar) RemoveSlot(t time.Time) bool {
	for i, s := range c.slots {
		if s.Equal(t) {
			c.slots = append(c.slots[:i], c.slots[i+1:]...)
			return true
		}
	}
	return false
}

// Has проверяет наличие слота.
func (c *Calendar) Has(t time.Time) bool {
	if c == nil {
		return false
	}
	for _, s := range c.slots {
		if s.Equal(t) {
			return true
		}
	}
	return false
}

// Slots возвращает копию слотов в порядке добавления.
func (c *Calendar) Slots() []time.Time {
	out := make([]time.Time, len(c.slots))
	copy(out, c.slots)
	return out
}

// Upcoming возвращает отсортированные слоты не раньше from.
func (c *Calendar) Upcoming(from time.Time) []time.Time {
	var out []time.Time
	for _, s := range c.slots {
		if !s.Before(from) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Len возвращает число слотов.
func (c *Calendar) Len() int {
	return len(c.slots)
}
