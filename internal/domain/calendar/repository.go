package calendar

import (
	"context"
	"time"
)

// Repository хранит календари менторов.
type Repository interface {
	// GetByMentor возвращает календарь ментора.
	// Возвращает shared.ErrCalendarNotFound, если у ментора нет календаря.
	GetByMentor(ctx context.Context, mentorID string) (*Calendar, error)

	// Save создаёт или полностью перезаписывает календарь.
	Save(ctx context.Context, c *Calendar) error
}

// SlotCache кеширует слоты ментора для чтения.
type SlotCache interface {
	// Get возвращает слоты ментора. found=false, если записи в кеше нет.
	Get(ctx context.Context, mentorID string) (slots []time.Time, found bool, err error)

	// Set сохраняет слоты ментора на ttl.
	Set(ctx context.Context, mentorID string, slots []time.Time, ttl time.Duration) error

	// Invalidate удаляет запись ментора.
	Invalidate(ctx context.Context, mentorID string) error
}
