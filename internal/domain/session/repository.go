package session

import (
	"context"
	"time"
)

// Repository хранит сессии вместе с их отзывами.
type Repository interface {
	// Create сохраняет новую сессию.
	Create(ctx context.Context, s *Session) error

	// GetByID возвращает сессию с отзывами.
	// Возвращает shared.ErrSessionNotFound, если сессии нет.
	GetByID(ctx context.Context, id string) (*Session, error)

	// Update сохраняет статус, причину и новые отзывы.
	Update(ctx context.Context, s *Session) error

	// ListByMentor возвращает сессии ментора в порядке создания.
	ListByMentor(ctx context.Context, mentorID string) ([]*Session, error)

	// ListByMentee возвращает сессии менти в порядке создания.
	ListByMentee(ctx context.Context, menteeID string) ([]*Session, error)

	// FindPendingBefore возвращает Pending-сессии с ScheduledAt не позже t.
	FindPendingBefore(ctx context.Context, t time.Time, limit int) ([]*Session, error)
}

// PenaltyCounter считает отказы ментора (штраф за отклонённые сессии).
type PenaltyCounter interface {
	// Increment увеличивает счётчик и возвращает новое значение.
	Increment(ctx context.Context, mentorID string) (int64, error)

	// Get возвращает текущее значение счётчика.
	Get(ctx context.Context, mentorID string) (int64, error)
}
