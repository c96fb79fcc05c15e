package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения пользователей.
type Repository interface {
	// Create сохраняет нового пользователя.
	// Возвращает shared.ErrUserAlreadyExists, если email занят.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по ID.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail возвращает пользователя по email (без учёта регистра).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update сохраняет изменения пользователя.
	Update(ctx context.Context, u *User) error
}
