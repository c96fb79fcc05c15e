package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CalendarRepository implements calendar.Repository for PostgreSQL.
// Slots live in calendar_slots; Save rewrites them inside one transaction.
type CalendarRepository struct {
	conn *Connection
}

var _ calendar.Repository = (*CalendarRepository)(nil)

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(conn *Connection) *CalendarRepository {
	return &CalendarRepository{conn: conn}
}

// GetByMentor returns the mentor's calendar with all slots.
func (r *CalendarRepository) GetByMentor(ctx context.Context, mentorID string) (*calendar.Calendar, error) {
	if !shared.ValidUUID(mentorID) {
		return nil, shared.ErrCalendarNotFound
	}

	var (
		id        string
		updatedAt time.Time
	)
	err := r.conn.QueryRow(ctx,
		`SELECT id, updated_at FROM calendars WHERE mentor_id = $1`, mentorID,
	).Scan(&id, &updatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrCalendarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	rows, err := r.conn.Query(ctx,
		`SELECT slot_at FROM calendar_slots WHERE calendar_id = $1 ORDER BY slot_at`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	slots, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("failed to scan slots: %w", err)
	}

	return calendar.Restore(id, mentorID, slots, updatedAt), nil
}

// Save upserts the calendar and replaces its slot set.
func (r *CalendarRepository) Save(ctx context.Context, c *calendar.Calendar) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO calendars (id, mentor_id, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		`, c.ID, c.MentorID, c.UpdatedAt)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to save calendar: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM calendar_slots WHERE calendar_id = $1`, c.ID); err != nil {
			return fmt.Errorf("failed to clear slots: %w", err)
		}

		slots := c.Slots()
		if len(slots) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, slot := range slots {
			batch.Queue(`INSERT INTO calendar_slots (calendar_id, slot_at) VALUES ($1, $2)`, c.ID, slot)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert slots: %w", err)
		}
		return nil
	})
}
