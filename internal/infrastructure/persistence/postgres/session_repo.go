package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
// Feedback is stored in session_feedback and is append-only.
type SessionRepository struct {
	conn *Connection
}

var _ session.Repository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

const sessionColumns = `id, mentor_id, mentor_name, mentee_id, mentee_name,
	scheduled_at, status, status_reason, created_at, updated_at`

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			s.ID,
			s.Mentor.ID,
			s.Mentor.Name,
			s.Mentee.ID,
			s.Mentee.Name,
			s.ScheduledAt,
			string(s.Status),
			s.StatusReason,
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.NewDomainError("session", "Create", shared.ErrAlreadyExists, "session already exists")
			}
			if IsForeignKeyViolation(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to create session: %w", err)
		}
		return insertFeedback(ctx, tx, s.Feedback())
	})
}

// GetByID returns a session with its feedback.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	if !shared.ValidUUID(id) {
		return nil, shared.ErrSessionNotFound
	}

	list, err := r.list(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, shared.ErrSessionNotFound
	}
	return list[0], nil
}

// Update stores the status and appends feedback not yet persisted.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE sessions SET status = $2, status_reason = $3, updated_at = $4
			WHERE id = $1
		`, s.ID, string(s.Status), s.StatusReason, s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrSessionNotFound
		}
		return insertFeedback(ctx, tx, s.Feedback())
	})
}

// ListByMentor returns the mentor's sessions in creation order.
func (r *SessionRepository) ListByMentor(ctx context.Context, mentorID string) ([]*session.Session, error) {
	if !shared.ValidUUID(mentorID) {
		return []*session.Session{}, nil
	}
	return r.list(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE mentor_id = $1 ORDER BY created_at, id
	`, mentorID)
}

// ListByMentee returns the mentee's sessions in creation order.
func (r *SessionRepository) ListByMentee(ctx context.Context, menteeID string) ([]*session.Session, error) {
	if !shared.ValidUUID(menteeID) {
		return []*session.Session{}, nil
	}
	return r.list(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE mentee_id = $1 ORDER BY created_at, id
	`, menteeID)
}

// FindPendingBefore returns pending sessions scheduled at or before t.
func (r *SessionRepository) FindPendingBefore(ctx context.Context, t time.Time, limit int) ([]*session.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status = 'pending' AND scheduled_at <= $1
		ORDER BY scheduled_at
		LIMIT $2
	`, t, limit)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func insertFeedback(ctx context.Context, q Querier, list []*session.Feedback) error {
	for _, f := range list {
		_, err := q.Exec(ctx, `
			INSERT INTO session_feedback (id, session_id, author_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, f.ID, f.SessionID, f.AuthorID, f.Rating.Int(), f.Comment, f.CreatedAt)
		if err != nil {
			return feedbackInsertError(err)
		}
	}
	return nil
}

// feedbackInsertError maps a second review by the same author, stored by a
// concurrent writer, to the rejection the domain gives for it.
func feedbackInsertError(err error) error {
	if IsUniqueViolation(err) {
		return shared.NewDomainError("session", "SaveFeedback", shared.ErrFeedbackRejected,
			"feedback already submitted by this author")
	}
	return fmt.Errorf("failed to insert feedback: %w", err)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*session.Session, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	params, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if len(params) == 0 {
		return []*session.Session{}, nil
	}

	ids := make([]string, len(params))
	index := make(map[string]int, len(params))
	for i, p := range params {
		ids[i] = p.ID
		index[p.ID] = i
	}

	fbRows, err := r.conn.Query(ctx, `
		SELECT id, session_id, author_id, rating, comment, created_at
		FROM session_feedback
		WHERE session_id = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer fbRows.Close()

	for fbRows.Next() {
		var (
			f      session.Feedback
			rating int
		)
		if err := fbRows.Scan(&f.ID, &f.SessionID, &f.AuthorID, &rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		f.Rating = session.Rating(rating)
		i := index[f.SessionID]
		params[i].Feedback = append(params[i].Feedback, &f)
	}
	if err := fbRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	out := make([]*session.Session, len(params))
	for i, p := range params {
		out[i] = session.Restore(p)
	}
	return out, nil
}

func scanSession(row pgx.CollectableRow) (session.RestoreParams, error) {
	var (
		p      session.RestoreParams
		status string
	)
	err := row.Scan(
		&p.ID,
		&p.Mentor.ID,
		&p.Mentor.Name,
		&p.Mentee.ID,
		&p.Mentee.Name,
		&p.ScheduledAt,
		&status,
		&p.StatusReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Status = session.Status(status)
	return p, err
}
