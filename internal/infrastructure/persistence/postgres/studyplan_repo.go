package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY PLAN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudyPlanRepository implements studyplan.Repository for PostgreSQL.
// Goal order is kept in study_goals.position.
type StudyPlanRepository struct {
	conn *Connection
}

var _ studyplan.Repository = (*StudyPlanRepository)(nil)

// NewStudyPlanRepository creates a new StudyPlanRepository.
func NewStudyPlanRepository(conn *Connection) *StudyPlanRepository {
	return &StudyPlanRepository{conn: conn}
}

// Create inserts a new plan with its goals.
func (r *StudyPlanRepository) Create(ctx context.Context, p *studyplan.Plan) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO study_plans (id, mentee_id) VALUES ($1, $2)`, p.ID, p.MenteeID)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.NewDomainError("studyplan", "Create", shared.ErrAlreadyExists, "study plan already exists")
			}
			if IsForeignKeyViolation(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to create study plan: %w", err)
		}
		return writeGoals(ctx, tx, p)
	})
}

// GetByID returns a plan by ID.
func (r *StudyPlanRepository) GetByID(ctx context.Context, id string) (*studyplan.Plan, error) {
	if !shared.ValidUUID(id) {
		return nil, shared.ErrStudyPlanNotFound
	}
	return r.get(ctx, `SELECT id, mentee_id FROM study_plans WHERE id = $1`, id)
}

// GetByMentee returns the mentee's plan.
func (r *StudyPlanRepository) GetByMentee(ctx context.Context, menteeID string) (*studyplan.Plan, error) {
	if !shared.ValidUUID(menteeID) {
		return nil, shared.ErrStudyPlanNotFound
	}
	return r.get(ctx, `SELECT id, mentee_id FROM study_plans WHERE mentee_id = $1`, menteeID)
}

// Save replaces the plan's goals.
func (r *StudyPlanRepository) Save(ctx context.Context, p *studyplan.Plan) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM study_plans WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check study plan: %w", err)
		}
		if !exists {
			return shared.ErrStudyPlanNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM study_goals WHERE plan_id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to clear goals: %w", err)
		}
		return writeGoals(ctx, tx, p)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func writeGoals(ctx context.Context, q Querier, p *studyplan.Plan) error {
	for i, g := range p.Goals() {
		var due *time.Time
		if !g.DueAt.IsZero() {
			d := g.DueAt
			due = &d
		}
		_, err := q.Exec(ctx, `
			INSERT INTO study_goals (id, plan_id, position, description, status, due_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, g.ID, p.ID, i, g.Description, g.Status, due)
		if err != nil {
			return fmt.Errorf("failed to insert goal: %w", err)
		}
	}
	return nil
}

func (r *StudyPlanRepository) get(ctx context.Context, query string, arg string) (*studyplan.Plan, error) {
	var id, menteeID string
	err := r.conn.QueryRow(ctx, query, arg).Scan(&id, &menteeID)
	if IsNoRows(err) {
		return nil, shared.ErrStudyPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study plan: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, description, status, due_at
		FROM study_goals WHERE plan_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	goals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*studyplan.Goal, error) {
		var (
			g   studyplan.Goal
			due *time.Time
		)
		if err := row.Scan(&g.ID, &g.Description, &g.Status, &due); err != nil {
			return nil, err
		}
		if due != nil {
			g.DueAt = *due
		}
		return &g, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan goals: %w", err)
	}

	return studyplan.Restore(id, menteeID, goals), nil
}
