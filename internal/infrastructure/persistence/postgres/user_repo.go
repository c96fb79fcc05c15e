package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
// The mentor and mentee profiles are flattened into the users row.
type UserRepository struct {
	conn *Connection
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, name, email, password_hash, role, bio, knowledge_area,
	technologies, study_plan_id, created_at, updated_at`

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	bio, area, techs, planID := flattenProfiles(u)
	_, err := r.conn.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email.String(),
		u.PasswordHash,
		string(u.Role()),
		bio,
		area,
		techs,
		planID,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if !shared.ValidUUID(id) {
		return nil, shared.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a user by e-mail (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.conn.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

// Update updates a user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			name = $2, email = $3, password_hash = $4, bio = $5, knowledge_area = $6,
			technologies = $7, study_plan_id = $8, updated_at = $9
		WHERE id = $1
	`

	bio, area, techs, planID := flattenProfiles(u)
	tag, err := r.conn.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email.String(),
		u.PasswordHash,
		bio,
		area,
		techs,
		planID,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func flattenProfiles(u *user.User) (bio, area string, techs []string, planID *string) {
	techs = []string{}
	if u.Mentor != nil {
		bio = u.Mentor.Bio
		area = u.Mentor.KnowledgeArea
		for _, t := range u.Mentor.Technologies {
			techs = append(techs, t.String())
		}
	}
	if u.Mentee != nil && u.Mentee.StudyPlanID != "" {
		id := u.Mentee.StudyPlanID
		planID = &id
	}
	return bio, area, techs, planID
}

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u           user.User
		email, role string
		bio, area   string
		techs       []string
		planID      *string
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&email,
		&u.PasswordHash,
		&role,
		&bio,
		&area,
		&techs,
		&planID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = shared.Email(email)

	switch user.Role(role) {
	case user.RoleMentor:
		profile := &user.MentorProfile{Bio: bio, KnowledgeArea: area}
		for _, name := range techs {
			if t, err := shared.NewTechnology(name); err == nil {
				profile.AddTechnology(t)
			}
		}
		u.Mentor = profile
	case user.RoleMentee:
		profile := &user.MenteeProfile{}
		if planID != nil {
			profile.StudyPlanID = *planID
		}
		u.Mentee = profile
	default:
		return nil, fmt.Errorf("failed to scan user: unknown role %q", role)
	}

	return &u, nil
}
