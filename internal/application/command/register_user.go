// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Signs up a mentor (with an empty calendar) or a mentee (with an empty study plan).
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data to register a user.
type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
	Role     string

	// Mentor-only fields.
	Bio           string
	KnowledgeArea string
	Technologies  []string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("register_user: name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("register_user: email is required")
	}
	if c.Password == "" {
		return errors.New("register_user: password is required")
	}
	if !user.Role(c.Role).IsValid() {
		return errors.New("register_user: role must be mentor or mentee")
	}
	return nil
}

// RegisterUserResult contains the result of the registration.
type RegisterUserResult struct {
	UserID      string
	Role        user.Role
	CalendarID  string
	StudyPlanID string
	CreatedAt   time.Time
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	users     user.Repository
	calendars calendar.Repository
	plans     studyplan.Repository
	ids       shared.IDGenerator
	clock     timeutil.Clock
	events    shared.EventPublisher
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(
	users user.Repository,
	calendars calendar.Repository,
	plans studyplan.Repository,
	ids shared.IDGenerator,
	clock timeutil.Clock,
	events shared.EventPublisher,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		users:     users,
		calendars: calendars,
		plans:     plans,
		ids:       ids,
		clock:     clock,
		events:    orNop(events),
	}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("user", "Register", shared.ErrInvalidInput, "validation failed", err)
	}

	now := h.clock.Now()
	u, err := user.NewUser(user.NewUserParams{
		ID:            h.ids.NewID(),
		Name:          cmd.Name,
		Email:         cmd.Email,
		Password:      cmd.Password,
		Role:          user.Role(cmd.Role),
		Now:           now,
		Bio:           cmd.Bio,
		KnowledgeArea: cmd.KnowledgeArea,
		Technologies:  cmd.Technologies,
	})
	if err != nil {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	result := &RegisterUserResult{UserID: u.ID, Role: u.Role(), CreatedAt: now}

	switch {
	case u.IsMentor():
		cal, err := calendar.New(h.ids.NewID(), u.ID)
		if err != nil {
			return nil, fmt.Errorf("register_user: %w", err)
		}
		cal.UpdatedAt = now
		if err := h.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("register_user: failed to save user: %w", err)
		}
		if err := h.calendars.Save(ctx, cal); err != nil {
			return nil, fmt.Errorf("register_user: failed to create calendar: %w", err)
		}
		result.CalendarID = cal.ID

	case u.IsMentee():
		plan, err := studyplan.New(h.ids.NewID(), u.ID)
		if err != nil {
			return nil, fmt.Errorf("register_user: %w", err)
		}
		if err := u.AttachStudyPlan(plan.ID, now); err != nil {
			return nil, fmt.Errorf("register_user: %w", err)
		}
		if err := h.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("register_user: failed to save user: %w", err)
		}
		if err := h.plans.Create(ctx, plan); err != nil {
			return nil, fmt.Errorf("register_user: failed to create study plan: %w", err)
		}
		result.StudyPlanID = plan.ID
	}

	_ = h.events.Publish(shared.NewUserRegisteredEvent(u.ID, u.Email.String(), u.Name, string(u.Role()), now))

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LoginCommand checks a user's credentials.
type LoginCommand struct {
	Email    string
	Password string
}

// LoginResult identifies the authenticated user.
type LoginResult struct {
	UserID string
	Name   string
	Role   user.Role
}

// LoginHandler handles the LoginCommand.
type LoginHandler struct {
	users user.Repository
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(users user.Repository) *LoginHandler {
	return &LoginHandler{users: users}
}

// Handle verifies the credentials. Unknown e-mails and wrong passwords
// produce the same error.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" {
		return nil, shared.NewDomainError("user", "Login", shared.ErrInvalidInput, "email and password are required")
	}

	u, err := h.users.GetByEmail(ctx, cmd.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := u.Login(cmd.Email, cmd.Password); err != nil {
		return nil, err
	}

	return &LoginResult{UserID: u.ID, Name: u.Name, Role: u.Role()}, nil
}

func orNop(p shared.EventPublisher) shared.EventPublisher {
	if p == nil {
		return shared.NopPublisher{}
	}
	return p
}
