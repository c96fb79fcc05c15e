package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SESSION COMMAND
// A mentee asks a mentor for a session at a given instant. The session is
// created Pending; slot availability is checked later by the approval engine.
// ══════════════════════════════════════════════════════════════════════════════

// RequestSessionCommand contains the data to request a session.
type RequestSessionCommand struct {
	MentorID    string
	MenteeID    string
	ScheduledAt time.Time
}

// Validate validates the command.
func (c RequestSessionCommand) Validate() error {
	if c.MentorID == "" || c.MenteeID == "" {
		return errors.New("request_session: mentor_id and mentee_id are required")
	}
	if c.ScheduledAt.IsZero() {
		return errors.New("request_session: scheduled_at is required")
	}
	return nil
}

// RequestSessionResult contains the created session.
type RequestSessionResult struct {
	SessionID   string
	Status      session.Status
	ScheduledAt time.Time
}

// RequestSessionHandler handles the RequestSessionCommand.
type RequestSessionHandler struct {
	users    user.Repository
	sessions session.Repository
	ids      shared.IDGenerator
	clock    timeutil.Clock
	events   shared.EventPublisher
}

// NewRequestSessionHandler creates a new RequestSessionHandler.
func NewRequestSessionHandler(
	users user.Repository,
	sessions session.Repository,
	ids shared.IDGenerator,
	clock timeutil.Clock,
	events shared.EventPublisher,
) *RequestSessionHandler {
	return &RequestSessionHandler{
		users:    users,
		sessions: sessions,
		ids:      ids,
		clock:    clock,
		events:   orNop(events),
	}
}

// Handle executes the request session command.
func (h *RequestSessionHandler) Handle(ctx context.Context, cmd RequestSessionCommand) (*RequestSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("session", "Request", shared.ErrInvalidInput, "validation failed", err)
	}

	mentor, err := h.users.GetByID(ctx, cmd.MentorID)
	if err != nil {
		return nil, fmt.Errorf("request_session: mentor not found: %w", err)
	}
	if !mentor.IsMentor() {
		return nil, fmt.Errorf("request_session: %w", shared.ErrNotAMentor)
	}

	mentee, err := h.users.GetByID(ctx, cmd.MenteeID)
	if err != nil {
		return nil, fmt.Errorf("request_session: mentee not found: %w", err)
	}
	if !mentee.IsMentee() {
		return nil, fmt.Errorf("request_session: %w", shared.ErrNotAMentee)
	}

	now := h.clock.Now()
	s, err := session.NewSession(session.NewSessionParams{
		ID:          h.ids.NewID(),
		Mentor:      session.Participant{ID: mentor.ID, Name: mentor.Name},
		Mentee:      session.Participant{ID: mentee.ID, Name: mentee.Name},
		ScheduledAt: cmd.ScheduledAt.UTC(),
		Now:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("request_session: %w", err)
	}

	if err := h.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("request_session: failed to save: %w", err)
	}

	_ = h.events.Publish(shared.NewSessionRequestedEvent(s.ID, mentor.ID, mentee.ID, s.ScheduledAt, now))

	return &RequestSessionResult{SessionID: s.ID, Status: s.Status, ScheduledAt: s.ScheduledAt}, nil
}
