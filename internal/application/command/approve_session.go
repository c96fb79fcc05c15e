package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPROVE SESSION COMMAND
// The mentor runs the approval engine over one of their pending sessions.
// Engine rejections are returned as a result, not as an error.
// ══════════════════════════════════════════════════════════════════════════════

// ApproveSessionCommand contains the data to evaluate a session.
type ApproveSessionCommand struct {
	MentorID  string
	SessionID string

	// ProposedAt must match one of the mentor's slots exactly.
	ProposedAt *time.Time
}

// Validate validates the command.
func (c ApproveSessionCommand) Validate() error {
	if c.MentorID == "" {
		return errors.New("approve_session: mentor_id is required")
	}
	if c.SessionID == "" {
		return errors.New("approve_session: session_id is required")
	}
	return nil
}

// ApproveSessionResult contains the engine's decision.
type ApproveSessionResult struct {
	SessionID string
	Outcome   session.Outcome
	Status    session.Status
	Applied   bool
	Message   string
	LeadTime  time.Duration
}

// ApproveSessionHandler handles the ApproveSessionCommand.
type ApproveSessionHandler struct {
	calendars calendar.Repository
	sessions  session.Repository
	engine    *session.ApprovalEngine
}

// NewApproveSessionHandler creates a new ApproveSessionHandler.
func NewApproveSessionHandler(
	calendars calendar.Repository,
	sessions session.Repository,
	engine *session.ApprovalEngine,
) *ApproveSessionHandler {
	return &ApproveSessionHandler{
		calendars: calendars,
		sessions:  sessions,
		engine:    engine,
	}
}

// Handle executes the approve session command.
func (h *ApproveSessionHandler) Handle(ctx context.Context, cmd ApproveSessionCommand) (*ApproveSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("session", "Approve", shared.ErrInvalidInput, "validation failed", err)
	}

	s, err := h.sessions.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("approve_session: %w", err)
	}

	cal, err := h.calendars.GetByMentor(ctx, cmd.MentorID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("approve_session: failed to load calendar: %w", err)
	}

	own, err := h.sessions.ListByMentor(ctx, cmd.MentorID)
	if err != nil {
		return nil, fmt.Errorf("approve_session: failed to load mentor sessions: %w", err)
	}

	desk := session.NewMentorDesk(cmd.MentorID, cal)
	for _, tracked := range own {
		desk.Track(tracked)
	}

	// Events leave only after the decision is stored.
	pending := &shared.RecordingPublisher{}
	d := h.engine.WithPublisher(pending).EvaluateAndApprove(desk, cmd.ProposedAt, s)

	if d.Applied() {
		if err := h.sessions.Update(ctx, s); err != nil {
			return nil, fmt.Errorf("approve_session: failed to save: %w", err)
		}
	}
	_ = pending.Flush(h.engine.Publisher())

	return &ApproveSessionResult{
		SessionID: s.ID,
		Outcome:   d.Outcome,
		Status:    s.Status,
		Applied:   d.Applied(),
		Message:   d.Message(),
		LeadTime:  d.LeadTime,
	}, nil
}
