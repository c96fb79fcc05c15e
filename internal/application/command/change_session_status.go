package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE SESSION STATUS COMMAND
// Drives a session through the state machine: the generic status update and
// the start/finish shortcuts. A rejected transition is a normal result.
// ══════════════════════════════════════════════════════════════════════════════

// StatusAction selects the lifecycle entry point.
type StatusAction string

const (
	ActionSetStatus StatusAction = "set_status"
	ActionStart     StatusAction = "start"
	ActionFinish    StatusAction = "finish"
)

// ChangeSessionStatusCommand contains the data to change a session's status.
type ChangeSessionStatusCommand struct {
	SessionID string

	// ActorID must be the session's mentor or mentee.
	ActorID string

	Action StatusAction

	// Status and Reason are used by ActionSetStatus only.
	Status string
	Reason string
}

// Validate validates the command.
func (c ChangeSessionStatusCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("change_session_status: session_id is required")
	}
	if c.ActorID == "" {
		return errors.New("change_session_status: actor_id is required")
	}
	switch c.Action {
	case ActionSetStatus, ActionStart, ActionFinish:
	default:
		return fmt.Errorf("change_session_status: unknown action %q", c.Action)
	}
	return nil
}

// ChangeSessionStatusResult mirrors session.TransitionResult.
type ChangeSessionStatusResult struct {
	SessionID string
	Applied   bool
	From      session.Status
	To        session.Status
	Status    session.Status

	// Rejection is the reason the state machine refused, empty when applied.
	Rejection string
}

// ChangeSessionStatusHandler handles the ChangeSessionStatusCommand.
type ChangeSessionStatusHandler struct {
	sessions  session.Repository
	lifecycle *session.Lifecycle
}

// NewChangeSessionStatusHandler creates a new ChangeSessionStatusHandler.
func NewChangeSessionStatusHandler(sessions session.Repository, lifecycle *session.Lifecycle) *ChangeSessionStatusHandler {
	return &ChangeSessionStatusHandler{sessions: sessions, lifecycle: lifecycle}
}

// Handle executes the change session status command.
func (h *ChangeSessionStatusHandler) Handle(ctx context.Context, cmd ChangeSessionStatusCommand) (*ChangeSessionStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("session", "ChangeStatus", shared.ErrInvalidInput, "validation failed", err)
	}

	s, err := h.sessions.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("change_session_status: %w", err)
	}

	if !s.IsParticipant(cmd.ActorID) {
		return nil, shared.NewDomainError("session", "ChangeStatus", shared.ErrForbidden, "only participants can change the session status")
	}

	pending := &shared.RecordingPublisher{}
	lc := h.lifecycle.WithPublisher(pending)

	var res session.TransitionResult
	switch cmd.Action {
	case ActionStart:
		res = lc.Start(s)
	case ActionFinish:
		res = lc.Finish(s)
	default:
		res = lc.SetStatus(s, cmd.Status, cmd.Reason)
	}

	result := &ChangeSessionStatusResult{
		SessionID: s.ID,
		Applied:   res.Applied,
		From:      res.From,
		To:        res.To,
		Status:    s.Status,
	}

	if !res.Applied {
		var de *shared.DomainError
		if errors.As(res.Err, &de) {
			result.Rejection = de.Message
		} else if res.Err != nil {
			result.Rejection = res.Err.Error()
		}
		_ = pending.Flush(h.lifecycle.Publisher())
		return result, nil
	}

	if err := h.sessions.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("change_session_status: failed to save: %w", err)
	}
	_ = pending.Flush(h.lifecycle.Publisher())

	return result, nil
}
