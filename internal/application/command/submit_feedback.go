package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT FEEDBACK COMMAND
// A participant rates a finished session.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitFeedbackCommand contains the feedback data.
type SubmitFeedbackCommand struct {
	SessionID string
	AuthorID  string
	Rating    int
	Comment   string
}

// Validate validates the command.
func (c SubmitFeedbackCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("submit_feedback: session_id is required")
	}
	if c.AuthorID == "" {
		return errors.New("submit_feedback: author_id is required")
	}
	return nil
}

// SubmitFeedbackResult contains the stored feedback.
type SubmitFeedbackResult struct {
	FeedbackID    string
	SessionID     string
	Rating        int
	FullyReviewed bool
}

// SubmitFeedbackHandler handles the SubmitFeedbackCommand.
type SubmitFeedbackHandler struct {
	users    user.Repository
	sessions session.Repository
	feedback *session.FeedbackService
}

// NewSubmitFeedbackHandler creates a new SubmitFeedbackHandler.
func NewSubmitFeedbackHandler(
	users user.Repository,
	sessions session.Repository,
	feedback *session.FeedbackService,
) *SubmitFeedbackHandler {
	return &SubmitFeedbackHandler{users: users, sessions: sessions, feedback: feedback}
}

// Handle executes the submit feedback command.
func (h *SubmitFeedbackHandler) Handle(ctx context.Context, cmd SubmitFeedbackCommand) (*SubmitFeedbackResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("session", "SubmitFeedback", shared.ErrInvalidInput, "validation failed", err)
	}

	s, err := h.sessions.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("submit_feedback: %w", err)
	}

	author, err := h.users.GetByID(ctx, cmd.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("submit_feedback: author: %w", err)
	}

	pending := &shared.RecordingPublisher{}
	f, err := h.feedback.WithPublisher(pending).AddFeedback(s, author, cmd.Rating, cmd.Comment)
	if err != nil {
		return nil, fmt.Errorf("submit_feedback: %w", err)
	}

	if err := h.sessions.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("submit_feedback: failed to save: %w", err)
	}
	_ = pending.Flush(h.feedback.Publisher())

	return &SubmitFeedbackResult{
		FeedbackID:    f.ID,
		SessionID:     s.ID,
		Rating:        f.Rating.Int(),
		FullyReviewed: s.AllFeedbackPresent(),
	}, nil
}
