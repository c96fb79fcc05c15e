// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SESSION QUERY
// Возвращает сессию с отзывами и подсказками о доступных действиях.
// ══════════════════════════════════════════════════════════════════════════════

// GetSessionQuery содержит параметры запроса.
type GetSessionQuery struct {
	SessionID string
}

// Validate проверяет корректность параметров запроса.
func (q GetSessionQuery) Validate() error {
	if q.SessionID == "" {
		return shared.NewDomainError("session", "Get", shared.ErrInvalidInput, "session_id is required")
	}
	return nil
}

// FeedbackDTO - отзыв участника.
type FeedbackDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionDTO - сессия для отображения.
type SessionDTO struct {
	ID           string    `json:"id"`
	MentorID     string    `json:"mentor_id"`
	MentorName   string    `json:"mentor_name"`
	MenteeID     string    `json:"mentee_id"`
	MenteeName   string    `json:"mentee_name"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Status       string    `json:"status"`
	StatusLabel  string    `json:"status_label"`
	StatusReason string    `json:"status_reason,omitempty"`

	// StartsIn - время до начала в человекочитаемом виде ("in 3h 20m").
	StartsIn string `json:"starts_in"`

	// CanStart / CanFinish - разрешат ли сейчас Start и Finish.
	CanStart  bool `json:"can_start"`
	CanFinish bool `json:"can_finish"`

	Feedback      []FeedbackDTO `json:"feedback"`
	FullyReviewed bool          `json:"fully_reviewed"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// GetSessionHandler обрабатывает GetSessionQuery.
type GetSessionHandler struct {
	sessions session.Repository
	clock    timeutil.Clock
	windows  session.Windows
}

// NewGetSessionHandler создаёт обработчик.
func NewGetSessionHandler(sessions session.Repository, clock timeutil.Clock, windows session.Windows) *GetSessionHandler {
	return &GetSessionHandler{sessions: sessions, clock: clock, windows: windows}
}

// Handle выполняет запрос.
func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (*SessionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_session: %w", err)
	}

	s, err := h.sessions.GetByID(ctx, q.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get_session: %w", err)
	}

	return ToSessionDTO(s, h.clock.Now(), h.windows), nil
}

// ToSessionDTO собирает DTO для момента now.
func ToSessionDTO(s *session.Session, now time.Time, w session.Windows) *SessionDTO {
	dto := &SessionDTO{
		ID:            s.ID,
		MentorID:      s.Mentor.ID,
		MentorName:    s.Mentor.Name,
		MenteeID:      s.Mentee.ID,
		MenteeName:    s.Mentee.Name,
		ScheduledAt:   s.ScheduledAt,
		Status:        string(s.Status),
		StatusLabel:   s.Status.Label(),
		StatusReason:  s.StatusReason,
		StartsIn:      timeutil.FormatLeadTime(timeutil.LeadTime(now, s.ScheduledAt)),
		CanStart:      session.CheckStart(s.Status, s.ScheduledAt, now, w) == "",
		CanFinish:     session.CheckTransition(s.Status, session.StatusFinished, s.ScheduledAt, now, w) == "",
		Feedback:      make([]FeedbackDTO, 0),
		FullyReviewed: s.AllFeedbackPresent(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for _, f := range s.Feedback() {
		dto.Feedback = append(dto.Feedback, FeedbackDTO{
			ID:        f.ID,
			AuthorID:  f.AuthorID,
			Rating:    f.Rating.Int(),
			Comment:   f.Comment,
			CreatedAt: f.CreatedAt,
		})
	}
	return dto
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST SESSIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListSessionsQuery выбирает сессии ментора или менти.
type ListSessionsQuery struct {
	MentorID string
	MenteeID string
}

// ListSessionsHandler обрабатывает ListSessionsQuery.
type ListSessionsHandler struct {
	sessions session.Repository
	clock    timeutil.Clock
	windows  session.Windows
}

// NewListSessionsHandler создаёт обработчик.
func NewListSessionsHandler(sessions session.Repository, clock timeutil.Clock, windows session.Windows) *ListSessionsHandler {
	return &ListSessionsHandler{sessions: sessions, clock: clock, windows: windows}
}

// Handle выполняет запрос.
func (h *ListSessionsHandler) Handle(ctx context.Context, q ListSessionsQuery) ([]*SessionDTO, error) {
	var (
		list []*session.Session
		err  error
	)
	switch {
	case q.MentorID != "":
		list, err = h.sessions.ListByMentor(ctx, q.MentorID)
	case q.MenteeID != "":
		list, err = h.sessions.ListByMentee(ctx, q.MenteeID)
	default:
		return nil, shared.NewDomainError("session", "List", shared.ErrInvalidInput, "mentor_id or mentee_id is required")
	}
	if err != nil {
		return nil, fmt.Errorf("list_sessions: %w", err)
	}

	now := h.clock.Now()
	out := make([]*SessionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, ToSessionDTO(s, now, h.windows))
	}
	return out, nil
}
