// Package session содержит сессию менторства, её машину состояний,
// движок одобрения по времени упреждения и отзывы участников.
package session

import (
	"strings"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Participant - снимок участника сессии (ID и отображаемое имя на момент запроса).
type Participant struct {
	ID   string
	Name string
}

// IsZero возвращает true для пустого участника.
func (p Participant) IsZero() bool {
	return p.ID == ""
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session - встреча одного ментора и одного менти.
// Статус меняется только через Lifecycle и ApprovalEngine.
type Session struct {
	ID          string
	Mentor      Participant
	Mentee      Participant
	ScheduledAt time.Time
	Status      Status

	// StatusReason - причина последнего перехода, только для аудита.
	StatusReason string

	feedback []*Feedback

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSessionParams содержит параметры для запроса новой сессии.
type NewSessionParams struct {
	ID          string
	Mentor      Participant
	Mentee      Participant
	ScheduledAt time.Time
	Now         time.Time
}

// NewSession создаёт сессию в статусе Pending.
func NewSession(params NewSessionParams) (*Session, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("session", "NewSession", shared.ErrInvalidID, "session id is required")
	}
	if params.Mentor.IsZero() || params.Mentee.IsZero() {
		return nil, shared.NewDomainError("session", "NewSession", shared.ErrInvalidInput, "mentor and mentee are required")
	}
	if params.Mentor.ID == params.Mentee.ID {
		return nil, shared.ErrSelfMentoring
	}
	if params.ScheduledAt.IsZero() {
		return nil, shared.ErrSessionNoTime
	}

	return &Session{
		ID: params.ID,
		Mentor: Participant{
			ID:   params.Mentor.ID,
			Name: strings.TrimSpace(params.Mentor.Name),
		},
		Mentee: Participant{
			ID:   params.Mentee.ID,
			Name: strings.TrimSpace(params.Mentee.Name),
		},
		ScheduledAt: params.ScheduledAt,
		Status:      StatusPending,
		CreatedAt:   params.Now,
		UpdatedAt:   params.Now,
	}, nil
}

// RestoreParams содержит сохранённое состояние сессии.
type RestoreParams struct {
	ID           string
	Mentor       Participant
	Mentee       Participant
	ScheduledAt  time.Time
	Status       Status
	StatusReason string
	Feedback     []*Feedback
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Restore собирает сессию из хранилища без проверок переходов.
func Restore(p RestoreParams) *Session {
	s := &Session{
		ID:           p.ID,
		Mentor:       p.Mentor,
		Mentee:       p.Mentee,
		ScheduledAt:  p.ScheduledAt,
		Status:       p.Status,
		StatusReason: p.StatusReason,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	s.feedback = append(s.feedback, p.Feedback...)
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsPending проверяет статус Pending (без учёта регистра сохранённого значения).
func (s *Session) IsPending() bool {
	st, ok := ParseStatus(string(s.Status))
	return ok && st == StatusPending
}

// IsParticipant возвращает true, если userID - ментор или менти сессии.
func (s *Session) IsParticipant(userID string) bool {
	return userID != "" && (userID == s.Mentor.ID || userID == s.Mentee.ID)
}

// Feedback возвращает копию отзывов в порядке добавления.
func (s *Session) Feedback() []*Feedback {
	out := make([]*Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out
}

// HasFeedbackFrom проверяет, оставлял ли автор отзыв.
func (s *Session) HasFeedbackFrom(authorID string) bool {
	for _, f := range s.feedback {
		if f.AuthorID == authorID {
			return true
		}
	}
	return false
}

// AllFeedbackPresent возвращает true, когда отзывы оставили обе стороны.
func (s *Session) AllFeedbackPresent() bool {
	authors := make(map[string]struct{}, len(s.feedback))
	for _, f := range s.feedback {
		authors[f.AuthorID] = struct{}{}
	}
	return len(authors) == 2
}

func (s *Session) changeStatus(to Status, reason string, now time.Time) Status {
	from := s.Status
	s.Status = to
	s.StatusReason = reason
	s.UpdatedAt = now
	return from
}

func (s *Session) appendFeedback(f *Feedback, now time.Time) {
	s.feedback = append(s.feedback, f)
	s.UpdatedAt = now
}
