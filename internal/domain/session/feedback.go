package session

import (
	"strings"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING
// ══════════════════════════════════════════════════════════════════════════════

// Rating - оценка сессии от 0 до 5.
type Rating int

const (
	MinRating Rating = 0
	MaxRating Rating = 5
)

// NewRating создаёт оценку с проверкой диапазона.
func NewRating(value int) (Rating, error) {
	r := Rating(value)
	if r < MinRating || r > MaxRating {
		return 0, shared.NewDomainError("session", "NewRating", shared.ErrValueOutOfRange, "rating must be between 0 and 5")
	}
	return r, nil
}

// RequiresComment - крайние оценки (0, 1, 5) требуют комментария.
func (r Rating) RequiresComment() bool {
	return r == 0 || r == 1 || r == 5
}

// Int возвращает значение оценки.
func (r Rating) Int() int {
	return int(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK
// ══════════════════════════════════════════════════════════════════════════════

// Feedback - отзыв участника о завершённой сессии.
type Feedback struct {
	ID        string
	SessionID string
	AuthorID  string
	Rating    Rating
	Comment   string
	CreatedAt time.Time
}

// FeedbackService прикрепляет отзывы к сессиям.
type FeedbackService struct {
	clock  timeutil.Clock
	ids    shared.IDGenerator
	events shared.EventPublisher
}

// NewFeedbackService создаёт сервис. events может быть nil.
func NewFeedbackService(clock timeutil.Clock, ids shared.IDGenerator, events shared.EventPublisher) *FeedbackService {
	if clock == nil {
		clock = timeutil.System()
	}
	if ids == nil {
		ids = shared.UUIDGenerator{}
	}
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &FeedbackService{clock: clock, ids: ids, events: events}
}

// WithPublisher возвращает копию сервиса, публикующую события в events.
func (fs *FeedbackService) WithPublisher(events shared.EventPublisher) *FeedbackService {
	c := *fs
	if events != nil {
		c.events = events
	}
	return &c
}

// Publisher возвращает получателя событий.
func (fs *FeedbackService) Publisher() shared.EventPublisher {
	return fs.events
}

// AddFeedback проверяет условия по порядку и добавляет отзыв:
// сессия и автор заданы, сессия завершена, автор участник, отзыв первый от автора,
// оценка в диапазоне, крайняя оценка сопровождается комментарием.
func (fs *FeedbackService) AddFeedback(s *Session, author *user.User, rating int, comment string) (*Feedback, error) {
	const op = "AddFeedback"

	if s == nil {
		return nil, shared.ErrSessionNilSession
	}
	if author == nil {
		return nil, shared.NewDomainError("session", op, shared.ErrInvalidInput, "author is required")
	}
	if s.Status != StatusFinished {
		return nil, shared.NewDomainError("session", op, shared.ErrInvalidState, "feedback is accepted only for finished sessions")
	}
	if !s.IsParticipant(author.ID) {
		return nil, shared.NewDomainError("session", op, shared.ErrForbidden, "only session participants can leave feedback")
	}
	if s.HasFeedbackFrom(author.ID) {
		return nil, shared.NewDomainError("session", op, shared.ErrFeedbackRejected, "participant already left feedback for this session")
	}

	r, err := NewRating(rating)
	if err != nil {
		return nil, err
	}

	comment = strings.TrimSpace(comment)
	if r.RequiresComment() && comment == "" {
		return nil, shared.NewDomainError("session", op, shared.ErrFeedbackRejected, "ratings 0, 1 and 5 require a comment")
	}

	now := fs.clock.Now()
	f := &Feedback{
		ID:        fs.ids.NewID(),
		SessionID: s.ID,
		AuthorID:  author.ID,
		Rating:    r,
		Comment:   comment,
		CreatedAt: now,
	}
	s.appendFeedback(f, now)

	_ = fs.events.Publish(shared.NewFeedbackSubmittedEvent(s.ID, f.ID, f.AuthorID, r.Int(), s.AllFeedbackPresent(), now))
	return f, nil
}
