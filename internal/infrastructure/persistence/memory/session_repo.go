package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// SessionRepository stores sessions with their feedback.
type SessionRepository struct {
	mu    sync.RWMutex
	byID  map[string]*session.Session
	order []string
}

// NewSessionRepository creates an empty repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{byID: make(map[string]*session.Session)}
}

// Create implements session.Repository.
func (r *SessionRepository) Create(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; exists {
		return shared.NewDomainError("session", "Create", shared.ErrAlreadyExists, "session already exists")
	}
	r.byID[s.ID] = cloneSession(s)
	r.order = append(r.order, s.ID)
	return nil
}

// GetByID implements session.Repository.
func (r *SessionRepository) GetByID(_ context.Context, id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// Update implements session.Repository.
func (r *SessionRepository) Update(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; !ok {
		return shared.ErrSessionNotFound
	}
	r.byID[s.ID] = cloneSession(s)
	return nil
}

// ListByMentor implements session.Repository.
func (r *SessionRepository) ListByMentor(_ context.Context, mentorID string) ([]*session.Session, error) {
	return r.filter(func(s *session.Session) bool { return s.Mentor.ID == mentorID }), nil
}

// ListByMentee implements session.Repository.
func (r *SessionRepository) ListByMentee(_ context.Context, menteeID string) ([]*session.Session, error) {
	return r.filter(func(s *session.Session) bool { return s.Mentee.ID == menteeID }), nil
}

// FindPendingBefore implements session.Repository.
func (r *SessionRepository) FindPendingBefore(_ context.Context, t time.Time, limit int) ([]*session.Session, error) {
	out := r.filter(func(s *session.Session) bool {
		return s.IsPending() && !s.ScheduledAt.After(t)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepository) filter(keep func(*session.Session) bool) []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*session.Session
	for _, id := range r.order {
		s := r.byID[id]
		if keep(s) {
			out = append(out, cloneSession(s))
		}
	}
	return out
}

func cloneSession(s *session.Session) *session.Session {
	feedback := s.Feedback()
	for i, f := range feedback {
		c := *f
		feedback[i] = &c
	}
	return session.Restore(session.RestoreParams{
		ID:           s.ID,
		Mentor:       s.Mentor,
		Mentee:       s.Mentee,
		ScheduledAt:  s.ScheduledAt,
		Status:       s.Status,
		StatusReason: s.StatusReason,
		Feedback:     feedback,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	})
}
