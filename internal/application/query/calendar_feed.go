package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR FEED QUERY
// Всё, что ментор хочет видеть в своём календаре: открытые слоты и сессии.
// ══════════════════════════════════════════════════════════════════════════════

// CalendarFeedQuery содержит параметры запроса.
type CalendarFeedQuery struct {
	MentorID string
}

// CalendarFeedDTO - данные для экспорта календаря ментора.
type CalendarFeedDTO struct {
	MentorID    string
	MentorName  string
	Slots       []time.Time // свободные слоты, без занятых активными сессиями
	Sessions    []*SessionDTO
	GeneratedAt time.Time
}

// CalendarFeedHandler обрабатывает CalendarFeedQuery.
type CalendarFeedHandler struct {
	users     user.Repository
	calendars calendar.Repository
	sessions  session.Repository
	clock     timeutil.Clock
	windows   session.Windows
}

// NewCalendarFeedHandler создаёт обработчик.
func NewCalendarFeedHandler(
	users user.Repository,
	calendars calendar.Repository,
	sessions session.Repository,
	clock timeutil.Clock,
	windows session.Windows,
) *CalendarFeedHandler {
	return &CalendarFeedHandler{users: users, calendars: calendars, sessions: sessions, clock: clock, windows: windows}
}

// Handle выполняет запрос.
func (h *CalendarFeedHandler) Handle(ctx context.Context, q CalendarFeedQuery) (*CalendarFeedDTO, error) {
	if q.MentorID == "" {
		return nil, shared.NewDomainError("calendar", "Feed", shared.ErrInvalidInput, "mentor_id is required")
	}

	mentor, err := h.users.GetByID(ctx, q.MentorID)
	if err != nil {
		return nil, fmt.Errorf("calendar_feed: %w", err)
	}
	if !mentor.IsMentor() {
		return nil, fmt.Errorf("calendar_feed: %w", shared.ErrNotAMentor)
	}

	// Календаря может ещё не быть: тогда в ленте только сессии.
	var slots []time.Time
	cal, err := h.calendars.GetByMentor(ctx, mentor.ID)
	switch {
	case err == nil:
		slots = cal.Slots()
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("calendar_feed: %w", err)
	}

	list, err := h.sessions.ListByMentor(ctx, mentor.ID)
	if err != nil {
		return nil, fmt.Errorf("calendar_feed: %w", err)
	}

	now := h.clock.Now()
	dto := &CalendarFeedDTO{
		MentorID:    mentor.ID,
		MentorName:  mentor.Name,
		Sessions:    make([]*SessionDTO, 0, len(list)),
		GeneratedAt: now,
	}

	// Слот, на который уже есть живая сессия, в ленте показывается сессией.
	busy := make(map[int64]struct{}, len(list))
	for _, s := range list {
		dto.Sessions = append(dto.Sessions, ToSessionDTO(s, now, h.windows))
		if s.Status != session.StatusRefused && s.Status != session.StatusCancelled {
			busy[s.ScheduledAt.UnixNano()] = struct{}{}
		}
	}
	for _, slot := range slots {
		if _, taken := busy[slot.UnixNano()]; !taken {
			dto.Slots = append(dto.Slots, slot)
		}
	}

	sort.Slice(dto.Slots, func(i, j int) bool { return dto.Slots[i].Before(dto.Slots[j]) })
	sort.Slice(dto.Sessions, func(i, j int) bool { return dto.Sessions[i].ScheduledAt.Before(dto.Sessions[j].ScheduledAt) })
	return dto, nil
}
