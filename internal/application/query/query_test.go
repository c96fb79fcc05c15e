package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

var (
	ctx = context.Background()
	t0  = time.Date(2024, 8, 5, 15, 0, 0, 0, time.UTC)
)

func TestGetSession(t *testing.T) {
	clock := timeutil.NewManualClock(t0)
	repo := memory.NewSessionRepository()
	s, err := session.NewSession(session.NewSessionParams{
		ID:          "s-1",
		Mentor:      session.Participant{ID: "m-1", Name: "Marta"},
		Mentee:      session.Participant{ID: "e-1", Name: "Ana"},
		ScheduledAt: t0.Add(10 * time.Minute),
		Now:         t0,
	})
	require.NoError(t, err)
	s.Status = session.StatusApproved
	require.NoError(t, repo.Create(ctx, s))

	h := NewGetSessionHandler(repo, clock, session.DefaultWindows())
	dto, err := h.Handle(ctx, GetSessionQuery{SessionID: "s-1"})
	require.NoError(t, err)

	assert.Equal(t, "approved", dto.Status)
	assert.Equal(t, "Approved (review availability)", dto.StatusLabel)
	assert.Equal(t, "in 10m", dto.StartsIn)
	assert.True(t, dto.CanStart)
	assert.False(t, dto.CanFinish)
	assert.NotNil(t, dto.Feedback)

	_, err = h.Handle(ctx, GetSessionQuery{SessionID: "missing"})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, GetSessionQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestListSessions(t *testing.T) {
	repo := memory.NewSessionRepository()
	for _, id := range []string{"s-1", "s-2"} {
		s, _ := session.NewSession(session.NewSessionParams{
			ID: id, Mentor: session.Participant{ID: "m-1"}, Mentee: session.Participant{ID: "e-" + id}, ScheduledAt: t0, Now: t0,
		})
		require.NoError(t, repo.Create(ctx, s))
	}

	h := NewListSessionsHandler(repo, timeutil.NewManualClock(t0), session.DefaultWindows())
	list, err := h.Handle(ctx, ListSessionsQuery{MentorID: "m-1"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = h.Handle(ctx, ListSessionsQuery{MenteeID: "e-s-2"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.Handle(ctx, ListSessionsQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestListSlots_CachesAndFilters(t *testing.T) {
	clock := timeutil.NewManualClock(t0)
	calendars := memory.NewCalendarRepository()
	cache := memory.NewSlotCache(clock.Now)

	cal, _ := calendar.New("c-1", "m-1")
	cal.AddSlot(t0.Add(2 * time.Hour))
	cal.AddSlot(t0.Add(-time.Hour))
	cal.AddSlot(t0.Add(time.Hour))
	require.NoError(t, calendars.Save(ctx, cal))

	h := NewListSlotsHandler(calendars, cache, time.Minute, clock)

	dto, err := h.Handle(ctx, ListSlotsQuery{MentorID: "m-1"})
	require.NoError(t, err)
	assert.False(t, dto.FromCache)
	assert.Equal(t, []time.Time{t0.Add(-time.Hour), t0.Add(time.Hour), t0.Add(2 * time.Hour)}, dto.Slots)

	dto, err = h.Handle(ctx, ListSlotsQuery{MentorID: "m-1", UpcomingOnly: true})
	require.NoError(t, err)
	assert.True(t, dto.FromCache)
	assert.Equal(t, []time.Time{t0.Add(time.Hour), t0.Add(2 * time.Hour)}, dto.Slots)

	_, err = h.Handle(ctx, ListSlotsQuery{MentorID: "nobody"})
	assert.True(t, shared.IsNotFound(err))
}

func TestListSlots_WithoutCache(t *testing.T) {
	calendars := memory.NewCalendarRepository()
	cal, _ := calendar.New("c-1", "m-1")
	require.NoError(t, calendars.Save(ctx, cal))

	dto, err := NewListSlotsHandler(calendars, nil, 0, timeutil.System()).Handle(ctx, ListSlotsQuery{MentorID: "m-1"})
	require.NoError(t, err)
	assert.NotNil(t, dto.Slots)
	assert.Empty(t, dto.Slots)
}

func TestGetStudyProgress(t *testing.T) {
	clock := timeutil.NewManualClock(t0)
	plans := memory.NewStudyPlanRepository()
	p, _ := studyplan.New("p-1", "e-1")
	g1, _ := studyplan.NewGoal("g-1", "Go tour", t0.Add(-time.Hour))
	g2, _ := studyplan.NewGoal("g-2", "Concurrency", t0.Add(-time.Hour))
	g2.UpdateStatus("completed")
	p.AddGoal(g1)
	p.AddGoal(g2)
	require.NoError(t, plans.Create(ctx, p))

	dto, err := NewGetStudyProgressHandler(plans, clock).Handle(ctx, GetStudyProgressQuery{MenteeID: "e-1"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, dto.Progress)
	assert.Equal(t, 1, dto.Completed)
	assert.Equal(t, 2, dto.Total)
	assert.True(t, dto.Goals[0].Overdue)
	assert.False(t, dto.Goals[1].Overdue)
}

func TestCalendarFeed(t *testing.T) {
	clock := timeutil.NewManualClock(t0)
	users := memory.NewUserRepository()
	calendars := memory.NewCalendarRepository()
	sessions := memory.NewSessionRepository()

	for _, p := range []user.NewUserParams{
		{ID: "m-1", Name: "Marta", Email: "marta@example.com", Password: "secret123", Role: user.RoleMentor, Now: t0},
		{ID: "m-2", Name: "Olek", Email: "olek@example.com", Password: "secret123", Role: user.RoleMentor, Now: t0},
		{ID: "e-1", Name: "Ana", Email: "ana@example.com", Password: "secret123", Role: user.RoleMentee, Now: t0},
	} {
		u, err := user.NewUser(p)
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, u))
	}

	booked, refused, free := t0.Add(2*time.Hour), t0.Add(3*time.Hour), t0.Add(4*time.Hour)
	cal, _ := calendar.New("c-1", "m-1")
	for _, at := range []time.Time{free, booked, refused} {
		cal.AddSlot(at)
	}
	require.NoError(t, calendars.Save(ctx, cal))

	for id, at := range map[string]time.Time{"s-1": booked, "s-2": refused} {
		s, err := session.NewSession(session.NewSessionParams{
			ID: id, Mentor: session.Participant{ID: "m-1", Name: "Marta"}, Mentee: session.Participant{ID: "e-1", Name: "Ana"},
			ScheduledAt: at, Now: t0,
		})
		require.NoError(t, err)
		if id == "s-2" {
			s.Status = session.StatusRefused
		}
		require.NoError(t, sessions.Create(ctx, s))
	}

	h := NewCalendarFeedHandler(users, calendars, sessions, clock, session.DefaultWindows())

	dto, err := h.Handle(ctx, CalendarFeedQuery{MentorID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, "Marta", dto.MentorName)
	assert.Equal(t, []time.Time{refused, free}, dto.Slots, "refused session frees its slot")
	require.Len(t, dto.Sessions, 2)
	assert.Equal(t, "s-1", dto.Sessions[0].ID)
	assert.Equal(t, t0, dto.GeneratedAt)

	dto, err = h.Handle(ctx, CalendarFeedQuery{MentorID: "m-2"})
	require.NoError(t, err)
	assert.Empty(t, dto.Slots)
	assert.Empty(t, dto.Sessions)

	_, err = h.Handle(ctx, CalendarFeedQuery{MentorID: "e-1"})
	assert.True(t, shared.IsForbidden(err))

	_, err = h.Handle(ctx, CalendarFeedQuery{MentorID: "ghost"})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, CalendarFeedQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestCalendarFeed_SlotMatchIsExact(t *testing.T) {
	users := memory.NewUserRepository()
	calendars := memory.NewCalendarRepository()
	sessions := memory.NewSessionRepository()

	mentor, err := user.NewUser(user.NewUserParams{ID: "m-1", Name: "Marta", Email: "marta@example.com", Password: "secret123", Role: user.RoleMentor, Now: t0})
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, mentor))

	slot := t0.Add(2 * time.Hour)
	cal, _ := calendar.New("c-1", "m-1")
	cal.AddSlot(slot)
	require.NoError(t, calendars.Save(ctx, cal))

	s, err := session.NewSession(session.NewSessionParams{
		ID: "s-1", Mentor: session.Participant{ID: "m-1"}, Mentee: session.Participant{ID: "e-1"},
		ScheduledAt: slot.Add(500 * time.Millisecond), Now: t0,
	})
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, s))

	dto, err := NewCalendarFeedHandler(users, calendars, sessions, timeutil.NewManualClock(t0), session.DefaultWindows()).
		Handle(ctx, CalendarFeedQuery{MentorID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{slot}, dto.Slots, "a session half a second later does not hold the slot")
}
