package memory

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
)

var (
	ctx = context.Background()
	t0  = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
)

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository()
	u := &user.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Mentor: &user.MentorProfile{Technologies: []shared.Technology{"Go"}}}

	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, &user.User{ID: "u-2", Email: "ana@example.com"}), shared.ErrUserAlreadyExists)

	got, err := repo.GetByEmail(ctx, " ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	got.Mentor.Technologies[0] = "Rust"
	again, _ := repo.GetByID(ctx, "u-1")
	assert.Equal(t, shared.Technology("Go"), again.Mentor.Technologies[0], "store is isolated from callers")

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))

	again.Email = "ana.souza@example.com"
	require.NoError(t, repo.Update(ctx, again))
	_, err = repo.GetByEmail(ctx, "ana@example.com")
	assert.True(t, shared.IsNotFound(err))
	_, err = repo.GetByEmail(ctx, "ana.souza@example.com")
	assert.NoError(t, err)
}

func TestCalendarRepository(t *testing.T) {
	repo := NewCalendarRepository()
	_, err := repo.GetByMentor(ctx, "m-1")
	assert.True(t, shared.IsNotFound(err))

	c, _ := calendar.New("c-1", "m-1")
	c.AddSlot(t0)
	require.NoError(t, repo.Save(ctx, c))

	c.AddSlot(t0.Add(time.Hour))
	got, err := repo.GetByMentor(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{t0}, got.Slots())
}

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository()
	mk := func(id, mentor string, at time.Time) *session.Session {
		s, err := session.NewSession(session.NewSessionParams{
			ID: id, Mentor: session.Participant{ID: mentor}, Mentee: session.Participant{ID: "e-1"}, ScheduledAt: at, Now: t0,
		})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, s))
		return s
	}

	mk("s-1", "m-1", t0.Add(2*time.Hour))
	s2 := mk("s-2", "m-1", t0.Add(-time.Hour))
	mk("s-3", "m-2", t0.Add(-2*time.Hour))

	assert.True(t, shared.IsAlreadyExists(repo.Create(ctx, s2)))

	own, _ := repo.ListByMentor(ctx, "m-1")
	require.Len(t, own, 2)
	assert.Equal(t, "s-1", own[0].ID)

	mine, _ := repo.ListByMentee(ctx, "e-1")
	assert.Len(t, mine, 3)

	due, _ := repo.FindPendingBefore(ctx, t0, 10)
	require.Len(t, due, 2)
	assert.Equal(t, "s-3", due[0].ID, "oldest first")

	due, _ = repo.FindPendingBefore(ctx, t0, 1)
	assert.Len(t, due, 1)

	s2.Status = session.StatusCancelled
	require.NoError(t, repo.Update(ctx, s2))
	due, _ = repo.FindPendingBefore(ctx, t0, 0)
	assert.Len(t, due, 1)

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestStudyPlanRepository(t *testing.T) {
	repo := NewStudyPlanRepository()
	p, _ := studyplan.New("p-1", "e-1")
	require.NoError(t, repo.Create(ctx, p))
	assert.True(t, shared.IsAlreadyExists(repo.Create(ctx, p)))

	g, _ := studyplan.NewGoal("g-1", "read the Go book", t0)
	p.AddGoal(g)
	require.NoError(t, repo.Save(ctx, p))

	g.UpdateStatus("Completed")
	got, err := repo.GetByMentee(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, "Open", got.Goal("g-1").Status, "goals are copied")
	assert.Equal(t, 0.0, got.Progress())
}

func TestPenaltyCounter(t *testing.T) {
	c := NewPenaltyCounter()
	n, _ := c.Increment(ctx, "m-1")
	assert.Equal(t, int64(1), n)
	n, _ = c.Increment(ctx, "m-1")
	assert.Equal(t, int64(2), n)
	n, _ = c.Get(ctx, "m-2")
	assert.Zero(t, n)
}

func TestSlotCache_Expiry(t *testing.T) {
	now := t0
	c := NewSlotCache(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "m-1", []time.Time{t0}, time.Minute))
	slots, found, _ := c.Get(ctx, "m-1")
	assert.True(t, found)
	assert.Equal(t, []time.Time{t0}, slots)

	now = now.Add(time.Minute)
	_, found, _ = c.Get(ctx, "m-1")
	assert.False(t, found)

	_ = c.Set(ctx, "m-1", nil, time.Hour)
	_ = c.Invalidate(ctx, "m-1")
	_, found, _ = c.Get(ctx, "m-1")
	assert.False(t, found)
}
