package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// Запускается только при заданном TEST_DATABASE_URL.
// ═══════════════════════════════════════════════════════════

func setupConnection(t *testing.T) *Connection {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := NewConnectionFromURL(ctx, url, DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	m, err := NewMigrator(conn, nil)
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Up(ctx))

	return conn
}

func newTestUser(t *testing.T, repo *UserRepository, role user.Role) *user.User {
	t.Helper()
	id := uuid.NewString()
	u, err := user.NewUser(user.NewUserParams{
		ID:           id,
		Name:         "User " + id[:8],
		Email:        id[:8] + "@example.com",
		Password:     "secret1",
		Role:         role,
		Now:          time.Now().UTC().Truncate(time.Microsecond),
		Technologies: []string{"Go", "PostgreSQL"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_RoundTrip(t *testing.T) {
	conn := setupConnection(t)
	repo := NewUserRepository(conn)
	ctx := context.Background()

	mentor := newTestUser(t, repo, user.RoleMentor)

	got, err := repo.GetByEmail(ctx, "  "+mentor.Email.String())
	require.NoError(t, err)
	assert.Equal(t, mentor.ID, got.ID)
	assert.True(t, got.IsMentor())
	assert.Len(t, got.Mentor.Technologies, 2)
	assert.NoError(t, got.Login(mentor.Email.String(), "secret1"))

	err = repo.Create(ctx, mentor)
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.True(t, shared.IsNotFound(err))
}

func TestSessionRepository_FeedbackAndPending(t *testing.T) {
	conn := setupConnection(t)
	users := NewUserRepository(conn)
	repo := NewSessionRepository(conn)
	ctx := context.Background()

	mentor := newTestUser(t, users, user.RoleMentor)
	mentee := newTestUser(t, users, user.RoleMentee)
	now := time.Now().UTC().Truncate(time.Microsecond)

	s, err := session.NewSession(session.NewSessionParams{
		ID:          uuid.NewString(),
		Mentor:      session.Participant{ID: mentor.ID, Name: mentor.Name},
		Mentee:      session.Participant{ID: mentee.ID, Name: mentee.Name},
		ScheduledAt: now.Add(-time.Hour),
		Now:         now,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, s))

	pending, err := repo.FindPendingBefore(ctx, now, 1000)
	require.NoError(t, err)
	found := false
	for _, p := range pending {
		found = found || p.ID == s.ID
	}
	assert.True(t, found)

	s.Status = session.StatusFinished
	fs := session.NewFeedbackService(timeutil.NewManualClock(now), shared.UUIDGenerator{}, nil)
	_, err = fs.AddFeedback(s, mentee, 4, "")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, s))
	// Повторное сохранение не дублирует отзыв.
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusFinished, got.Status)
	require.Len(t, got.Feedback(), 1)
	assert.Equal(t, 4, got.Feedback()[0].Rating.Int())

	list, err := repo.ListByMentor(ctx, mentor.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionRepository_OneFeedbackPerAuthor(t *testing.T) {
	conn := setupConnection(t)
	users := NewUserRepository(conn)
	repo := NewSessionRepository(conn)
	ctx := context.Background()

	mentor := newTestUser(t, users, user.RoleMentor)
	mentee := newTestUser(t, users, user.RoleMentee)
	now := time.Now().UTC().Truncate(time.Microsecond)

	s, err := session.NewSession(session.NewSessionParams{
		ID:          uuid.NewString(),
		Mentor:      session.Participant{ID: mentor.ID, Name: mentor.Name},
		Mentee:      session.Participant{ID: mentee.ID, Name: mentee.Name},
		ScheduledAt: now.Add(-time.Hour),
		Now:         now,
	})
	require.NoError(t, err)
	s.Status = session.StatusFinished
	require.NoError(t, repo.Create(ctx, s))

	// Два запроса прочитали сессию до того, как любой из них сохранил отзыв.
	first, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)

	fs := session.NewFeedbackService(timeutil.NewManualClock(now), shared.UUIDGenerator{}, nil)
	_, err = fs.AddFeedback(first, mentee, 5, "")
	require.NoError(t, err)
	_, err = fs.AddFeedback(second, mentee, 2, "")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, first))
	err = repo.Update(ctx, second)
	assert.True(t, shared.IsFeedbackRejected(err), err)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Feedback(), 1)
	assert.Equal(t, 5, got.Feedback()[0].Rating.Int())
}

func TestFeedbackInsertError(t *testing.T) {
	err := feedbackInsertError(&pgconn.PgError{Code: codeUniqueViolation})
	assert.True(t, shared.IsFeedbackRejected(err))

	err = feedbackInsertError(errors.New("connection reset"))
	assert.False(t, shared.IsFeedbackRejected(err))
	assert.EqualError(t, err, "failed to insert feedback: connection reset")
}

func TestCalendarAndStudyPlanRepositories(t *testing.T) {
	conn := setupConnection(t)
	users := NewUserRepository(conn)
	ctx := context.Background()

	mentor := newTestUser(t, users, user.RoleMentor)
	mentee := newTestUser(t, users, user.RoleMentee)
	slot := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)

	calendars := NewCalendarRepository(conn)
	cal, err := calendar.New(uuid.NewString(), mentor.ID)
	require.NoError(t, err)
	cal.AddSlot(slot)
	cal.AddSlot(slot.Add(time.Hour))
	require.NoError(t, calendars.Save(ctx, cal))

	cal.RemoveSlot(slot)
	require.NoError(t, calendars.Save(ctx, cal))

	gotCal, err := calendars.GetByMentor(ctx, mentor.ID)
	require.NoError(t, err)
	assert.False(t, gotCal.Has(slot))
	assert.True(t, gotCal.Has(slot.Add(time.Hour)))

	plans := NewStudyPlanRepository(conn)
	plan, err := studyplan.New(uuid.NewString(), mentee.ID)
	require.NoError(t, err)
	require.NoError(t, plans.Create(ctx, plan))

	g, err := studyplan.NewGoal(uuid.NewString(), "Learn pgx", time.Time{})
	require.NoError(t, err)
	plan.AddGoal(g)
	g.UpdateStatus(studyplan.StatusCompleted)
	require.NoError(t, plans.Save(ctx, plan))

	gotPlan, err := plans.GetByMentee(ctx, mentee.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, gotPlan.Progress())
	assert.True(t, gotPlan.Goals()[0].DueAt.IsZero())
}
