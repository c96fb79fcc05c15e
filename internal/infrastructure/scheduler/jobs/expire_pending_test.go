package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

var t0 = time.Date(2024, 8, 5, 15, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *memory.SessionRepository, id string, at time.Time, status session.Status) {
	t.Helper()
	s, err := session.NewSession(session.NewSessionParams{
		ID:          id,
		Mentor:      session.Participant{ID: "m-1"},
		Mentee:      session.Participant{ID: "e-" + id},
		ScheduledAt: at,
		Now:         t0.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	s.Status = status
	require.NoError(t, repo.Create(context.Background(), s))
}

func TestExpirePendingJob(t *testing.T) {
	ctx := context.Background()
	clock := timeutil.NewManualClock(t0)
	repo := memory.NewSessionRepository()
	events := &shared.RecordingPublisher{}

	seed(t, repo, "past-1", t0.Add(-2*time.Hour), session.StatusPending)
	seed(t, repo, "past-2", t0.Add(-time.Minute), session.StatusPending)
	seed(t, repo, "now", t0, session.StatusPending)
	seed(t, repo, "future", t0.Add(time.Minute), session.StatusPending)
	seed(t, repo, "approved", t0.Add(-time.Hour), session.StatusApproved)

	job := NewExpirePendingJob(repo, session.NewLifecycle(clock, events), clock, nil,
		ExpirePendingConfig{BatchSize: 2, MaxBatches: 5})

	require.NoError(t, job.Run(ctx))

	for _, id := range []string{"past-1", "past-2", "now"} {
		s, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, session.StatusCancelled, s.Status, id)
		assert.Equal(t, "expired", s.StatusReason, id)
	}
	for id, want := range map[string]session.Status{"future": session.StatusPending, "approved": session.StatusApproved} {
		s, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, s.Status, id)
	}

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.Expired)
	assert.Len(t, events.OfType(shared.EventSessionStatusChanged), 3)

	// Повторный запуск ничего не меняет.
	require.NoError(t, job.Run(ctx))
	assert.Zero(t, job.LastRunStats().Expired)
}

type unsavableSessions struct {
	*memory.SessionRepository
}

func (unsavableSessions) Update(context.Context, *session.Session) error {
	return errors.New("connection reset")
}

func TestExpirePendingJob_FailedSavePublishesNothing(t *testing.T) {
	ctx := context.Background()
	clock := timeutil.NewManualClock(t0)
	repo := memory.NewSessionRepository()
	events := &shared.RecordingPublisher{}
	seed(t, repo, "past", t0.Add(-time.Hour), session.StatusPending)

	job := NewExpirePendingJob(unsavableSessions{repo}, session.NewLifecycle(clock, events), clock, nil, DefaultExpirePendingConfig())

	assert.Error(t, job.Run(ctx))
	assert.Len(t, job.LastRunStats().Errors, 1)
	assert.Empty(t, events.OfType(shared.EventSessionStatusChanged))

	s, err := repo.GetByID(ctx, "past")
	require.NoError(t, err)
	assert.Equal(t, session.StatusPending, s.Status)
}

func TestExpirePendingJob_Metadata(t *testing.T) {
	job := NewExpirePendingJob(memory.NewSessionRepository(), session.NewLifecycle(nil, nil), nil, nil, DefaultExpirePendingConfig())
	assert.Equal(t, "expire_pending_sessions", job.Name())
	assert.NotEmpty(t, job.Description())
	assert.Nil(t, job.LastRunStats())
}
