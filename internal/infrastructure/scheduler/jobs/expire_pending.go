// Package jobs contains the scheduled jobs run by the worker.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/logger"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE PENDING SESSIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpirePendingJob cancels pending sessions whose scheduled time has passed
// without a decision from the mentor.
type ExpirePendingJob struct {
	sessions  session.Repository
	lifecycle *session.Lifecycle
	clock     timeutil.Clock
	logger    *zap.Logger
	config    ExpirePendingConfig

	lastRunStats atomic.Value // *ExpirePendingStats
}

// ExpirePendingConfig contains configuration for the job.
type ExpirePendingConfig struct {
	// BatchSize is the maximum number of sessions loaded per batch.
	BatchSize int

	// MaxBatches bounds one run.
	MaxBatches int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultExpirePendingConfig returns sensible defaults.
func DefaultExpirePendingConfig() ExpirePendingConfig {
	return ExpirePendingConfig{
		BatchSize:  100,
		MaxBatches: 10,
		Timeout:    time.Minute,
	}
}

// ExpirePendingStats contains statistics from a run.
type ExpirePendingStats struct {
	StartedAt time.Time
	Duration  time.Duration
	Checked   int
	Expired   int
	Rejected  int
	Errors    []error
}

// NewExpirePendingJob creates the job.
func NewExpirePendingJob(
	sessions session.Repository,
	lifecycle *session.Lifecycle,
	clock timeutil.Clock,
	log *zap.Logger,
	config ExpirePendingConfig,
) *ExpirePendingJob {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = timeutil.System()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = 1
	}

	return &ExpirePendingJob{
		sessions:  sessions,
		lifecycle: lifecycle,
		clock:     clock,
		logger:    log.With(logger.Component("expire_pending_sessions")),
		config:    config,
	}
}

// Name returns the job name.
func (j *ExpirePendingJob) Name() string {
	return "expire_pending_sessions"
}

// Description returns a human-readable description.
func (j *ExpirePendingJob) Description() string {
	return "Cancels pending sessions whose scheduled time has passed"
}

// Run executes the job.
func (j *ExpirePendingJob) Run(ctx context.Context) error {
	begin := time.Now()
	stats := &ExpirePendingStats{StartedAt: j.clock.Now()}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	defer func() {
		stats.Duration = time.Since(begin)
		j.lastRunStats.Store(stats)
	}()

	for batch := 0; batch < j.config.MaxBatches; batch++ {
		pending, err := j.sessions.FindPendingBefore(ctx, j.clock.Now(), j.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to find pending sessions: %w", err)
		}
		if len(pending) == 0 {
			break
		}

		progressed := false
		for _, s := range pending {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			stats.Checked++
			pendingEvents := &shared.RecordingPublisher{}
			res := j.lifecycle.WithPublisher(pendingEvents).Expire(s)
			if !res.OK() {
				stats.Rejected++
				_ = pendingEvents.Flush(j.lifecycle.Publisher())
				continue
			}
			if err := j.sessions.Update(ctx, s); err != nil {
				stats.Errors = append(stats.Errors, err)
				j.logger.Error("failed to save expired session",
					logger.SessionID(s.ID),
					zap.Error(err),
				)
				continue
			}
			_ = pendingEvents.Flush(j.lifecycle.Publisher())
			stats.Expired++
			progressed = true
		}

		if !progressed || len(pending) < j.config.BatchSize {
			break
		}
	}

	if stats.Expired > 0 || len(stats.Errors) > 0 {
		j.logger.Info("pending sessions expired",
			zap.Int("checked", stats.Checked),
			zap.Int("expired", stats.Expired),
			zap.Int("errors", len(stats.Errors)),
		)
	}

	if len(stats.Errors) > 0 {
		return fmt.Errorf("expire_pending_sessions: %d sessions failed to save: %w", len(stats.Errors), stats.Errors[0])
	}
	return nil
}

// LastRunStats returns statistics from the last run.
func (j *ExpirePendingJob) LastRunStats() *ExpirePendingStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ExpirePendingStats)
}
