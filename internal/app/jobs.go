package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/config"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/scheduler/jobs"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// NewScheduler builds the scheduler with the background jobs registered.
func NewScheduler(cfg *config.Config, stores *Stores, events shared.EventPublisher, clock timeutil.Clock, log *zap.Logger) (*scheduler.Scheduler, error) {
	sc := scheduler.DefaultSchedulerConfig()
	sc.Logger = log
	sc.Clock = clock
	sc.TickInterval = cfg.Scheduler.TickInterval

	s := scheduler.NewScheduler(sc)

	expire := jobs.NewExpirePendingJob(stores.Sessions, NewLifecycle(cfg, clock, events), clock, log,
		jobs.ExpirePendingConfig{
			BatchSize:  cfg.Scheduler.ExpireBatchSize,
			MaxBatches: jobs.DefaultExpirePendingConfig().MaxBatches,
			Timeout:    cfg.Scheduler.JobTimeout,
		})
	if err := s.Register(expire, scheduler.NewIntervalSchedule(cfg.Scheduler.ExpirePendingInterval)); err != nil {
		return nil, fmt.Errorf("register %s: %w", expire.Name(), err)
	}

	return s, nil
}
