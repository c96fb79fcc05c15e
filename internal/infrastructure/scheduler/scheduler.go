// Package scheduler runs background jobs on fixed intervals. The worker uses
// it to expire pending sessions nobody decided on in time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// Job is a unit of background work.
type Job interface {
	Name() string
	Description() string

	// Run does one pass. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}

// Schedule decides when a job runs next.
type Schedule interface {
	Next(after time.Time) time.Time
	String() string
}

// JobResult describes one run of a job.
type JobResult struct {
	JobName   string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
	Manual    bool
}

// Success reports whether the run returned no error.
func (r JobResult) Success() bool { return r.Err == nil }

// JobInfo is a snapshot of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	NextRun     time.Time
	Runs        int64
	Failures    int64
	Last        *JobResult
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Logger *zap.Logger

	// Clock decides when jobs are due (default: system clock).
	Clock timeutil.Clock

	// TickInterval is how often due jobs are looked for (default: 1s).
	TickInterval time.Duration

	// OnError is called after every failed run.
	OnError func(jobName string, err error)
}

// DefaultSchedulerConfig returns the configuration the binaries start from.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Clock:        timeutil.System(),
		TickInterval: time.Second,
	}
}

type entry struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	running  bool
	runs     int64
	failures int64
	last     *JobResult
}

// Scheduler starts every due job on its own goroutine. A job never overlaps
// with itself: a run that is still going when the job is due again is skipped.
type Scheduler struct {
	cfg    SchedulerConfig
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.System()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Scheduler{
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("component", "scheduler")),
		entries: make(map[string]*entry),
	}
}

// Register adds job. The first run is one schedule step from now.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	e := &entry{job: job, schedule: schedule, nextRun: schedule.Next(s.cfg.Clock.Now())}
	s.entries[name] = e

	s.logger.Info("job registered",
		zap.String("job", name),
		zap.String("schedule", schedule.String()),
		zap.Time("next_run", e.nextRun),
	)
	return nil
}

// Start launches the tick loop. It stops with Stop or when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("scheduler started", zap.Int("jobs", len(s.entries)))
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// IsRunning reports whether the tick loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.startDue(ctx)
		}
	}
}

func (s *Scheduler) startDue(ctx context.Context) {
	now := s.cfg.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.running || now.Before(e.nextRun) {
			continue
		}
		e.running = true
		e.nextRun = e.schedule.Next(now)

		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			s.run(ctx, e, false)
		}(e)
	}
}

// RunNow runs the named job immediately, outside its schedule, and waits for
// it. It does not move the next scheduled run.
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	res := s.run(ctx, e, true)
	return res, res.Err
}

func (s *Scheduler) run(ctx context.Context, e *entry, manual bool) JobResult {
	name := e.job.Name()
	started := s.cfg.Clock.Now()
	begin := time.Now()

	err := e.job.Run(ctx)
	res := JobResult{
		JobName:   name,
		StartedAt: started,
		Duration:  time.Since(begin),
		Err:       err,
		Manual:    manual,
	}

	s.mu.Lock()
	if !manual {
		e.running = false
	}
	e.runs++
	if err != nil {
		e.failures++
	}
	e.last = &res
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed",
			zap.String("job", name),
			zap.Bool("manual", manual),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
		if s.cfg.OnError != nil {
			s.cfg.OnError(name, err)
		}
		return res
	}

	s.logger.Debug("job completed",
		zap.String("job", name),
		zap.Bool("manual", manual),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// Jobs returns a snapshot of every registered job, sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Job returns a snapshot of the named job.
func (s *Scheduler) Job(name string) (JobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return e.info(), nil
}

func (e *entry) info() JobInfo {
	info := JobInfo{
		Name:        e.job.Name(),
		Description: e.job.Description(),
		Schedule:    e.schedule.String(),
		NextRun:     e.nextRun,
		Runs:        e.runs,
		Failures:    e.failures,
	}
	if e.last != nil {
		last := *e.last
		info.Last = &last
	}
	return info
}
