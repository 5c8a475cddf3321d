// Package scheduler runs cleanup jobs on a cron schedule and reloads the
// configuration when its file changes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// ErrJobRunning is returned by RunNow while another run is in progress.
var ErrJobRunning = errors.New("cleanup already running")

// Scheduler runs a Job on a cron schedule. A tick that fires while the
// previous run, scheduled or started with RunNow, is still busy is skipped.
type Scheduler struct {
	spec    string
	job     Job
	busy    sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	ctx     context.Context
}

// New validates spec (standard five field cron or a descriptor such as
// "@every 1h") and creates a stopped scheduler.
func New(spec string, job Job) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	logger := slog.Default().With("component", "scheduler")
	return &Scheduler{
		spec:   spec,
		job:    job,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
	}, nil
}

// Start schedules the job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.ctx = ctx
	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	s.entry = id

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Reschedule replaces the schedule of a running or stopped scheduler.
func (s *Scheduler) Reschedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if spec == s.spec {
		return nil
	}
	s.spec = spec
	if !s.running {
		return nil
	}

	s.cron.Remove(s.entry)
	ctx := s.ctx
	id, err := s.cron.AddFunc(spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	s.entry = id
	s.logger.Info("schedule changed", "schedule", spec)
	return nil
}

// RunNow runs the job synchronously outside the schedule. It fails with
// ErrJobRunning instead of overlapping a run already in progress.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.busy.TryLock() {
		return ErrJobRunning
	}
	defer s.busy.Unlock()
	return s.job(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	if !s.busy.TryLock() {
		s.logger.Warn("skipping scheduled cleanup, previous run still in progress")
		return
	}
	defer s.busy.Unlock()

	start := time.Now()
	s.logger.Info("starting scheduled cleanup")
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled cleanup failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled cleanup completed", "duration", time.Since(start))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		done := s.cron.Stop()
		<-done.Done()
		s.cron.Remove(s.entry)
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Schedule returns the current cron expression.
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// NextRun returns the next scheduled run, or nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entry := s.cron.Entry(s.entry)
	if !entry.Valid() || entry.Next.IsZero() {
		sched, err := cron.ParseStandard(s.spec)
		if err != nil {
			return nil
		}
		next := sched.Next(time.Now())
		return &next
	}
	next := entry.Next
	return &next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
