package cron

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
	"github.com/angelmondragon/repricer/pkg/metrics"
)

const (
	defaultInterval = 30 * time.Minute

	skipDisabled = "disabled"
	skipOverlap  = "overlap"
	skipLocked   = "locked"
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Jobs     *JobTable
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	jobs     *JobTable
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

// runReporter is implemented by jobs that expose the id of their last run.
type runReporter interface {
	LastRunID() string
}

// NewService builds a cron service. Jobs present in the registry but missing
// from the job table are registered as enabled.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger required")
	}
	if params.Lock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	jobs := params.Jobs
	if jobs == nil {
		jobs = NewJobTable()
	}
	for _, name := range registry.Names() {
		if _, ok := jobs.Get(name); !ok {
			jobs.Register(name, true)
		}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Jobs exposes the enable switch table.
func (s *Service) Jobs() *JobTable {
	return s.jobs
}

// Run starts the cron loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunOnce executes a single named job outside the schedule. It does not
// take the scheduler lock; overlap with a scheduled run is caught by the
// job's own guard and surfaces as CodeJobOverlap.
func (s *Service) RunOnce(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unknown job").WithDetails(map[string]any{"job": name})
	}
	if !s.jobs.IsEnabled(name) {
		s.recordSkipped(name, skipDisabled)
		return pkgerrors.New(pkgerrors.CodeJobDisabled, "job is disabled").WithDetails(map[string]any{"job": name})
	}
	return s.runJob(s.logg.WithField(ctx, "trigger", "manual"), job)
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		for _, name := range s.registry.Names() {
			s.recordSkipped(name, skipLocked)
		}
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		if !s.jobs.IsEnabled(job.Name()) {
			s.logg.Info(s.logg.WithJob(ctx, job.Name()), "job disabled; skipping")
			s.recordSkipped(job.Name(), skipDisabled)
			continue
		}
		_ = s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := s.now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeJobOverlap):
		s.logg.Warn(jobCtx, "job already running; skipped")
		s.recordSkipped(job.Name(), skipOverlap)
		return err
	case pkgerrors.IsCode(err, pkgerrors.CodeJobDisabled):
		s.logg.Info(jobCtx, "job disabled; skipped")
		s.recordSkipped(job.Name(), skipDisabled)
		return err
	}

	s.observeDuration(job.Name(), duration)
	s.jobs.RecordRun(job.Name(), lastRunID(job), start, err)
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.recordFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	s.recordSuccess(job.Name())
	return nil
}

func lastRunID(job Job) string {
	if r, ok := job.(runReporter); ok {
		return r.LastRunID()
	}
	return ""
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}

func (s *Service) recordSkipped(job, reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSkipped(job, reason)
}
