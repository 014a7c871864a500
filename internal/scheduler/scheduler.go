// Package scheduler invokes a job once a day at a fixed wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JakeFAU/lunchmenu/internal/logging"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Config sets the daily run time.
type Config struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler runs a single daily job. Runs never overlap and a panicking run
// is logged instead of crashing the process.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	loc      *time.Location
	entry    cron.EntryID
	logger   *zap.Logger
}

// Spec returns the cron expression for a daily run at hour:minute.
func Spec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// New builds a stopped Scheduler.
func New(cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, fmt.Errorf("scheduler: invalid time %02d:%02d", cfg.Hour, cfg.Minute)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	spec := Spec(cfg.Hour, cfg.Minute)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, err)
	}
	cronLogger := logging.NewCronLogger(logger)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{
		cron:     c,
		schedule: schedule,
		spec:     spec,
		loc:      cfg.Location,
		logger:   logger,
	}, nil
}

// Schedule registers job. ctx is handed to every run.
func (s *Scheduler) Schedule(ctx context.Context, job Job) error {
	if s.entry != 0 {
		return fmt.Errorf("scheduler: job already scheduled")
	}
	id, err := s.cron.AddJob(s.spec, cron.FuncJob(func() {
		start := time.Now()
		s.logger.Info("scheduled run starting", zap.String("spec", s.spec))
		job(ctx)
		s.logger.Info("scheduled run finished", zap.Duration("elapsed", time.Since(start)))
	}))
	if err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}
	s.entry = id
	return nil
}

// Start begins dispatching in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("spec", s.spec),
		zap.String("tz", s.loc.String()),
		zap.Time("next_run", s.Next(time.Now())),
	)
}

// Next reports the first run strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.loc))
}

// Stop prevents new runs and waits for a running one to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}
