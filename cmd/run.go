package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lunchmenu/internal/app"
	"github.com/JakeFAU/lunchmenu/internal/config"
	"github.com/JakeFAU/lunchmenu/internal/scheduler"
)

const shutdownTimeout = 2 * time.Minute

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a cycle now and then once a day",
		Long: `Runs one cycle at start-up (unless schedule.run_on_start is false) and then
every day at schedule.time in the configured timezone until interrupted.
A failed cycle is logged and the next scheduled run goes ahead as usual.`,
		RunE: runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, e.cfg, e.logger, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer a.Close()

	sched, err := newScheduler(e.cfg, e.logger)
	if err != nil {
		return err
	}
	logBanner(e.logger, e.cfg, sched.Next(time.Now()))

	if e.cfg.Schedule.RunOnStart {
		e.logger.Info("running start-up cycle")
		a.Run(ctx)
	}

	if err := sched.Schedule(ctx, a.Run); err != nil {
		return err
	}
	sched.Start()

	<-ctx.Done()
	e.logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		e.logger.Error("scheduler shutdown error", zap.Error(err))
	}
	e.logger.Info("shutdown complete")
	return nil
}

func newScheduler(cfg config.Config, logger *zap.Logger) (*scheduler.Scheduler, error) {
	at, err := cfg.ScheduleClock()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return scheduler.New(scheduler.Config{
		Hour:     at.Hour(),
		Minute:   at.Minute(),
		Location: loc,
	}, logger.Named("scheduler"))
}

func logBanner(logger *zap.Logger, cfg config.Config, next time.Time) {
	logger.Info("lunchmenu starting",
		zap.String("url", cfg.Source.URL),
		zap.String("output", cfg.Output.Path),
		zap.String("timezone", cfg.Timezone),
		zap.String("schedule", cfg.Schedule.Time),
		zap.Bool("run_on_start", cfg.Schedule.RunOnStart),
		zap.Bool("weekend_fallback", cfg.Extract.WeekendFallback),
		zap.String("section", cfg.Extract.SectionName),
		zap.String("fetch_mode", cfg.Fetch.Mode),
		zap.Int("max_attempts", cfg.Cycle.MaxAttempts),
		zap.String("mirror_bucket", cfg.Mirror.GCSBucket),
		zap.String("next_run", next.Format("2006-01-02 15:04:05 MST")),
	)
}
