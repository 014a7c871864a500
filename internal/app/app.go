// Package app initializes and holds long-lived services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/lunchmenu/internal/clock/system"
	"github.com/JakeFAU/lunchmenu/internal/config"
	"github.com/JakeFAU/lunchmenu/internal/cycle"
	"github.com/JakeFAU/lunchmenu/internal/extract"
	collyfetcher "github.com/JakeFAU/lunchmenu/internal/fetcher/colly"
	"github.com/JakeFAU/lunchmenu/internal/fetcher/headless"
	"github.com/JakeFAU/lunchmenu/internal/hash/sha256"
	"github.com/JakeFAU/lunchmenu/internal/id/uuid"
	"github.com/JakeFAU/lunchmenu/internal/menu"
	"github.com/JakeFAU/lunchmenu/internal/metrics"
	"github.com/JakeFAU/lunchmenu/internal/render"
	"github.com/JakeFAU/lunchmenu/internal/storage/gcs"
	"github.com/JakeFAU/lunchmenu/internal/storage/local"
)

// Options override collaborators, mainly for dry runs and tests.
type Options struct {
	// Publisher replaces the filesystem publisher.
	Publisher menu.Publisher
	// Fs backs the filesystem publisher; nil means the OS filesystem.
	Fs afero.Fs
	// MirrorOptions are passed to the GCS client when a mirror is configured.
	MirrorOptions []option.ClientOption
}

// App holds the shared services for one process. It is built once at start-up.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	runner  *cycle.Runner
	metrics *metrics.Recorder
	closers []func() error
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Runner returns the cycle runner.
func (a *App) Runner() *cycle.Runner {
	return a.runner
}

// New builds every collaborator named by cfg and fails fast if one cannot be created.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, metrics: metrics.New()}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	extractor, err := extract.New(cfg.Patterns())
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	fetch, err := a.buildFetcher()
	if err != nil {
		return nil, err
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher = local.New(opts.Fs, logger.Named("publisher"))
	}

	var mirror menu.Mirror
	if cfg.Mirror.GCSBucket != "" {
		m, err := gcs.Dial(ctx, gcs.Config{Bucket: cfg.Mirror.GCSBucket, Object: cfg.Mirror.Object}, opts.MirrorOptions...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init mirror: %w", err)
		}
		logger.Info("mirroring published menu to gcs",
			zap.String("bucket", cfg.Mirror.GCSBucket),
			zap.String("object", cfg.Mirror.Object),
		)
		a.closers = append(a.closers, m.Close)
		mirror = m
	}

	runner, err := cycle.New(cycle.Dependencies{
		Fetcher:   fetch,
		Extractor: extractor,
		Renderer:  render.New(),
		Publisher: publisher,
		Mirror:    mirror,
		Hasher:    sha256.New(),
		Clock:     system.New(loc),
		IDs:       uuid.New(),
		Metrics:   a.metrics,
	}, cycle.Config{
		SourceURL:       cfg.Source.URL,
		OutputPath:      cfg.Output.Path,
		FetchTimeout:    cfg.FetchTimeout(),
		MaxAttempts:     cfg.Cycle.MaxAttempts,
		RetryDelay:      cfg.RetryDelay(),
		WeekendFallback: cfg.Extract.WeekendFallback,
		Location:        loc,
	}, logger.Named("cycle"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner
	return a, nil
}

func (a *App) buildFetcher() (menu.Fetcher, error) {
	switch a.cfg.Fetch.Mode {
	case config.FetchModeHeadless:
		f, err := headless.NewChromedp(headless.Config{
			UserAgent:         a.cfg.Fetch.UserAgent,
			NavigationTimeout: a.cfg.NavTimeout(),
			ExecPath:          a.cfg.Headless.ExecPath,
		})
		if err != nil {
			return nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		a.closers = append(a.closers, func() error {
			f.Close()
			return nil
		})
		return f, nil
	default:
		return collyfetcher.New(collyfetcher.Config{
			UserAgent: a.cfg.Fetch.UserAgent,
			Timeout:   a.cfg.FetchTimeout(),
		}), nil
	}
}

// RunCycle runs one cycle and flushes metrics afterwards.
func (a *App) RunCycle(ctx context.Context) (cycle.Report, error) {
	report, err := a.runner.RunCycle(ctx)
	if werr := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); werr != nil {
		a.logger.Warn("metrics textfile not written",
			zap.String("path", a.cfg.Metrics.TextfilePath),
			zap.Error(werr),
		)
	}
	return report, err
}

// Run is the scheduler callback. Failures are logged by the runner.
func (a *App) Run(ctx context.Context) {
	_, _ = a.RunCycle(ctx)
}

// Close releases services in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
		}
	}
	a.closers = nil
}
