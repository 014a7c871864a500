// Package cycle runs one fetch, extract, render and publish cycle with bounded retries.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/lunchmenu/internal/menu"
	"github.com/JakeFAU/lunchmenu/internal/metrics"
)

// ErrAttemptsExhausted is returned when every attempt of a cycle failed.
var ErrAttemptsExhausted = errors.New("cycle attempts exhausted")

// DefaultTimestampLayout renders as "2024-03-04 07:15:00 EST".
const DefaultTimestampLayout = "2006-01-02 15:04:05 MST"

// Config controls Runner behavior.
type Config struct {
	SourceURL       string
	OutputPath      string
	FetchTimeout    time.Duration
	MaxAttempts     int
	RetryDelay      time.Duration
	WeekendFallback bool
	Location        *time.Location
	TimestampLayout string
}

// Dependencies are the collaborators a Runner drives. Mirror, Hasher, IDs and Metrics are optional.
type Dependencies struct {
	Fetcher   menu.Fetcher
	Extractor menu.Extractor
	Renderer  menu.Renderer
	Publisher menu.Publisher
	Mirror    menu.Mirror
	Hasher    menu.Hasher
	Clock     menu.Clock
	IDs       menu.IDGenerator
	Metrics   *metrics.Recorder
}

// Report summarizes a finished cycle.
type Report struct {
	CycleID      string
	Attempts     int
	TargetDay    string
	Sections     int
	Bytes        int64
	Digest       string
	URI          string
	MirrorURI    string
	UsedFallback bool
	State        State
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// Runner executes cycles. It holds no state between cycles.
type Runner struct {
	deps   Dependencies
	cfg    Config
	logger *zap.Logger
	sleep  sleepFunc
}

// New constructs a Runner.
func New(deps Dependencies, cfg Config, logger *zap.Logger) (*Runner, error) {
	if deps.Fetcher == nil || deps.Extractor == nil || deps.Renderer == nil || deps.Publisher == nil {
		return nil, fmt.Errorf("cycle: fetcher, extractor, renderer and publisher are required")
	}
	if deps.Clock == nil {
		deps.Clock = wallClock{}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = DefaultTimestampLayout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// RunCycle executes one cycle. On success the document is published exactly once.
// After the last failed attempt it returns an error wrapping ErrAttemptsExhausted
// and the previously published document is left in place.
func (r *Runner) RunCycle(ctx context.Context) (Report, error) {
	report := Report{CycleID: r.newCycleID(), State: StateIdle}
	logger := r.logger.With(zap.String("cycle_id", report.CycleID))
	logger.Info("cycle started",
		zap.String("started_at", r.now().Format(r.cfg.TimestampLayout)),
		zap.String("url", r.cfg.SourceURL),
		zap.String("output", r.cfg.OutputPath),
	)

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		report.Attempts = attempt
		if attempt > 1 {
			report.State = StateRetrying
			logger.Info("retrying cycle",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.cfg.MaxAttempts),
				zap.Duration("delay", r.cfg.RetryDelay),
			)
			if err := r.sleep(ctx, r.cfg.RetryDelay); err != nil {
				report.State = StateFailed
				r.finish(logger, report)
				return report, fmt.Errorf("cycle %s interrupted before attempt %d: %w", report.CycleID, attempt, err)
			}
		}

		state, err := r.attempt(ctx, logger, &report)
		if err == nil {
			report.State = StateDone
			r.finish(logger, report)
			return report, nil
		}
		lastErr = err
		r.deps.Metrics.ObserveAttemptFailure(state.stage())
		logger.Error("cycle attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.cfg.MaxAttempts),
			zap.String("stage", state.stage()),
			zap.Error(err),
		)
	}

	report.State = StateFailed
	r.deps.Metrics.ObserveCycleFailed()
	logger.Error("all cycle attempts failed; waiting for next scheduled run",
		zap.Int("attempts", report.Attempts),
		zap.Error(lastErr),
	)
	r.finish(logger, report)
	return report, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, report.Attempts, lastErr)
}

// attempt runs the pipeline once and returns the state it stopped in.
func (r *Runner) attempt(ctx context.Context, logger *zap.Logger, report *Report) (State, error) {
	report.State = StateFetching
	resp, err := r.deps.Fetcher.Fetch(ctx, menu.FetchRequest{
		URL:     r.cfg.SourceURL,
		Timeout: r.cfg.FetchTimeout,
	})
	if err != nil {
		return StateFetching, err
	}
	if len(resp.Body) == 0 {
		return StateFetching, &menu.FetchError{URL: r.cfg.SourceURL, StatusCode: resp.StatusCode, Err: errors.New("empty body")}
	}
	r.deps.Metrics.ObserveFetch(r.cfg.SourceURL, len(resp.Body), resp.Duration)
	logger.Debug("fetched source page",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", resp.Duration),
	)

	report.State = StateExtracting
	now := r.now()
	day := menu.ResolveTargetDay(now, r.cfg.WeekendFallback)
	report.TargetDay = day
	sections, err := r.deps.Extractor.Extract(resp.Body, day)
	switch {
	case errors.Is(err, menu.ErrExtractionMiss):
		reason := "section"
		if errors.Is(err, menu.ErrDayNotFound) {
			reason = "day"
		}
		r.deps.Metrics.ObserveExtractionMiss(reason)
		logger.Warn("no menu sections extracted; publishing placeholder",
			zap.String("day", day),
			zap.Error(err),
		)
		sections = nil
	case err != nil:
		return StateExtracting, err
	}
	report.Sections = len(sections)

	report.State = StateRendering
	document, err := r.deps.Renderer.Render(sections, now.Format(r.cfg.TimestampLayout))
	if err != nil {
		return StateRendering, err
	}
	if r.deps.Hasher != nil {
		digest, hashErr := r.deps.Hasher.Hash(document)
		if hashErr != nil {
			logger.Warn("hash document failed", zap.Error(hashErr))
		}
		report.Digest = digest
	}

	report.State = StatePublishing
	result, err := r.deps.Publisher.Publish(ctx, r.cfg.OutputPath, document)
	if err != nil {
		return StatePublishing, err
	}
	report.Bytes = result.Size
	report.URI = result.URI
	report.UsedFallback = result.UsedFallback
	r.deps.Metrics.ObservePublished(r.now(), report.Sections, result.Size)
	logger.Info("menu published",
		zap.String("uri", result.URI),
		zap.Int64("bytes", result.Size),
		zap.Int("sections", report.Sections),
		zap.String("day", day),
		zap.String("digest", report.Digest),
		zap.Bool("used_fallback", result.UsedFallback),
	)

	if r.deps.Mirror != nil {
		uri, mirrorErr := r.deps.Mirror.Mirror(ctx, document)
		if mirrorErr != nil {
			logger.Warn("mirror upload failed", zap.Error(mirrorErr))
		} else {
			report.MirrorURI = uri
			logger.Debug("menu mirrored", zap.String("uri", uri))
		}
	}
	return StateDone, nil
}

func (r *Runner) finish(logger *zap.Logger, report Report) {
	logger.Info("cycle finished",
		zap.String("state", report.State.String()),
		zap.Int("attempts", report.Attempts),
		zap.String("finished_at", r.now().Format(r.cfg.TimestampLayout)),
	)
}

func (r *Runner) now() time.Time {
	return r.deps.Clock.Now().In(r.cfg.Location)
}

func (r *Runner) newCycleID() string {
	if r.deps.IDs == nil {
		return fmt.Sprintf("cycle-%d", r.deps.Clock.Now().UnixNano())
	}
	id, err := r.deps.IDs.NewID()
	if err != nil {
		r.logger.Warn("generate cycle id failed", zap.Error(err))
		return fmt.Sprintf("cycle-%d", r.deps.Clock.Now().UnixNano())
	}
	return id
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
