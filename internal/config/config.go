// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/lunchmenu/internal/extract"
)

// Fetch modes.
const (
	FetchModeHTTP     = "http"
	FetchModeHeadless = "headless"
)

// Config captures all service configuration knobs loaded via Viper.
// It is built once at start-up and passed by value; nothing mutates it afterwards.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Output   OutputConfig   `mapstructure:"output"`
	Timezone string         `mapstructure:"timezone"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Cycle    CycleConfig    `mapstructure:"cycle"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
}

// SourceConfig points at the dining page.
type SourceConfig struct {
	URL string `mapstructure:"url"`
}

// OutputConfig sets where the rendered document is published.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// ScheduleConfig controls when cycles run.
type ScheduleConfig struct {
	Time       string `mapstructure:"time"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// ExtractConfig holds the pattern set used to cut the menu out of the page.
type ExtractConfig struct {
	WeekendFallback bool   `mapstructure:"weekend_fallback"`
	DayPattern      string `mapstructure:"day_pattern"`
	SectionPattern  string `mapstructure:"section_pattern"`
	SectionName     string `mapstructure:"section_name"`
}

// FetchConfig configures the outbound request.
type FetchConfig struct {
	Mode           string `mapstructure:"mode"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// HeadlessConfig configures the headless browser fetcher.
type HeadlessConfig struct {
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	ExecPath      string `mapstructure:"exec_path"`
}

// CycleConfig sets the retry budget of one cycle.
type CycleConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig enables the Prometheus textfile.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// MirrorConfig enables copying each document into a GCS bucket.
type MirrorConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Object    string `mapstructure:"object"`
}

// legacyEnv maps keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"source.url":              "MENU_URL",
	"output.path":             "OUTPUT_PATH",
	"timezone":                "TIMEZONE",
	"schedule.time":           "SCHEDULE_TIME",
	"extract.day_pattern":     "TARGET_DAY_PATTERN",
	"extract.section_pattern": "MENU_SECTION_PATTERN",
	"extract.section_name":    "MENU_SECTION_NAME",
}

const envPrefix = "LUNCHMENU"

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	applyLegacyWeekendFallback(v)
	return nil
}

// applyLegacyWeekendFallback reads WEEKEND_FALLBACK the way earlier deployments did:
// only "true" (any case) enables it and every other value disables it.
func applyLegacyWeekendFallback(v *viper.Viper) {
	if _, ok := os.LookupEnv(envPrefix + "_EXTRACT_WEEKEND_FALLBACK"); ok {
		return
	}
	if raw, ok := os.LookupEnv("WEEKEND_FALLBACK"); ok {
		v.Set("extract.weekend_fallback", strings.EqualFold(strings.TrimSpace(raw), "true"))
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "https://www.aacps.org/dining?filter=61292")
	v.SetDefault("output.path", "/output/lunch_menu.html")
	v.SetDefault("timezone", "America/New_York")
	v.SetDefault("schedule.time", "03:00")
	v.SetDefault("schedule.run_on_start", true)
	v.SetDefault("extract.weekend_fallback", true)
	v.SetDefault("extract.day_pattern", extract.DefaultDayPattern)
	v.SetDefault("extract.section_pattern", extract.DefaultSectionPattern)
	v.SetDefault("extract.section_name", extract.DefaultSectionName)
	v.SetDefault("fetch.mode", FetchModeHTTP)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.exec_path", "")
	v.SetDefault("cycle.max_attempts", 3)
	v.SetDefault("cycle.retry_delay_seconds", 5)
	v.SetDefault("logging.development", false)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("mirror.gcs_bucket", "")
	v.SetDefault("mirror.object", "lunch_menu.html")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url must be set")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return fmt.Errorf("output.path must be set")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if _, err := c.ScheduleClock(); err != nil {
		return err
	}
	if _, err := extract.New(c.Patterns()); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if c.Fetch.Mode != FetchModeHTTP && c.Fetch.Mode != FetchModeHeadless {
		return fmt.Errorf("fetch.mode must be %q or %q, got %q", FetchModeHTTP, FetchModeHeadless, c.Fetch.Mode)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.Mode == FetchModeHeadless && c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0 when fetch.mode is headless")
	}
	if c.Cycle.MaxAttempts < 1 {
		return fmt.Errorf("cycle.max_attempts must be >= 1")
	}
	if c.Cycle.RetryDelaySeconds < 0 {
		return fmt.Errorf("cycle.retry_delay_seconds must be >= 0")
	}
	if c.Mirror.GCSBucket != "" && strings.TrimSpace(c.Mirror.Object) == "" {
		return fmt.Errorf("mirror.object must be set when mirror.gcs_bucket is set")
	}
	return nil
}

// Location loads the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ScheduleClock parses schedule.time into hour and minute.
func (c Config) ScheduleClock() (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.Schedule.Time))
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule.time must be HH:MM, got %q", c.Schedule.Time)
	}
	return t, nil
}

// Patterns returns the extractor pattern set.
func (c Config) Patterns() extract.Patterns {
	return extract.Patterns{
		Day:         c.Extract.DayPattern,
		Section:     c.Extract.SectionPattern,
		SectionName: c.Extract.SectionName,
	}
}

// FetchTimeout converts fetch.timeout_seconds into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RetryDelay converts cycle.retry_delay_seconds into a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Cycle.RetryDelaySeconds) * time.Second
}

// NavTimeout converts headless.nav_timeout_seconds into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
