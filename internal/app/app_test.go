package app_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/lunchmenu/internal/app"
	"github.com/JakeFAU/lunchmenu/internal/config"
	"github.com/JakeFAU/lunchmenu/internal/cycle"
	"github.com/JakeFAU/lunchmenu/internal/storage/memory"
)

const outputPath = "/output/lunch_menu.html"

var days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dishes = map[string]string{
	"Monday":    "Pizza",
	"Tuesday":   "Tacos",
	"Wednesday": "Pasta",
	"Thursday":  "Chili",
	"Friday":    "Fish sticks",
	"Saturday":  "Pancakes",
	"Sunday":    "Roast",
}

// weekPage lists every day so the test passes whatever day it runs on.
func weekPage() string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, day := range days {
		fmt.Fprintf(&b, "<h3>%s</h3>\n<p>Lunch</p>\n<p>%s</p>\n<p>Salad bar</p>\n", day, dishes[day])
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newSource(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, weekPage())
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, sourceURL string) config.Config {
	t.Helper()
	return config.Config{
		Source:   config.SourceConfig{URL: sourceURL},
		Output:   config.OutputConfig{Path: outputPath},
		Timezone: "America/New_York",
		Schedule: config.ScheduleConfig{Time: "03:00"},
		Extract:  config.ExtractConfig{WeekendFallback: false},
		Fetch:    config.FetchConfig{Mode: config.FetchModeHTTP, TimeoutSeconds: 5},
		Cycle:    config.CycleConfig{MaxAttempts: 2},
		Mirror:   config.MirrorConfig{Object: "lunch_menu.html"},
	}
}

func TestNewAppRunsCycleToFilesystem(t *testing.T) {
	source := newSource(t)
	cfg := testConfig(t, source.URL)
	cfg.Metrics.TextfilePath = filepath.Join(t.TempDir(), "lunchmenu.prom")
	fsys := afero.NewMemMapFs()

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{Fs: fsys})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	report, err := a.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cycle.StateDone, report.State)
	assert.Equal(t, 1, report.Sections)
	assert.Len(t, report.Digest, 64)
	assert.NotEmpty(t, report.CycleID)

	doc, err := afero.ReadFile(fsys, outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `<div class="menu-item">`+dishes[report.TargetDay]+`</div>`)

	metrics, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `lunchmenu_cycles_total{status="succeeded"} 1`)
}

func TestNewAppWithMemoryPublisher(t *testing.T) {
	source := newSource(t)
	publisher := memory.NewPublisher()

	a, err := app.New(context.Background(), testConfig(t, source.URL), nil, app.Options{Publisher: publisher})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.NotNil(t, a.Logger())
	assert.Equal(t, source.URL, a.Config().Source.URL)
	assert.NotNil(t, a.Runner())

	a.Run(context.Background())
	_, ok := publisher.Get(outputPath)
	assert.True(t, ok)
}

func TestNewAppMirrorsToGCS(t *testing.T) {
	source := newSource(t)
	var uploads atomic.Int32
	gcsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		uploads.Add(1)
		_, _ = io.WriteString(w, `{"name": "lunch_menu.html", "bucket": "menus"}`)
	}))
	t.Cleanup(gcsServer.Close)

	cfg := testConfig(t, source.URL)
	cfg.Mirror.GCSBucket = "menus"

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{
		Publisher:     memory.NewPublisher(),
		MirrorOptions: []option.ClientOption{option.WithEndpoint(gcsServer.URL), option.WithoutAuthentication()},
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	report, err := a.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gs://menus/lunch_menu.html", report.MirrorURI)
	assert.Equal(t, int32(1), uploads.Load())
}

func TestNewAppFetchFailureExhaustsAttempts(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(source.Close)
	cfg := testConfig(t, source.URL)
	publisher := memory.NewPublisher()

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{Publisher: publisher})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	report, err := a.RunCycle(context.Background())
	require.ErrorIs(t, err, cycle.ErrAttemptsExhausted)
	assert.Equal(t, 2, report.Attempts)
	assert.Zero(t, publisher.Writes())
}

func TestNewAppHeadlessMode(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	cfg.Fetch.Mode = config.FetchModeHeadless
	cfg.Headless.NavTimeoutSec = 10

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{Publisher: memory.NewPublisher()})
	require.NoError(t, err)
	a.Close()
}

func TestNewAppInvalidTimezone(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	cfg.Timezone = "Nowhere/Special"

	_, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{})
	require.Error(t, err)
}
