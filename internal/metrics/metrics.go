// Package metrics exposes Prometheus collectors for the menu scraper.
//
// The process does not listen on a port; collectors are flushed to a
// node-exporter textfile after every cycle instead.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	cyclesTotal         *prometheus.CounterVec
	attemptFailures     *prometheus.CounterVec
	extractionMisses    *prometheus.CounterVec
	fetchDuration       *prometheus.HistogramVec
	fetchBytesTotal     *prometheus.CounterVec
	documentBytes       prometheus.Gauge
	sectionsExtracted   prometheus.Gauge
	lastSuccessUnixTime prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunchmenu_cycles_total",
				Help: "Total number of scrape cycles, labeled by final status.",
			},
			[]string{"status"},
		),
		attemptFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunchmenu_attempt_failures_total",
				Help: "Total number of failed cycle attempts, labeled by the stage that failed.",
			},
			[]string{"stage"},
		),
		extractionMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunchmenu_extraction_misses_total",
				Help: "Total number of extractions that produced no section, labeled by reason.",
			},
			[]string{"reason"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lunchmenu_fetch_duration_seconds",
				Help:    "Histogram of source page fetch latencies, labeled by site.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"site"},
		),
		fetchBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunchmenu_fetch_bytes_total",
				Help: "Total number of bytes fetched from the source page, labeled by site.",
			},
			[]string{"site"},
		),
		documentBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lunchmenu_document_bytes",
			Help: "Size of the last published document.",
		}),
		sectionsExtracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lunchmenu_sections_extracted",
			Help: "Number of menu sections in the last published document.",
		}),
		lastSuccessUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lunchmenu_last_success_timestamp_seconds",
			Help: "Unix time of the last successfully published document.",
		}),
	}
	r.registry.MustRegister(
		r.cyclesTotal,
		r.attemptFailures,
		r.extractionMisses,
		r.fetchDuration,
		r.fetchBytesTotal,
		r.documentBytes,
		r.sectionsExtracted,
		r.lastSuccessUnixTime,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveFetch records one successful fetch.
func (r *Recorder) ObserveFetch(site string, bytesFetched int, duration time.Duration) {
	if r == nil {
		return
	}
	sanitized := SanitizeSite(site)
	r.fetchDuration.WithLabelValues(sanitized).Observe(duration.Seconds())
	if bytesFetched > 0 {
		r.fetchBytesTotal.WithLabelValues(sanitized).Add(float64(bytesFetched))
	}
}

// ObserveAttemptFailure increments the failure counter for stage.
func (r *Recorder) ObserveAttemptFailure(stage string) {
	if r == nil {
		return
	}
	r.attemptFailures.WithLabelValues(stage).Inc()
}

// ObserveExtractionMiss increments the miss counter for reason.
func (r *Recorder) ObserveExtractionMiss(reason string) {
	if r == nil {
		return
	}
	r.extractionMisses.WithLabelValues(reason).Inc()
}

// ObservePublished records a successful cycle.
func (r *Recorder) ObservePublished(at time.Time, sections int, size int64) {
	if r == nil {
		return
	}
	r.cyclesTotal.WithLabelValues("succeeded").Inc()
	r.documentBytes.Set(float64(size))
	r.sectionsExtracted.Set(float64(sections))
	r.lastSuccessUnixTime.Set(float64(at.Unix()))
}

// ObserveCycleFailed records a cycle that exhausted its attempts.
func (r *Recorder) ObserveCycleFailed() {
	if r == nil {
		return
	}
	r.cyclesTotal.WithLabelValues("failed").Inc()
}

// WriteTextfile writes every collector to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
