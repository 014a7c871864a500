// Package collyfetcher implements menu.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/lunchmenu/internal/fetcher"
	"github.com/JakeFAU/lunchmenu/internal/menu"
)

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements menu.Fetcher using the Colly collector.
// It performs exactly one GET per call and never retries. Each call gets its own
// collector and HTTP client; only the transport is shared.
type Fetcher struct {
	cfg       Config
	transport *http.Transport
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = fetcher.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, request menu.FetchRequest) (menu.FetchResponse, error) {
	var (
		result   menu.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx, request)
	f.configureCollectorHooks(collector, start, &result, &fetchErr)

	if err := runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return menu.FetchResponse{}, &menu.FetchError{URL: request.URL, StatusCode: result.StatusCode, Err: err}
	}
	if result.StatusCode < http.StatusOK || result.StatusCode >= http.StatusMultipleChoices {
		return menu.FetchResponse{}, &menu.FetchError{
			URL:        request.URL,
			StatusCode: result.StatusCode,
			Err:        errStatus(result.StatusCode),
		}
	}
	return result, nil
}

// buildCollector returns a synchronous collector whose requests are bound to ctx.
func (f *Fetcher) buildCollector(ctx context.Context, request menu.FetchRequest) *colly.Collector {
	collector := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.UserAgent(f.cfg.UserAgent),
		colly.StdlibContext(ctx),
		// Non-2xx bodies reach OnResponse so the status check happens in one place.
		colly.ParseHTTPErrorResponse(),
	)
	collector.WithTransport(f.transport)

	timeout := request.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}
	collector.SetRequestTimeout(timeout)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *menu.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		for key, values := range fetcher.BrowserHeaders() {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = menu.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

// runCollector visits url on the calling goroutine. Cancelling ctx aborts the request
// inside colly, so the hooks have finished by the time it returns.
func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	err := collector.Visit(url)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return err
	}
	return *fetchErr
}

type errStatus int

func (e errStatus) Error() string {
	return http.StatusText(int(e))
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
