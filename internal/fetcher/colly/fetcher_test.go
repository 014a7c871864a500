package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/lunchmenu/internal/fetcher"
	"github.com/JakeFAU/lunchmenu/internal/menu"
)

func TestFetchSendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("<p>Monday Lunch</p>"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: time.Second})
	resp, err := f.Fetch(context.Background(), menu.FetchRequest{URL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<p>Monday Lunch</p>", string(resp.Body))
	assert.Equal(t, fetcher.DefaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "en-US,en;q=0.5", got.Get("Accept-Language"))
	assert.Equal(t, "1", got.Get("Upgrade-Insecure-Requests"))
	assert.Contains(t, got.Get("Accept"), "text/html")
}

func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{})
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), menu.FetchRequest{URL: srv.URL})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{}).Fetch(context.Background(), menu.FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var fetchErr *menu.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Equal(t, srv.URL, fetchErr.URL)
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte("late"))
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := New(Config{}).Fetch(context.Background(), menu.FetchRequest{URL: srv.URL, Timeout: 50 * time.Millisecond})
	var fetchErr *menu.FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
}

func TestFetchUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New(Config{Timeout: time.Second}).Fetch(context.Background(), menu.FetchRequest{URL: addr})
	var fetchErr *menu.FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
	assert.Zero(t, fetchErr.StatusCode)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Fetch(ctx, menu.FetchRequest{URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
}

// Deadlines that expire mid-response must not leave a request running against
// the next fetch's collector. Run with -race.
func TestFetchDeadlineMidResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		select {
		case <-time.After(5 * time.Millisecond):
			_, _ = w.Write([]byte("<p>Monday Lunch</p>"))
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: time.Second})
	done := make(chan struct{})
	for worker := 0; worker < 4; worker++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 50; i++ {
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(3+i%3)*time.Millisecond)
				resp, err := f.Fetch(ctx, menu.FetchRequest{URL: srv.URL})
				cancel()
				if err != nil {
					var fetchErr *menu.FetchError
					assert.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
					continue
				}
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	for worker := 0; worker < 4; worker++ {
		<-done
	}
}

func TestBuildCollectorSettings(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", Timeout: time.Second})
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "fetch")
	collector := f.buildCollector(ctx, menu.FetchRequest{URL: "https://example.com"})
	assert.Equal(t, "coverage-agent", collector.UserAgent)
	assert.Equal(t, "fetch", collector.Context.Value(key{}))
	assert.True(t, collector.AllowURLRevisit)
	assert.True(t, collector.IgnoreRobotsTxt)
	assert.True(t, collector.ParseHTTPErrorResponse)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	var result menu.FetchResponse
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, time.Unix(0, 0), &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Equal(t, "keep-alive", collyReq.Headers.Get("Connection"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com")},
	})
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
