package worker

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/offlinecache/observe"
	"github.com/jonwraymond/offlinecache/store"
)

// FetchPolicy configures optional retry and timeout on resource
// fetches. The protocol itself defines neither, so the zero value
// (one attempt, no timeout) is the default.
type FetchPolicy struct {
	// Attempts is the total number of attempts per resource.
	// Values below 1 mean 1.
	Attempts int

	// Delay is the pause between attempts.
	Delay time.Duration

	// Timeout bounds a single attempt. Zero means no timeout.
	Timeout time.Duration
}

func (p FetchPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// fetch performs a GET for the given absolute URL and snapshots the
// response. A non-2xx response is still a successful fetch at the
// transport level; callers decide whether to store it.
func (w *Worker) fetch(ctx context.Context, rawurl string, bypassCache bool) (*store.Entry, error) {
	var (
		entry *store.Entry
		err   error
	)
	for attempt := 1; ; attempt++ {
		entry, err = w.fetchOnce(ctx, rawurl, bypassCache)
		if err == nil || attempt >= w.cfg.Fetch.attempts() {
			return entry, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.cfg.Fetch.Delay):
		}
	}
}

func (w *Worker) fetchOnce(ctx context.Context, rawurl string, bypassCache bool) (*store.Entry, error) {
	if timeout := w.cfg.Fetch.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, err
	}
	if bypassCache {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &store.Entry{
		URL:        rawurl,
		Status:     resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		CapturedAt: time.Now(),
	}, nil
}

// isSuccess reports whether a snapshot is worth caching.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// mirror writes a snapshot into the current version's pages namespace.
// Best-effort: every failure is swallowed after logging, and a failed
// write never affects a response already in flight.
func (w *Worker) mirror(ctx context.Context, entry *store.Entry) {
	version, ok, err := w.CurrentVersion(ctx)
	if err != nil || !ok {
		return
	}

	key := w.pagesKey(version)
	if err := w.store.EnsureNamespace(ctx, key); err != nil {
		w.logger.Debug(ctx, "mirror: cannot ensure pages namespace",
			field("namespace", key.String()), field("error", err.Error()))
		return
	}
	if err := w.store.Put(ctx, key, entry); err != nil {
		w.logger.Debug(ctx, "mirror: write failed",
			field("url", entry.URL), field("error", err.Error()))
	}
}

func field(key string, value any) observe.Field { return observe.Field{Key: key, Value: value} }
