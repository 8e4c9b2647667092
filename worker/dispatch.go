package worker

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/jonwraymond/offlinecache/store"
)

// Strategy names how an intercepted request is routed.
type Strategy string

const (
	// StrategyPassThrough leaves the request to default network handling.
	StrategyPassThrough Strategy = "pass-through"

	// StrategyNetworkFirst prefers a live response, falling back to the
	// cache and then the app shell.
	StrategyNetworkFirst Strategy = "network-first"

	// StrategyCacheFirst prefers a stored response and refreshes it in
	// the background.
	StrategyCacheFirst Strategy = "cache-first"
)

// Source names what produced a response.
type Source string

const (
	SourceNetwork     Source = "network"
	SourceCache       Source = "cache"
	SourceAppShell    Source = "app-shell"
	SourceSynthesized Source = "synthesized"
)

// Response is what the worker hands back to its host for an
// intercepted request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Source Source
}

// HandleRequest routes an intercepted request. The second return is
// false when the request is not intercepted at all (non-GET, non-HTTP
// scheme) and must fall through to default network handling.
func (w *Worker) HandleRequest(ctx context.Context, r *http.Request) (*Response, bool) {
	strategy := w.classify(r)
	if strategy == StrategyPassThrough {
		return nil, false
	}

	start := time.Now()
	target := w.requestURL(r)

	var resp *Response
	switch strategy {
	case StrategyNetworkFirst:
		// Manifest fetches are already the update mechanism; only a true
		// navigation doubles as the heartbeat.
		if !w.isManifest(r) && w.isNavigation(r) {
			// Non-blocking; concurrent triggers collapse into one check.
			bg := context.WithoutCancel(ctx)
			w.tasks.Go(func() {
				_, _ = w.CheckForUpdate(bg)
			})
		}
		resp = w.networkFirst(ctx, target, r)
	default:
		resp = w.cacheFirst(ctx, target, r)
	}

	w.metrics.RecordRequest(ctx, string(strategy), string(resp.Source), time.Since(start))
	return resp, true
}

// classify implements the dispatch state machine.
func (w *Worker) classify(r *http.Request) Strategy {
	if r.Method != http.MethodGet {
		return StrategyPassThrough
	}
	if r.URL.IsAbs() && r.URL.Scheme != "http" && r.URL.Scheme != "https" {
		return StrategyPassThrough
	}
	if w.isManifest(r) {
		return StrategyNetworkFirst
	}
	if w.isNavigation(r) {
		return StrategyNetworkFirst
	}
	return StrategyCacheFirst
}

// requestURL normalizes the request to the absolute identity entries
// are keyed by.
func (w *Worker) requestURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	u := *r.URL
	u.Scheme = w.root.Scheme
	u.Host = w.root.Host
	return u.String()
}

func (w *Worker) isManifest(r *http.Request) bool {
	return w.requestURL(r) == w.fetcher.Location()
}

// isNavigation reports whether the request is a page navigation or
// declares an HTML preference.
func (w *Worker) isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true, ".avif": true,
}

// isImageClass reports whether the request should get empty-content
// semantics when unreachable and uncached.
func (w *Worker) isImageClass(r *http.Request, target string) bool {
	if w.isIcon(target) {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(path.Ext(r.URL.Path))]
}

func (w *Worker) isIcon(target string) bool {
	icons := manifestNormalize(w.root, w.cfg.Icon)
	return target == icons
}

// networkFirst attempts a live fetch, mirroring successes into the
// pages namespace. On network failure it falls back to an exact cache
// match, then the app shell, then a synthesized offline document.
func (w *Worker) networkFirst(ctx context.Context, target string, r *http.Request) *Response {
	entry, err := w.fetch(ctx, target, false)
	if err == nil {
		if isSuccess(entry.Status) {
			w.mirror(ctx, entry)
		}
		return responseFrom(entry, SourceNetwork)
	}

	w.logger.Debug(ctx, "network-first: network unavailable",
		field("url", target), field("error", err.Error()))

	version, ok, verr := w.CurrentVersion(ctx)
	if verr == nil && ok {
		if hit := w.lookup(ctx, version, target); hit != nil {
			return responseFrom(hit, SourceCache)
		}
		if shell := w.appShellFallback(ctx, version); shell != nil {
			return responseFrom(shell, SourceAppShell)
		}
	}

	return synthesizedOffline()
}

// cacheFirst returns a stored match immediately when one exists, and
// always starts a tracked background refresh whose success is mirrored
// for next time. Without a match it awaits the network attempt; when
// both are unavailable it synthesizes a differentiated empty response.
func (w *Worker) cacheFirst(ctx context.Context, target string, r *http.Request) *Response {
	var hit *store.Entry
	version, ok, err := w.CurrentVersion(ctx)
	if err == nil && ok {
		hit = w.lookup(ctx, version, target)
	}

	type fetched struct {
		entry *store.Entry
		err   error
	}
	result := make(chan fetched, 1)
	bg := context.WithoutCancel(ctx)
	w.tasks.Go(func() {
		entry, err := w.fetch(bg, target, false)
		if err == nil && isSuccess(entry.Status) {
			w.mirror(bg, entry)
		}
		result <- fetched{entry, err}
	})

	if hit != nil {
		// Cache wins if present; the refresh outcome is never awaited.
		return responseFrom(hit, SourceCache)
	}

	got := <-result
	if got.err == nil {
		return responseFrom(got.entry, SourceNetwork)
	}

	w.logger.Debug(ctx, "cache-first: no cache and no network",
		field("url", target), field("error", got.err.Error()))

	if w.isImageClass(r, target) {
		return synthesizedEmpty(http.StatusNoContent)
	}
	return synthesizedEmpty(http.StatusServiceUnavailable)
}

// lookup searches the current version's namespaces for an exact match,
// freshest first: pages, then fundamentals.
func (w *Worker) lookup(ctx context.Context, version, target string) *store.Entry {
	if entry, found := w.store.Get(ctx, w.pagesKey(version), target); found {
		return entry
	}
	if entry, found := w.store.Get(ctx, w.fundamentalsKey(version), target); found {
		return entry
	}
	return nil
}

// appShellFallback returns the cached root document or, failing that,
// the offline document, in that preference order.
func (w *Worker) appShellFallback(ctx context.Context, version string) *store.Entry {
	for _, p := range []string{w.cfg.RootDocument, w.cfg.OfflineDocument} {
		target := manifestNormalize(w.root, p)
		if entry, found := w.store.Get(ctx, w.fundamentalsKey(version), target); found {
			return entry
		}
		if entry, found := w.store.Get(ctx, w.pagesKey(version), target); found {
			return entry
		}
	}
	return nil
}

func responseFrom(entry *store.Entry, source Source) *Response {
	return &Response{
		Status: entry.Status,
		Header: entry.Header.Clone(),
		Body:   entry.Body,
		Source: source,
	}
}
