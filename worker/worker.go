package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/offlinecache/manifest"
	"github.com/jonwraymond/offlinecache/notify"
	"github.com/jonwraymond/offlinecache/observe"
	"github.com/jonwraymond/offlinecache/store"
)

// DefaultPrefix is the namespace prefix used when none is configured.
const DefaultPrefix = "offline-cache"

// Config configures a Worker.
type Config struct {
	// Prefix is the namespace prefix for the whole deployment.
	// Default: DefaultPrefix.
	Prefix string

	// ManifestURL is the manifest's well-known absolute location.
	// Required unless a Fetcher is supplied via WithFetcher.
	ManifestURL string

	// Root is the deployment root assets resolve against.
	// Default: the manifest URL's origin.
	Root string

	// RootDocument is the app-shell root path. Default: "/".
	RootDocument string

	// OfflineDocument is the offline fallback document path.
	// Default: "/404.html".
	OfflineDocument string

	// WebManifest is the manifest-of-manifest path.
	// Default: "/manifest.webmanifest".
	WebManifest string

	// Icon is the site icon path, which gets an empty-response
	// allowance instead of an error when unreachable and uncached.
	// Default: "/favicon.ico".
	Icon string

	// FetchConcurrency bounds concurrent pre-cache fetches.
	// Default: 8.
	FetchConcurrency int

	// Fetch configures optional retry/timeout on resource fetches.
	// Zero value means one attempt, no timeout.
	Fetch FetchPolicy
}

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.RootDocument == "" {
		c.RootDocument = "/"
	}
	if c.OfflineDocument == "" {
		c.OfflineDocument = "/404.html"
	}
	if c.WebManifest == "" {
		c.WebManifest = "/manifest.webmanifest"
	}
	if c.Icon == "" {
		c.Icon = "/favicon.ico"
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 8
	}
}

// Worker is the offline cache core. The hosting runtime drives it
// through Install, Activate, HandleRequest and HandleMessage.
type Worker struct {
	cfg         Config
	store       store.Store
	fetcher     *manifest.Fetcher
	client      *http.Client
	broadcaster notify.Broadcaster
	mw          *observe.Middleware
	logger      observe.Logger
	metrics     observe.Metrics
	tasks       TaskSet
	updates     singleflight.Group
	skipWaiting func(context.Context)
	lastCheck   atomic.Int64 // unix nanos of the last successful update check
	root        *url.URL
}

// Option configures a Worker.
type Option func(*Worker)

// WithFetcher overrides the manifest fetcher built from Config.
func WithFetcher(f *manifest.Fetcher) Option {
	return func(w *Worker) { w.fetcher = f }
}

// WithHTTPClient sets the client used for resource fetches.
// Default: http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Worker) { w.client = c }
}

// WithBroadcaster sets the update-notification broadcaster.
// Default: notify.NopBroadcaster.
func WithBroadcaster(b notify.Broadcaster) Option {
	return func(w *Worker) { w.broadcaster = b }
}

// WithMiddleware sets the observability middleware.
// Default: observe.NopMiddleware.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(w *Worker) { w.mw = mw }
}

// WithSkipWaiting sets the host callback invoked when a SKIP_WAITING
// message arrives. When unset, the worker activates itself.
func WithSkipWaiting(fn func(context.Context)) Option {
	return func(w *Worker) { w.skipWaiting = fn }
}

// New creates a Worker over the given resource store.
func New(cfg Config, st store.Store, opts ...Option) (*Worker, error) {
	if st == nil {
		return nil, ErrNilStore
	}
	cfg.applyDefaults()

	w := &Worker{
		cfg:         cfg,
		store:       st,
		client:      http.DefaultClient,
		broadcaster: notify.NopBroadcaster{},
		mw:          observe.NopMiddleware(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.fetcher == nil {
		if cfg.ManifestURL == "" {
			return nil, ErrMissingManifestURL
		}
		f, err := manifest.NewFetcher(cfg.ManifestURL, cfg.Root,
			manifest.WithHTTPClient(w.client))
		if err != nil {
			return nil, fmt.Errorf("worker: %w", err)
		}
		w.fetcher = f
	}
	w.root = w.fetcher.Root()
	w.logger = w.mw.Logger()
	w.metrics = w.mw.Metrics()

	return w, nil
}

// Tasks exposes the tracked background task set. Hosts must wait on it
// before recycling the worker; tests use it to observe refreshes.
func (w *Worker) Tasks() *TaskSet { return &w.tasks }

// LastCheck returns the completion time of the last successful update
// check, or the zero time if none succeeded yet.
func (w *Worker) LastCheck() time.Time {
	nanos := w.lastCheck.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// CurrentVersion resolves the installed version from the store.
func (w *Worker) CurrentVersion(ctx context.Context) (string, bool, error) {
	return store.CurrentVersion(ctx, w.store, w.cfg.Prefix)
}

// Install pre-caches the current deployment. Manifest failure is
// non-fatal: the worker installs anyway, serving whatever was
// previously cached.
func (w *Worker) Install(ctx context.Context) error {
	return w.mw.Run(ctx, observe.WorkerMeta{Op: "install", Scope: w.cfg.Prefix}, func(ctx context.Context) error {
		m, err := w.fetcher.Fetch(ctx)
		if err != nil {
			w.logger.Warn(ctx, "manifest unavailable at install, keeping prior state",
				observe.Field{Key: "error", Value: err.Error()})
			return nil
		}

		key := w.fundamentalsKey(m.Version)
		if err := w.store.EnsureNamespace(ctx, key); err != nil {
			w.logger.Warn(ctx, "cannot create fundamentals namespace",
				observe.Field{Key: "namespace", Value: key.String()},
				observe.Field{Key: "error", Value: err.Error()})
			return nil
		}

		stored, failed := w.precacheInto(ctx, key, w.candidateSet(m.Assets))
		w.metrics.RecordPrecache(ctx, stored, failed)
		w.logger.Info(ctx, "install pre-cache finished",
			observe.Field{Key: "version", Value: m.Version},
			observe.Field{Key: "stored", Value: stored},
			observe.Field{Key: "failed", Value: failed})
		return nil
	})
}

// Activate garbage-collects namespaces left behind by superseded
// versions. Idempotent.
func (w *Worker) Activate(ctx context.Context) error {
	return w.mw.Run(ctx, observe.WorkerMeta{Op: "activate", Scope: w.cfg.Prefix}, func(ctx context.Context) error {
		version, ok, err := w.CurrentVersion(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		w.collectGarbage(ctx, version)
		return nil
	})
}

// HandleMessage processes an inbound control message.
func (w *Worker) HandleMessage(ctx context.Context, msg notify.Message) error {
	switch msg.Type {
	case notify.TypeSkipWaiting:
		if w.skipWaiting != nil {
			w.skipWaiting(ctx)
			return nil
		}
		return w.Activate(ctx)
	case notify.TypeCheckForUpdate:
		_, err := w.CheckForUpdate(ctx)
		return err
	default:
		return fmt.Errorf("%w: %q", notify.ErrUnknownType, msg.Type)
	}
}

// fundamentalsKey builds the fundamentals namespace key for a version.
func (w *Worker) fundamentalsKey(version string) store.Key {
	return store.Key{Prefix: w.cfg.Prefix, Version: version, Role: store.RoleFundamentals}
}

// pagesKey builds the pages namespace key for a version.
func (w *Worker) pagesKey(version string) store.Key {
	return store.Key{Prefix: w.cfg.Prefix, Version: version, Role: store.RolePages}
}

// appShell returns the fixed always-needed paths, normalized.
func (w *Worker) appShell() []string {
	return manifest.Normalize(w.root, []string{
		w.cfg.RootDocument,
		w.cfg.OfflineDocument,
		w.cfg.WebManifest,
		w.cfg.Icon,
	})
}

// candidateSet merges the app shell with the manifest assets. Assets
// arrive already normalized; the merge is an explicit list append with
// deduplication preserving first occurrence.
func (w *Worker) candidateSet(assets []string) []string {
	merged := make([]string, 0, len(assets)+4)
	merged = append(merged, w.appShell()...)
	merged = append(merged, assets...)

	out := merged[:0]
	seen := make(map[string]struct{}, len(merged))
	for _, u := range merged {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
