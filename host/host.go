package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonwraymond/offlinecache/health"
	"github.com/jonwraymond/offlinecache/notify"
	"github.com/jonwraymond/offlinecache/observe"
	"github.com/jonwraymond/offlinecache/worker"
)

// Sentinel errors for host construction.
var (
	ErrNilWorker       = errors.New("host: worker is required")
	ErrMissingUpstream = errors.New("host: upstream URL is required")
)

// ControlPrefix is the path prefix reserved for control endpoints.
const ControlPrefix = "/_offline"

// Config configures a Host.
type Config struct {
	// Listen is the bind address. Default: ":8380".
	Listen string

	// Upstream is the origin that receives requests the worker does
	// not intercept. Required.
	Upstream *url.URL

	// ShutdownGrace bounds Shutdown, including the wait for the
	// worker's pending background tasks. Default: 10s.
	ShutdownGrace time.Duration
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8380"
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 10 * time.Second
	}
}

// Host serves an origin through the worker's caching dispatch.
type Host struct {
	cfg    Config
	worker *worker.Worker
	hub    *notify.Hub
	agg    *health.Aggregator
	logger observe.Logger
	proxy  http.Handler
	router chi.Router
	server *http.Server
}

// Option configures a Host.
type Option func(*Host)

// WithHub sets the notification hub bridged to the SSE endpoint. The
// same hub should be the worker's broadcaster. Default: a fresh hub.
func WithHub(hub *notify.Hub) Option {
	return func(h *Host) { h.hub = hub }
}

// WithHealth sets the health aggregator mounted under ControlPrefix.
// Default: an aggregator with no checkers.
func WithHealth(agg *health.Aggregator) Option {
	return func(h *Host) { h.agg = agg }
}

// WithLogger sets the host's logger. Default: discard.
func WithLogger(logger observe.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// New creates a Host around a worker.
func New(cfg Config, w *worker.Worker, opts ...Option) (*Host, error) {
	if w == nil {
		return nil, ErrNilWorker
	}
	if cfg.Upstream == nil {
		return nil, ErrMissingUpstream
	}
	cfg.applyDefaults()

	h := &Host{
		cfg:    cfg,
		worker: w,
		logger: observe.NopLogger(),
		proxy:  httputil.NewSingleHostReverseProxy(cfg.Upstream),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.hub == nil {
		h.hub = notify.NewHub()
	}
	if h.agg == nil {
		h.agg = health.NewAggregator()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route(ControlPrefix, func(r chi.Router) {
		health.Mount(r, h.agg)
		r.Post("/message", h.handleMessage)
		r.Get("/events", h.handleEvents)
		r.Get("/version", h.handleVersion)
	})
	r.Handle("/*", http.HandlerFunc(h.serve))
	h.router = r

	return h, nil
}

// Handler returns the host's HTTP handler.
func (h *Host) Handler() http.Handler { return h.router }

// Hub returns the notification hub bridged to the SSE endpoint.
func (h *Host) Hub() *notify.Hub { return h.hub }

// Start installs and activates the worker, then serves until ctx is
// cancelled or the listener fails.
func (h *Host) Start(ctx context.Context) error {
	if err := h.worker.Install(ctx); err != nil {
		return fmt.Errorf("host: install: %w", err)
	}
	if err := h.worker.Activate(ctx); err != nil {
		return fmt.Errorf("host: activate: %w", err)
	}

	h.server = &http.Server{
		Addr:              h.cfg.Listen,
		Handler:           h.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info(ctx, "host listening", observe.Field{Key: "addr", Value: h.cfg.Listen})
		errCh <- h.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return h.Shutdown(context.WithoutCancel(ctx))
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("host: serve: %w", err)
	}
}

// Shutdown stops the server and waits for the worker's pending
// background tasks, bounded by the configured grace.
func (h *Host) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.ShutdownGrace)
	defer cancel()

	var errs []error
	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("host: server shutdown: %w", err))
		}
	}
	if err := h.worker.Tasks().Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("host: pending tasks: %w", err))
	}
	return errors.Join(errs...)
}

// serve routes one request through the worker, proxying upstream when
// the worker declines it.
func (h *Host) serve(w http.ResponseWriter, r *http.Request) {
	resp, intercepted := h.worker.HandleRequest(r.Context(), r)
	if !intercepted {
		h.proxy.ServeHTTP(w, r)
		return
	}

	header := w.Header()
	for k, vs := range resp.Header {
		header[k] = vs
	}
	header.Set("X-Served-By", string(resp.Source))
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
