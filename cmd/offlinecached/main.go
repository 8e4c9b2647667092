// Command offlinecached serves an origin through an offline-capable
// caching layer: pre-caching at startup, versioned cache dispatch per
// request, periodic update checks, and update notifications over SSE.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	appconfig "github.com/jonwraymond/offlinecache/config"
	"github.com/jonwraymond/offlinecache/health"
	"github.com/jonwraymond/offlinecache/host"
	"github.com/jonwraymond/offlinecache/manifest"
	"github.com/jonwraymond/offlinecache/notify"
	"github.com/jonwraymond/offlinecache/observe"
	"github.com/jonwraymond/offlinecache/store"
	"github.com/jonwraymond/offlinecache/worker"
)

type envConfig struct {
	ConfigPath     string        `env:"OFFLINECACHE_CONFIG"          envDefault:"offlinecache.yaml"`
	Listen         string        `env:"OFFLINECACHE_LISTEN"`
	UpdateInterval time.Duration `env:"OFFLINECACHE_UPDATE_INTERVAL" envDefault:"15m"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "offlinecached:", err)
		os.Exit(1)
	}
}

func run() error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := appconfig.Load(ctx, ec.ConfigPath, nil)
	if err != nil {
		return err
	}
	if ec.Listen != "" {
		cfg.Server.Listen = ec.Listen
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Telemetry.Tracing.Enabled,
			Exporter:  cfg.Telemetry.Tracing.Exporter,
			SamplePct: cfg.Telemetry.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Telemetry.Metrics.Enabled,
			Exporter: cfg.Telemetry.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: cfg.Telemetry.Logging.Enabled,
			Level:   cfg.Telemetry.Logging.Level,
		},
	})
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	logger := obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("middleware: %w", err)
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var fetcherOpts []manifest.FetcherOption
	if key := cfg.Manifest.SignatureKey; key != "" {
		fetcherOpts = append(fetcherOpts, manifest.WithKeyfunc(func(*jwt.Token) (any, error) {
			return []byte(key), nil
		}))
	}
	fetcher, err := manifest.NewFetcher(cfg.Manifest.URL, cfg.Manifest.Root, fetcherOpts...)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	hub := notify.NewHub()
	w, err := worker.New(worker.Config{
		Prefix:           cfg.Prefix,
		ManifestURL:      cfg.Manifest.URL,
		Root:             cfg.Manifest.Root,
		RootDocument:     cfg.AppShell.RootDocument,
		OfflineDocument:  cfg.AppShell.OfflineDocument,
		WebManifest:      cfg.AppShell.WebManifest,
		Icon:             cfg.AppShell.Icon,
		FetchConcurrency: cfg.Fetch.Concurrency,
		Fetch: worker.FetchPolicy{
			Attempts: cfg.Fetch.Attempts,
			Delay:    cfg.Fetch.Delay.Std(),
			Timeout:  cfg.Fetch.Timeout.Std(),
		},
	}, st,
		worker.WithFetcher(fetcher),
		worker.WithBroadcaster(hub),
		worker.WithMiddleware(mw),
	)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	agg := health.NewAggregator()
	agg.Register("store", health.NewStoreChecker(st))
	agg.Register("updates", health.NewUpdateRecencyChecker(w.LastCheck, 4*ec.UpdateInterval))

	upstream, err := upstreamURL(cfg)
	if err != nil {
		return err
	}
	h, err := host.New(host.Config{
		Listen:        cfg.Server.Listen,
		Upstream:      upstream,
		ShutdownGrace: cfg.Server.ShutdownGrace.Std(),
	}, w,
		host.WithHub(hub),
		host.WithHealth(agg),
		host.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	go updateLoop(ctx, w, logger, ec.UpdateInterval)

	logger.Info(ctx, "starting",
		observe.Field{Key: "listen", Value: cfg.Server.Listen},
		observe.Field{Key: "upstream", Value: upstream.String()},
		observe.Field{Key: "store", Value: cfg.Store.Driver})
	return h.Start(ctx)
}

func openStore(cfg *appconfig.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case appconfig.DriverSQLite:
		s, err := store.OpenSQLite(cfg.Store.Path,
			store.WithBusyTimeout(int(cfg.Store.BusyTimeout.Std().Milliseconds())),
			store.WithMkdirAll(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

func upstreamURL(cfg *appconfig.Config) (*url.URL, error) {
	raw := cfg.Server.Upstream
	if raw == "" {
		m, err := url.Parse(cfg.Manifest.URL)
		if err != nil {
			return nil, fmt.Errorf("manifest url: %w", err)
		}
		return &url.URL{Scheme: m.Scheme, Host: m.Host}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	return u, nil
}

// updateLoop checks for a new deployment on a fixed interval until ctx
// is cancelled. Navigations trigger additional checks on their own.
func updateLoop(ctx context.Context, w *worker.Worker, logger observe.Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := w.CheckForUpdate(ctx)
			if err != nil {
				logger.Warn(ctx, "scheduled update check failed",
					observe.Field{Key: "error", Value: err.Error()})
				continue
			}
			if result.Updated {
				logger.Info(ctx, "scheduled update installed",
					observe.Field{Key: "version", Value: result.Version})
			}
		}
	}
}
