package worker

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/offlinecache/store"
)

// precacheInto fetches every candidate URL and stores the successful
// responses under key. Fetches bypass intermediary caches. A failing
// item is counted and logged, never fatal: partial precache is the
// normal outcome on flaky networks.
func (w *Worker) precacheInto(ctx context.Context, key store.Key, urls []string) (stored, failed int) {
	var okCount, failCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.FetchConcurrency)

	for _, u := range urls {
		g.Go(func() error {
			entry, err := w.fetch(gctx, u, true)
			if err != nil {
				failCount.Add(1)
				w.logger.Debug(gctx, "precache fetch failed",
					field("url", u), field("error", err.Error()))
				return nil
			}
			if !isSuccess(entry.Status) {
				failCount.Add(1)
				w.logger.Debug(gctx, "precache rejected non-success",
					field("url", u), field("status", entry.Status))
				return nil
			}
			if err := w.store.Put(gctx, key, entry); err != nil {
				failCount.Add(1)
				w.logger.Warn(gctx, "precache store failed",
					field("url", u), field("error", err.Error()))
				return nil
			}
			okCount.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(okCount.Load()), int(failCount.Load())
}
