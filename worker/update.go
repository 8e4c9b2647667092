package worker

import (
	"context"
	"time"

	"github.com/jonwraymond/offlinecache/notify"
	"github.com/jonwraymond/offlinecache/observe"
)

// UpdateResult reports the outcome of an update check.
type UpdateResult struct {
	// Updated is true when a new version was installed.
	Updated bool

	// Version is the manifest version the check observed.
	Version string
}

// CheckForUpdate fetches the manifest and, when its version differs
// from the installed one, pre-caches the new version and collects the
// old. Concurrent calls collapse into a single check. A manifest
// failure aborts the check with no mutation; equal versions are a
// no-op.
func (w *Worker) CheckForUpdate(ctx context.Context) (UpdateResult, error) {
	v, err, _ := w.updates.Do("update-check", func() (any, error) {
		return w.checkForUpdate(ctx)
	})
	if err != nil {
		return UpdateResult{}, err
	}
	return v.(UpdateResult), nil
}

func (w *Worker) checkForUpdate(ctx context.Context) (UpdateResult, error) {
	start := time.Now()
	var result UpdateResult

	err := w.mw.Run(ctx, observe.WorkerMeta{Op: "update-check", Scope: w.cfg.Prefix}, func(ctx context.Context) error {
		m, err := w.fetcher.Fetch(ctx)
		if err != nil {
			return err
		}
		result.Version = m.Version

		installed, ok, err := w.CurrentVersion(ctx)
		if err != nil {
			return err
		}
		if ok && installed == m.Version {
			return nil
		}

		fundamentals := w.fundamentalsKey(m.Version)
		if err := w.store.EnsureNamespace(ctx, fundamentals); err != nil {
			return err
		}

		stored, failed := w.precacheInto(ctx, fundamentals, w.candidateSet(m.Assets))
		w.metrics.RecordPrecache(ctx, stored, failed)

		// The pages namespace starts empty and fills as the new version
		// serves traffic.
		if err := w.store.EnsureNamespace(ctx, w.pagesKey(m.Version)); err != nil {
			return err
		}

		w.collectGarbage(ctx, m.Version)
		w.broadcaster.Broadcast(ctx, notify.Message{
			Type:    notify.TypeNewVersionAvailable,
			Version: m.Version,
		})

		w.logger.Info(ctx, "new version installed",
			field("version", m.Version),
			field("previous", installed),
			field("stored", stored),
			field("failed", failed))
		result.Updated = true
		return nil
	})

	w.metrics.RecordUpdateCheck(ctx, result.Updated, time.Since(start), err)
	if err == nil {
		w.lastCheck.Store(time.Now().UnixNano())
	}
	return result, err
}

// collectGarbage deletes every namespace of this deployment whose
// version is not keep. Deletion is idempotent; a failing delete is
// logged and retried on the next activation or update.
func (w *Worker) collectGarbage(ctx context.Context, keep string) {
	keys, err := w.store.Namespaces(ctx)
	if err != nil {
		w.logger.Warn(ctx, "garbage collection cannot list namespaces",
			field("error", err.Error()))
		return
	}

	for _, k := range keys {
		// Namespaces under other prefixes are not ours to manage.
		stale := k.Prefix == w.cfg.Prefix && k.Version != keep
		if !stale {
			continue
		}
		if err := w.store.DeleteNamespace(ctx, k); err != nil {
			w.logger.Warn(ctx, "garbage collection delete failed",
				field("namespace", k.String()), field("error", err.Error()))
			continue
		}
		w.logger.Info(ctx, "collected stale namespace",
			field("namespace", k.String()), field("keep", keep))
	}
}
