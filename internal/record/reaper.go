package record

import (
	"context"
	"log/slog"
	"time"
)

// RunReaper periodically evicts abandoned sessions older than maxAge until
// ctx is canceled. Sessions that are mid-finalize are never evicted. Intended
// to be run as a background goroutine when session expiry is enabled.
//
// onEvict, when non-nil, receives the number of sessions each sweep removed
// so the caller can keep its session accounting in step with the reaper.
func (st *Store) RunReaper(ctx context.Context, interval, maxAge time.Duration, onEvict func(evicted int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("session reaper running", "interval", interval, "max_age", maxAge)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(maxAge); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}
