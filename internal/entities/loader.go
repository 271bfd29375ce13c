package entities

import (
	"context"
	"time"

	"crm_search_backend/platform/logger"
)

// Loader produces the full pool from a backing source.
type Loader interface {
	Name() string
	Load(ctx context.Context) (Data, error)
}

const defaultRefreshInterval = time.Minute

// Refresher periodically reloads the pool into a Store.
type Refresher struct {
	loader   Loader
	store    *Store
	log      *logger.Logger
	interval time.Duration
}

func NewRefresher(loader Loader, store *Store, log *logger.Logger, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &Refresher{loader: loader, store: store, log: log, interval: interval}
}

// Refresh loads once and swaps the pool when the content changed.
func (r *Refresher) Refresh(ctx context.Context) error {
	data, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}
	snap, changed := r.store.Replace(ctx, r.loader.Name(), data)
	if changed {
		r.log.PoolRefreshed(r.loader.Name(), snap.Version, len(snap.Leads), len(snap.Clients), len(snap.CustomDocuments))
	}
	return nil
}

// Run refreshes on every tick until ctx is done. The initial load is the
// caller's job so startup can fail fast.
func (r *Refresher) Run(ctx context.Context) {
	if r == nil || r.loader == nil {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Warn("entity pool refresh failed", "loader", r.loader.Name(), "error", err)
			}
		}
	}
}
