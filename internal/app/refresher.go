package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Refresher re-warms the catalog caches on a fixed interval so the grid
// converges on store state without operator action. A tick is skipped while
// any terminal is in form mode; it resumes once control returns to the grid.
type Refresher struct {
	catalog  *CatalogService
	interval time.Duration
	skip     func() bool
	workers  int64
	log      zerolog.Logger
}

func NewRefresher(c *CatalogService, interval time.Duration, skip func() bool, workers int, log zerolog.Logger) *Refresher {
	if workers <= 0 {
		workers = 2
	}
	return &Refresher{catalog: c, interval: interval, skip: skip, workers: int64(workers), log: log}
}

// Run blocks until ctx is canceled.
func (r *Refresher) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if r.skip != nil && r.skip() {
				r.log.Debug().Msg("catalog refresh skipped, terminal in form mode")
				continue
			}
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	sem := semaphore.NewWeighted(r.workers)
	var wg sync.WaitGroup

	warm := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"rooms", func(ctx context.Context) error {
			r.catalog.InvalidateRooms(ctx)
			_, err := r.catalog.RoomsByFloor(ctx)
			return err
		}},
		{"snack_items", func(ctx context.Context) error {
			r.catalog.InvalidateSnacks(ctx)
			_, err := r.catalog.SnackItems(ctx)
			return err
		}},
		{"snack_categories", func(ctx context.Context) error {
			_, err := r.catalog.SnackCategories(ctx)
			return err
		}},
	}

	for _, w := range warm {
		w := w
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			if err := w.fn(ctx); err != nil {
				r.log.Warn().Str("catalog", w.name).Err(err).Msg("refresh failed")
			}
		}()
	}
	wg.Wait()
}
