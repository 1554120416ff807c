package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// CacheSweeper periodically evicts expired entries from the in-process cache.
type CacheSweeper struct {
	cache    Sweeper
	interval time.Duration
	log      zerolog.Logger
}

// NewCacheSweeper creates a new CacheSweeper.
func NewCacheSweeper(cache Sweeper, interval time.Duration, log zerolog.Logger) *CacheSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheSweeper{
		cache:    cache,
		interval: interval,
		log:      log.With().Str("component", "cache_sweeper").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *CacheSweeper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *CacheSweeper) sweep() {
	if n := w.cache.Sweep(); n > 0 {
		w.log.Debug().Int("evicted", n).Msg("Expired cache entries removed")
	}
}
