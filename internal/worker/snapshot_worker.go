package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/store"
)

const snapshotInterval = 5 * time.Minute

// SnapshotWorker periodically persists resource slice data to Redis so a
// restarted gateway serves catalogs before its first upstream round trip.
type SnapshotWorker struct {
	stores *store.Stores
	log    zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(stores *store.Stores, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		stores: stores,
		log:    log.With().Str("component", "snapshot_worker").Logger(),
	}
}

// Start begins the periodic snapshot loop. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final snapshot on the way out.
			if err := w.stores.Snapshot(context.Background()); err != nil {
				w.log.Warn().Err(err).Msg("Final snapshot failed")
			}
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if err := w.stores.Snapshot(ctx); err != nil {
				w.log.Warn().Err(err).Msg("Snapshot failed")
			}
		}
	}
}
