package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/config"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

const snapshotTTL = 24 * time.Hour

// Stores bundles every resource store behind one constructor so handlers and
// workers receive a single dependency.
type Stores struct {
	Lesson    *LessonStore
	Survey    *SurveyStore
	Checkin   *CheckinStore
	Package   *PackageStore
	Flashcard *FlashcardStore
	Topic     *TopicStore

	rdb *redis.Client
	log zerolog.Logger
}

// NewStores wires all resource stores against one upstream client.
func NewStores(api *upstream.Client, rdb *redis.Client, log zerolog.Logger) *Stores {
	return &Stores{
		Lesson:    NewLessonStore(api, log),
		Survey:    NewSurveyStore(api, log),
		Checkin:   NewCheckinStore(api, log),
		Package:   NewPackageStore(api, log),
		Flashcard: NewFlashcardStore(api, log),
		Topic:     NewTopicStore(api, log),
		rdb:       rdb,
		log:       log.With().Str("component", "stores").Logger(),
	}
}

// Snapshot persists the current list data of every snapshottable slice to
// Redis so a restart can serve catalogs before the first upstream round trip.
func (s *Stores) Snapshot(ctx context.Context) error {
	if err := snapshotSlice(ctx, s.rdb, "surveys", s.Survey.listData()); err != nil {
		return err
	}
	if err := snapshotSlice(ctx, s.rdb, "checkins", s.Checkin.listData()); err != nil {
		return err
	}
	if err := snapshotSlice(ctx, s.rdb, "packages", s.Package.listData()); err != nil {
		return err
	}
	if err := snapshotSlice(ctx, s.rdb, "flashcards", s.Flashcard.listData()); err != nil {
		return err
	}
	if err := snapshotSlice(ctx, s.rdb, "topics", s.Topic.listData()); err != nil {
		return err
	}
	return nil
}

// Rehydrate seeds list slices from their last snapshot. Missing or corrupt
// snapshots are skipped; the slice just starts empty.
func (s *Stores) Rehydrate(ctx context.Context) {
	rehydrateSlice(ctx, s.rdb, s.log, "surveys", s.Survey.seedList)
	rehydrateSlice(ctx, s.rdb, s.log, "checkins", s.Checkin.seedList)
	rehydrateSlice(ctx, s.rdb, s.log, "packages", s.Package.seedList)
	rehydrateSlice(ctx, s.rdb, s.log, "flashcards", s.Flashcard.seedList)
	rehydrateSlice(ctx, s.rdb, s.log, "topics", s.Topic.seedList)
}

func snapshotSlice[T any](ctx context.Context, rdb *redis.Client, domain string, data []T) error {
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, config.CacheKey.SliceSnapshotKey(domain), raw, snapshotTTL).Err()
}

func rehydrateSlice[T any](ctx context.Context, rdb *redis.Client, log zerolog.Logger, domain string, seed func([]T)) {
	raw, err := rdb.Get(ctx, config.CacheKey.SliceSnapshotKey(domain)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("slice", domain).Msg("Snapshot read failed")
		}
		return
	}
	var data []T
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Warn().Err(err).Str("slice", domain).Msg("Snapshot decode failed")
		return
	}
	seed(data)
	log.Info().Str("slice", domain).Int("items", len(data)).Msg("Slice rehydrated from snapshot")
}
