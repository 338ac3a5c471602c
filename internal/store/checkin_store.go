package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// CheckinStore owns the check-in resource slice.
type CheckinStore struct {
	api  *upstream.Client
	list Slice[[]model.Checkin]
	log  zerolog.Logger
}

// NewCheckinStore creates a CheckinStore.
func NewCheckinStore(api *upstream.Client, log zerolog.Logger) *CheckinStore {
	return &CheckinStore{
		api: api,
		log: log.With().Str("component", "checkin_store").Logger(),
	}
}

// FetchList loads the check-in history.
func (st *CheckinStore) FetchList(ctx context.Context) ([]model.Checkin, error) {
	seq := st.list.Begin()
	checkins, err := st.api.ListCheckins(ctx)
	if err != nil {
		st.list.Reject(seq, err)
		return nil, err
	}
	st.list.Resolve(seq, checkins)
	return checkins, nil
}

// Mark records today's check-in upstream and refreshes the list so streak
// and reward reflect the server's computation.
func (st *CheckinStore) Mark(ctx context.Context) (*model.Checkin, error) {
	marked, err := st.api.MarkCheckin(ctx)
	if err != nil {
		seq := st.list.Begin()
		st.list.RejectKeep(seq, err)
		return nil, err
	}
	if _, err := st.FetchList(ctx); err != nil {
		// The mark succeeded; a failed refresh only stales the list.
		st.log.Warn().Err(err).Msg("Check-in list refresh failed")
	}
	return marked, nil
}

// ListState exposes the list slice tuple.
func (st *CheckinStore) ListState() State[[]model.Checkin] {
	return st.list.State()
}

func (st *CheckinStore) seedList(checkins []model.Checkin) {
	st.list.Seed(checkins)
}

func (st *CheckinStore) listData() []model.Checkin {
	return st.list.State().Data
}
