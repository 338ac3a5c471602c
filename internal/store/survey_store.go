package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// SurveyStore owns the survey resource slices.
type SurveyStore struct {
	api    *upstream.Client
	list   Slice[[]model.Survey]
	detail Slice[*model.Survey]
	log    zerolog.Logger
}

// NewSurveyStore creates a SurveyStore.
func NewSurveyStore(api *upstream.Client, log zerolog.Logger) *SurveyStore {
	return &SurveyStore{
		api: api,
		log: log.With().Str("component", "survey_store").Logger(),
	}
}

// FetchList loads all surveys through the three-phase cycle.
func (st *SurveyStore) FetchList(ctx context.Context) ([]model.Survey, error) {
	seq := st.list.Begin()
	surveys, err := st.api.ListSurveys(ctx)
	if err != nil {
		st.list.Reject(seq, err)
		return nil, err
	}
	if !st.list.Resolve(seq, surveys) {
		st.log.Debug().Msg("Stale survey list resolution discarded")
	}
	return surveys, nil
}

// FetchByID loads one survey.
func (st *SurveyStore) FetchByID(ctx context.Context, id string) (*model.Survey, error) {
	seq := st.detail.Begin()
	survey, err := st.api.GetSurvey(ctx, id)
	if err != nil {
		st.detail.Reject(seq, err)
		return nil, err
	}
	st.detail.Resolve(seq, survey)
	return survey, nil
}

// SubmitResponse posts a filled survey, then refreshes the detail slice with
// the server's view of it. A failed submit keeps the loaded survey on screen;
// only the error changes.
func (st *SurveyStore) SubmitResponse(ctx context.Context, sub model.SurveySubmission) error {
	seq := st.detail.Begin()
	if err := st.api.SubmitSurvey(ctx, sub); err != nil {
		st.detail.RejectKeep(seq, err)
		return err
	}
	survey, err := st.api.GetSurvey(ctx, sub.SurveyID)
	if err != nil {
		st.detail.RejectKeep(seq, err)
		return err
	}
	st.detail.Resolve(seq, survey)
	return nil
}

// ListState exposes the list slice tuple.
func (st *SurveyStore) ListState() State[[]model.Survey] {
	return st.list.State()
}

// DetailState exposes the detail slice tuple.
func (st *SurveyStore) DetailState() State[*model.Survey] {
	return st.detail.State()
}

// seedList is used by snapshot rehydration.
func (st *SurveyStore) seedList(surveys []model.Survey) {
	st.list.Seed(surveys)
}

func (st *SurveyStore) listData() []model.Survey {
	return st.list.State().Data
}
