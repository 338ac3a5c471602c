package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// LessonStore owns the lesson detail slice. The session controller keeps its
// own private shuffled copy; this slice only mirrors the last fetched lesson
// for browsing views, with correct references stripped.
type LessonStore struct {
	api    *upstream.Client
	detail Slice[*model.Lesson]
	log    zerolog.Logger
}

// NewLessonStore creates a LessonStore.
func NewLessonStore(api *upstream.Client, log zerolog.Logger) *LessonStore {
	return &LessonStore{
		api: api,
		log: log.With().Str("component", "lesson_store").Logger(),
	}
}

// FetchByID loads one lesson through the three-phase cycle.
func (st *LessonStore) FetchByID(ctx context.Context, id string) (*model.Lesson, error) {
	seq := st.detail.Begin()
	lesson, err := st.api.GetLesson(ctx, id)
	if err != nil {
		st.detail.Reject(seq, err)
		return nil, err
	}
	sanitized := sanitizeLesson(lesson)
	if !st.detail.Resolve(seq, sanitized) {
		st.log.Debug().Str("lesson_id", id).Msg("Stale lesson resolution discarded")
	}
	return sanitized, nil
}

// DetailState exposes the detail slice tuple.
func (st *LessonStore) DetailState() State[*model.Lesson] {
	return st.detail.State()
}

// sanitizeLesson strips correct-answer references before anything leaves the
// data layer.
func sanitizeLesson(lesson *model.Lesson) *model.Lesson {
	out := *lesson
	out.Questions = make([]model.Question, len(lesson.Questions))
	for i, q := range lesson.Questions {
		q.CorrectAnswer = ""
		out.Questions[i] = q
	}
	return &out
}
