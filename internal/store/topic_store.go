package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// TopicStore owns the topic catalog slices.
type TopicStore struct {
	api    *upstream.Client
	list   Slice[[]model.Topic]
	detail Slice[*model.Topic]
	log    zerolog.Logger
}

// NewTopicStore creates a TopicStore.
func NewTopicStore(api *upstream.Client, log zerolog.Logger) *TopicStore {
	return &TopicStore{
		api: api,
		log: log.With().Str("component", "topic_store").Logger(),
	}
}

// FetchList loads all topics.
func (st *TopicStore) FetchList(ctx context.Context) ([]model.Topic, error) {
	seq := st.list.Begin()
	topics, err := st.api.ListTopics(ctx)
	if err != nil {
		st.list.Reject(seq, err)
		return nil, err
	}
	st.list.Resolve(seq, topics)
	return topics, nil
}

// FetchByID loads one topic.
func (st *TopicStore) FetchByID(ctx context.Context, id string) (*model.Topic, error) {
	seq := st.detail.Begin()
	topic, err := st.api.GetTopic(ctx, id)
	if err != nil {
		st.detail.Reject(seq, err)
		return nil, err
	}
	st.detail.Resolve(seq, topic)
	return topic, nil
}

// ListState exposes the list slice tuple.
func (st *TopicStore) ListState() State[[]model.Topic] {
	return st.list.State()
}

// DetailState exposes the detail slice tuple.
func (st *TopicStore) DetailState() State[*model.Topic] {
	return st.detail.State()
}

func (st *TopicStore) seedList(topics []model.Topic) {
	st.list.Seed(topics)
}

func (st *TopicStore) listData() []model.Topic {
	return st.list.State().Data
}
