package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// FlashcardStore owns the flashcard resource slice with full CRUD commands.
type FlashcardStore struct {
	api  *upstream.Client
	list Slice[[]model.Flashcard]
	log  zerolog.Logger
}

// NewFlashcardStore creates a FlashcardStore.
func NewFlashcardStore(api *upstream.Client, log zerolog.Logger) *FlashcardStore {
	return &FlashcardStore{
		api: api,
		log: log.With().Str("component", "flashcard_store").Logger(),
	}
}

// FetchList loads the user's flashcards.
func (st *FlashcardStore) FetchList(ctx context.Context) ([]model.Flashcard, error) {
	seq := st.list.Begin()
	cards, err := st.api.ListFlashcards(ctx)
	if err != nil {
		st.list.Reject(seq, err)
		return nil, err
	}
	st.list.Resolve(seq, cards)
	return cards, nil
}

// Create adds a card and merges the server's version into the list.
func (st *FlashcardStore) Create(ctx context.Context, card model.Flashcard) (*model.Flashcard, error) {
	created, err := st.api.CreateFlashcard(ctx, card)
	if err != nil {
		seq := st.list.Begin()
		st.list.RejectKeep(seq, err)
		return nil, err
	}
	st.mergeCard(*created)
	return created, nil
}

// Update replaces a card and merges the server's version into the list.
func (st *FlashcardStore) Update(ctx context.Context, card model.Flashcard) (*model.Flashcard, error) {
	updated, err := st.api.UpdateFlashcard(ctx, card)
	if err != nil {
		seq := st.list.Begin()
		st.list.RejectKeep(seq, err)
		return nil, err
	}
	st.mergeCard(*updated)
	return updated, nil
}

// Delete removes a card upstream and from the local list.
func (st *FlashcardStore) Delete(ctx context.Context, id string) error {
	if err := st.api.DeleteFlashcard(ctx, id); err != nil {
		seq := st.list.Begin()
		st.list.RejectKeep(seq, err)
		return err
	}

	current := st.list.State().Data
	remaining := make([]model.Flashcard, 0, len(current))
	for _, c := range current {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	st.list.Seed(remaining)
	return nil
}

// mergeCard upserts one card into the list data without inventing fields the
// server did not provide.
func (st *FlashcardStore) mergeCard(card model.Flashcard) {
	current := st.list.State().Data
	for i, c := range current {
		if c.ID == card.ID {
			current[i] = card
			st.list.Seed(current)
			return
		}
	}
	st.list.Seed(append(current, card))
}

// ListState exposes the list slice tuple.
func (st *FlashcardStore) ListState() State[[]model.Flashcard] {
	return st.list.State()
}

func (st *FlashcardStore) seedList(cards []model.Flashcard) {
	st.list.Seed(cards)
}

func (st *FlashcardStore) listData() []model.Flashcard {
	return st.list.State().Data
}
