package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/config"
)

// RedisStateStore keeps attempt hot state in Redis: a metadata blob, the
// shuffled question order, the answer hash and the answer-key hash, plus a
// sorted set of deadlines for the reaper.
type RedisStateStore struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisStateStore creates the production StateStore.
func NewRedisStateStore(rdb *redis.Client, log zerolog.Logger) *RedisStateStore {
	return &RedisStateStore{
		rdb: rdb,
		log: log.With().Str("component", "attempt_state").Logger(),
	}
}

type attemptMeta struct {
	Title     string    `json:"title"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
	Token     string    `json:"token"`
	IsRetried bool      `json:"is_retried"`
}

func deadlineMember(userID, lessonID string) string {
	return userID + "|" + lessonID
}

// SaveAttempt writes all attempt keys atomically via pipeline.
func (s *RedisStateStore) SaveAttempt(ctx context.Context, rec AttemptRecord) error {
	meta, err := json.Marshal(attemptMeta{
		Title:     rec.Title,
		StartedAt: rec.StartedAt,
		Deadline:  rec.Deadline,
		Token:     rec.Token,
		IsRetried: rec.IsRetried,
	})
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	order, err := json.Marshal(rec.Order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	answerKey := make(map[string]interface{}, len(rec.AnswerKey))
	for qid, entry := range rec.AnswerKey {
		raw, _ := json.Marshal(entry)
		answerKey[qid] = raw
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AttemptMetaKey(rec.UserID, rec.LessonID), meta, 0)
	pipe.Set(ctx, config.CacheKey.AttemptOrderKey(rec.UserID, rec.LessonID), order, 0)
	pipe.Del(ctx, config.CacheKey.AttemptAnswerKeyKey(rec.UserID, rec.LessonID))
	if len(answerKey) > 0 {
		pipe.HSet(ctx, config.CacheKey.AttemptAnswerKeyKey(rec.UserID, rec.LessonID), answerKey)
	}
	pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(rec.UserID, rec.LessonID))
	pipe.Set(ctx, config.CacheKey.ActiveAttemptKey(rec.UserID), rec.LessonID, 0)
	pipe.ZAdd(ctx, config.WorkerKey.AttemptDeadlinesSet, redis.Z{
		Score:  float64(rec.Deadline.Unix()),
		Member: deadlineMember(rec.UserID, rec.LessonID),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save attempt state: %w", err)
	}
	return nil
}

// LoadAttempt reconstructs the stored record.
func (s *RedisStateStore) LoadAttempt(ctx context.Context, userID, lessonID string) (*AttemptRecord, error) {
	rawMeta, err := s.rdb.Get(ctx, config.CacheKey.AttemptMetaKey(userID, lessonID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMissingSession
		}
		return nil, fmt.Errorf("get meta: %w", err)
	}

	var meta attemptMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}

	rawOrder, err := s.rdb.Get(ctx, config.CacheKey.AttemptOrderKey(userID, lessonID)).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	var order []string
	if len(rawOrder) > 0 {
		if err := json.Unmarshal(rawOrder, &order); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
	}

	rawKey, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswerKeyKey(userID, lessonID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	answerKey := make(map[string]KeyEntry, len(rawKey))
	for qid, raw := range rawKey {
		var entry KeyEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			s.log.Warn().Str("question_id", qid).Msg("Skipping malformed answer key entry")
			continue
		}
		answerKey[qid] = entry
	}

	return &AttemptRecord{
		UserID:    userID,
		LessonID:  lessonID,
		Title:     meta.Title,
		StartedAt: meta.StartedAt,
		Deadline:  meta.Deadline,
		Order:     order,
		AnswerKey: answerKey,
		Token:     meta.Token,
		IsRetried: meta.IsRetried,
	}, nil
}

// SaveAnswer upserts the answer hash field and queues the change for the
// autosave worker.
func (s *RedisStateStore) SaveAnswer(ctx context.Context, userID, lessonID, questionID, value string) error {
	key := config.CacheKey.AttemptAnswersKey(userID, lessonID)
	if err := s.rdb.HSet(ctx, key, questionID, value).Err(); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":     userID,
		"lesson_id":   lessonID,
		"question_id": questionID,
		"answer":      value,
	})
	s.rdb.RPush(ctx, config.WorkerKey.AutosaveAnswersQueue, payload)
	return nil
}

// LoadAnswers returns the full answer hash.
func (s *RedisStateStore) LoadAnswers(ctx context.Context, userID, lessonID string) (map[string]string, error) {
	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(userID, lessonID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return answers, nil
}

// ActiveLesson returns the user's active lesson ID, or "".
func (s *RedisStateStore) ActiveLesson(ctx context.Context, userID string) (string, error) {
	lessonID, err := s.rdb.Get(ctx, config.CacheKey.ActiveAttemptKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("get active attempt: %w", err)
	}
	return lessonID, nil
}

// Clear drops every attempt key and removes the deadline index entry.
func (s *RedisStateStore) Clear(ctx context.Context, userID, lessonID string) error {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx,
		config.CacheKey.AttemptMetaKey(userID, lessonID),
		config.CacheKey.AttemptOrderKey(userID, lessonID),
		config.CacheKey.AttemptAnswerKeyKey(userID, lessonID),
		config.CacheKey.AttemptAnswersKey(userID, lessonID),
	)
	pipe.Del(ctx, config.CacheKey.ActiveAttemptKey(userID))
	pipe.ZRem(ctx, config.WorkerKey.AttemptDeadlinesSet, deadlineMember(userID, lessonID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear attempt state: %w", err)
	}
	return nil
}

// ExpiredAttempts lists attempts whose deadline passed before now.
func (s *RedisStateStore) ExpiredAttempts(ctx context.Context, now time.Time) ([]AttemptRef, error) {
	members, err := s.rdb.ZRangeByScore(ctx, config.WorkerKey.AttemptDeadlinesSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range deadlines: %w", err)
	}

	refs := make([]AttemptRef, 0, len(members))
	for _, m := range members {
		parts := strings.SplitN(m, "|", 2)
		if len(parts) != 2 {
			continue
		}
		refs = append(refs, AttemptRef{UserID: parts[0], LessonID: parts[1]})
	}
	return refs, nil
}
