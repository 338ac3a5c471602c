package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptMetaKey returns the cache key for an attempt's metadata blob
// (start/deadline timestamps, title, bearer token).
func (r *CacheKeyStruct) AttemptMetaKey(userID, lessonID string) string {
	return fmt.Sprintf("user:%s:lesson:%s:attempt_meta", userID, lessonID)
}

// AttemptAnswersKey returns the cache key for an attempt's answer hash.
func (r *CacheKeyStruct) AttemptAnswersKey(userID, lessonID string) string {
	return fmt.Sprintf("user:%s:lesson:%s:answers", userID, lessonID)
}

// AttemptOrderKey returns the cache key for an attempt's shuffled question order.
func (r *CacheKeyStruct) AttemptOrderKey(userID, lessonID string) string {
	return fmt.Sprintf("user:%s:lesson:%s:question_order", userID, lessonID)
}

// AttemptAnswerKeyKey returns the cache key for an attempt's answer-key hash
// (question ID → correct reference + points). Never sent to clients.
func (r *CacheKeyStruct) AttemptAnswerKeyKey(userID, lessonID string) string {
	return fmt.Sprintf("user:%s:lesson:%s:answer_key", userID, lessonID)
}

// ActiveAttemptKey returns the cache key holding the lesson ID of the user's
// currently active attempt, if any.
func (r *CacheKeyStruct) ActiveAttemptKey(userID string) string {
	return fmt.Sprintf("user:%s:active_attempt", userID)
}

// SliceSnapshotKey returns the cache key for a resource slice snapshot.
// The blob mirrors the in-memory slice shape and is an internal cache only.
func (r *CacheKeyStruct) SliceSnapshotKey(domain string) string {
	return fmt.Sprintf("slice:%s:snapshot", domain)
}

var CacheKey = NewCacheKeyStruct()
