package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"flightmate/cache"
)

const conversationTTL = 24 * time.Hour

// ConversationStore persists the full message list per chat session in the
// cache gateway. Reads and writes are plain get/set with no concurrency
// control: two simultaneous requests on one session can lose an append.
// Sessions are assumed single-writer.
type ConversationStore struct {
	cache *cache.Client
}

func NewConversationStore(cacheClient *cache.Client) *ConversationStore {
	return &ConversationStore{cache: cacheClient}
}

func conversationKey(chatID string) string {
	return "chat:" + chatID
}

// Load returns the session's history, or an empty history when the session
// is new or the cache is unavailable.
func (s *ConversationStore) Load(ctx context.Context, chatID string) []ChatMessage {
	raw, ok := s.cache.GetWithRetry(ctx, conversationKey(chatID))
	if !ok {
		return []ChatMessage{}
	}
	var messages []ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		log.Printf("⚠️  Dropping unreadable conversation history for chat %s: %v", chatID, err)
		return []ChatMessage{}
	}
	return messages
}

// Save stores the full history back. Failures are logged and tolerated;
// the turn's response still reaches the user.
func (s *ConversationStore) Save(ctx context.Context, chatID string, messages []ChatMessage) {
	data, err := json.Marshal(messages)
	if err != nil {
		log.Printf("⚠️  Failed to serialize conversation for chat %s: %v", chatID, err)
		return
	}
	s.cache.SetWithRetry(ctx, conversationKey(chatID), string(data), conversationTTL)
}
