package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/greenscope/backend/internal/domain"
)

// MemoryStore is an append-only, in-process conversation log
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]domain.ChatMessage
	now           func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string][]domain.ChatMessage),
		now:           time.Now,
	}
}

// Append assigns an id and timestamp to msg and adds it to the end of its conversation.
// Timestamps never go backwards within a conversation.
func (s *MemoryStore) Append(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	if msg == nil {
		return nil, domain.ErrInvalidMessage
	}
	if strings.TrimSpace(msg.ConversationID) == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.SenderID) == "" {
		return nil, fmt.Errorf("%w: sender id is required", domain.ErrInvalidMessage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *msg
	stored.ID = uuid.NewString()
	stored.Timestamp = s.now().UTC()

	log := s.conversations[stored.ConversationID]
	if n := len(log); n > 0 && stored.Timestamp.Before(log[n-1].Timestamp) {
		stored.Timestamp = log[n-1].Timestamp
	}
	s.conversations[stored.ConversationID] = append(log, stored)

	return &stored, nil
}

// List returns the conversation in append order. A positive limit keeps only the most recent entries.
func (s *MemoryStore) List(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.conversations[conversationID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}

	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out, nil
}
