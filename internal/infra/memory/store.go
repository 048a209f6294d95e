// Package memory provides an in-memory ConversationStore, used when
// Supabase is not configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"

	"github.com/google/uuid"
)

// Store keeps stored conversations in process memory, newest first on
// listing. Ids are random UUIDs, mirroring a real document store's
// assigned identifiers.
type Store struct {
	mu   sync.RWMutex
	docs []domain.StoredConversation
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// InsertConversation implements port.ConversationStore.
func (s *Store) InsertConversation(_ context.Context, doc *domain.StoredConversation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	stored.ID = uuid.NewString()
	stored.Conversation = append([]domain.ConversationEntry(nil), doc.Conversation...)
	s.docs = append(s.docs, stored)
	return stored.ID, nil
}

// ListConversations implements port.ConversationStore.
func (s *Store) ListConversations(_ context.Context, limit int) ([]domain.StoredConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.docs) {
		limit = len(s.docs)
	}
	out := make([]domain.StoredConversation, 0, limit)
	for i := len(s.docs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.docs[i])
	}
	return out, nil
}

// CountConversations implements port.ConversationStore.
func (s *Store) CountConversations(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}
