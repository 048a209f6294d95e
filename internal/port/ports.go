// Package port defines the interfaces (ports) between the chat core and
// its collaborators. Services depend on these, never on concrete
// implementations, which keeps the engine and recorder testable with
// hand-written mocks.
package port

import (
	"context"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
)

// ConversationStore is the document store a finished transcript is written
// to. Insert returns the store-assigned identifier.
type ConversationStore interface {
	InsertConversation(ctx context.Context, doc *domain.StoredConversation) (string, error)
	ListConversations(ctx context.Context, limit int) ([]domain.StoredConversation, error)
	CountConversations(ctx context.Context) (int, error)
}

// Recorder accepts a completed transcript and persists it. The engine
// calls this exactly once per fully completed interview (plus explicit
// retries).
type Recorder interface {
	Record(ctx context.Context, entries []domain.ConversationEntry) (string, error)
}

// Cache is a generic TTL cache (implemented by infra/cache). Touch
// refreshes an entry's TTL; OnEvict observes entries removed by expiry
// or Delete.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Touch(key string) bool
	Delete(key string)
	OnEvict(fn func(key string, value T))
}
