package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/memory"
)

func TestStore_InsertAssignsID(t *testing.T) {
	s := memory.NewStore()

	id, err := s.InsertConversation(context.Background(), &domain.StoredConversation{
		Conversation: []domain.ConversationEntry{{Key: "name", Value: "Asha"}},
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty id")
	}

	n, _ := s.CountConversations(context.Background())
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := s.InsertConversation(ctx, &domain.StoredConversation{
			Conversation: []domain.ConversationEntry{{Key: "name", Value: name}},
			CreatedAt:    time.Now(),
		})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	docs, err := s.ListConversations(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].Conversation[0].Value != "third" || docs[1].Conversation[0].Value != "second" {
		t.Errorf("expected newest-first ordering, got %q then %q",
			docs[0].Conversation[0].Value, docs[1].Conversation[0].Value)
	}
}

func TestStore_InsertCopiesEntries(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	entries := []domain.ConversationEntry{{Key: "name", Value: "Asha"}}
	_, err := s.InsertConversation(ctx, &domain.StoredConversation{Conversation: entries, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	entries[0].Value = "mutated"

	docs, _ := s.ListConversations(ctx, 1)
	if docs[0].Conversation[0].Value != "Asha" {
		t.Error("stored document aliased the caller's slice")
	}
}
