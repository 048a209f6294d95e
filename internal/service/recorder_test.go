package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/observability"
	"github.com/indianbaazaar/storefront-chat-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockStore struct {
	inserted *domain.StoredConversation
	insertID string
	err      error

	listDocs []domain.StoredConversation
	count    int
}

func (m *mockStore) InsertConversation(_ context.Context, doc *domain.StoredConversation) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.inserted = doc
	return m.insertID, nil
}

func (m *mockStore) ListConversations(_ context.Context, _ int) ([]domain.StoredConversation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.listDocs, nil
}

func (m *mockStore) CountConversations(_ context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

// --- Tests ---

func TestRecord_Success(t *testing.T) {
	store := &mockStore{insertID: "conv-123"}
	svc := service.NewRecorderService(store, 10, observability.NewMetrics(), zap.NewNop())

	entries := []domain.ConversationEntry{
		{Key: "name", Value: "Asha"},
		{Key: "purpose", Value: "browsing"},
	}

	id, err := svc.Record(context.Background(), entries)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "conv-123" {
		t.Errorf("expected id 'conv-123', got %q", id)
	}

	if store.inserted == nil {
		t.Fatal("expected a document to be inserted")
	}
	if len(store.inserted.Conversation) != 2 {
		t.Errorf("expected 2 entries persisted, got %d", len(store.inserted.Conversation))
	}
	if time.Since(store.inserted.CreatedAt) > time.Minute {
		t.Errorf("expected recent createdAt, got %v", store.inserted.CreatedAt)
	}
}

func TestRecord_EmptyTranscriptStored(t *testing.T) {
	store := &mockStore{insertID: "conv-124"}
	svc := service.NewRecorderService(store, 10, observability.NewMetrics(), zap.NewNop())

	id, err := svc.Record(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected empty transcript to be stored, got %v", err)
	}
	if id != "conv-124" {
		t.Errorf("expected id 'conv-124', got %q", id)
	}
	if store.inserted == nil || len(store.inserted.Conversation) != 0 {
		t.Errorf("expected an empty conversation document, got %+v", store.inserted)
	}
}

func TestRecord_EmptyKeyStored(t *testing.T) {
	store := &mockStore{insertID: "conv-125"}
	svc := service.NewRecorderService(store, 10, observability.NewMetrics(), zap.NewNop())

	id, err := svc.Record(context.Background(), []domain.ConversationEntry{{Key: "", Value: "x"}})
	if err != nil {
		t.Fatalf("expected empty key to be accepted, got %v", err)
	}
	if id != "conv-125" {
		t.Errorf("expected id 'conv-125', got %q", id)
	}
	if store.inserted == nil || len(store.inserted.Conversation) != 1 {
		t.Fatalf("expected one entry persisted, got %+v", store.inserted)
	}
	if store.inserted.Conversation[0].Key != "" || store.inserted.Conversation[0].Value != "x" {
		t.Errorf("entry rewritten on the way to the store: %+v", store.inserted.Conversation[0])
	}
}

func TestRecord_StoreFailure(t *testing.T) {
	store := &mockStore{err: errors.New("connection refused")}
	svc := service.NewRecorderService(store, 10, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Record(context.Background(), []domain.ConversationEntry{{Key: "name", Value: "Asha"}})
	if err == nil {
		t.Fatal("expected error when store insert fails")
	}
}
