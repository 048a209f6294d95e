package service

import (
	"context"
	"fmt"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/observability"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/resilience"
	"github.com/indianbaazaar/storefront-chat-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// RecorderService writes finished transcripts to the conversation store.
// It stores whatever entry list it is handed, including an empty one;
// shape validation is the HTTP boundary's job. Writes are bulkhead-limited
// so a slow store cannot pile up unbounded concurrent inserts.
type RecorderService struct {
	store    port.ConversationStore
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecorderService creates the recorder with all dependencies injected.
func NewRecorderService(
	store port.ConversationStore,
	maxConcurrency int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RecorderService {
	return &RecorderService{
		store:    store,
		bulkhead: resilience.NewBulkhead(maxConcurrency),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Record persists one completed interview as {conversation, createdAt: now}
// and returns the store-assigned identifier. Implements port.Recorder.
func (s *RecorderService) Record(ctx context.Context, entries []domain.ConversationEntry) (string, error) {
	ctx, span := tracer.Start(ctx, "RecorderService.Record")
	defer span.End()
	span.SetAttributes(attribute.Int("conversation.entries", len(entries)))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("record_conversation", time.Since(start))
	}()

	if err := s.bulkhead.Acquire(ctx); err != nil {
		s.metrics.IncrConversation("failed")
		return "", &domain.ErrTimeout{Operation: "record_conversation"}
	}
	defer s.bulkhead.Release()

	doc := &domain.StoredConversation{
		Conversation: entries,
		CreatedAt:    s.now().UTC(),
	}

	id, err := s.store.InsertConversation(ctx, doc)
	if err != nil {
		s.logger.Error("conversation insert failed",
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("store")
		s.metrics.IncrConversation("failed")
		return "", fmt.Errorf("conversation insert: %w", err)
	}

	s.logger.Info("conversation saved",
		zap.String("conversation_id", id),
		zap.Int("entries", len(entries)),
	)
	s.metrics.IncrConversation("saved")
	return id, nil
}
