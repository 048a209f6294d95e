package service

import (
	"context"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AdminService serves the dashboard: stored-conversation listing and the
// overview card.
type AdminService struct {
	store  port.ConversationStore
	logger *zap.Logger
}

// NewAdminService creates the admin service.
func NewAdminService(store port.ConversationStore, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, logger: logger}
}

// Overview is the dashboard summary: total saved conversations plus the
// most recent ones.
type Overview struct {
	TotalConversations int                         `json:"total_conversations"`
	Recent             []domain.StoredConversation `json:"recent"`
}

// ListConversations returns the most recent stored conversations.
func (s *AdminService) ListConversations(ctx context.Context, limit int) ([]domain.StoredConversation, error) {
	ctx, span := tracer.Start(ctx, "AdminService.ListConversations")
	defer span.End()

	return s.store.ListConversations(ctx, limit)
}

// GetOverview fetches the count and the recent list concurrently.
func (s *AdminService) GetOverview(ctx context.Context, recentLimit int) (*Overview, error) {
	ctx, span := tracer.Start(ctx, "AdminService.GetOverview")
	defer span.End()

	var (
		total  int
		recent []domain.StoredConversation
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountConversations(gCtx)
		if err != nil {
			s.logger.Error("failed to count conversations", zap.Error(err))
			return err
		}
		total = n
		return nil
	})

	g.Go(func() error {
		docs, err := s.store.ListConversations(gCtx, recentLimit)
		if err != nil {
			s.logger.Error("failed to list conversations", zap.Error(err))
			return err
		}
		recent = docs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Overview{
		TotalConversations: total,
		Recent:             recent,
	}, nil
}
