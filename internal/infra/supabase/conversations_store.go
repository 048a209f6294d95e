package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/resilience"
)

// conversationRow maps the messages table columns.
type conversationRow struct {
	ID           string                     `json:"id"`
	Conversation []domain.ConversationEntry `json:"conversation"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func (r conversationRow) toDomain() domain.StoredConversation {
	return domain.StoredConversation{
		ID:           r.ID,
		Conversation: r.Conversation,
		CreatedAt:    r.CreatedAt,
	}
}

// InsertConversation writes one finished transcript and returns the
// store-assigned row id. Implements port.ConversationStore.
func (c *Client) InsertConversation(ctx context.Context, doc *domain.StoredConversation) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertConversation")
	defer span.End()

	row := map[string]any{
		"conversation": doc.Conversation,
		"created_at":   doc.CreatedAt,
	}

	var id string
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, c.table, row)
			if err != nil {
				return err
			}

			var rows []conversationRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode conversation insert: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("no result returned from %s insert", c.table)
			}
			id = rows[0].ID
			return nil
		})
	})

	if err != nil {
		return "", &domain.ErrExternalService{Service: "supabase/conversations", Err: err}
	}
	return id, nil
}

// ListConversations returns the most recent stored conversations.
func (c *Client) ListConversations(ctx context.Context, limit int) ([]domain.StoredConversation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListConversations")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var out []domain.StoredConversation
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("%s?order=created_at.desc&limit=%d", c.table, limit)
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				out = []domain.StoredConversation{}
				return nil
			}

			var rows []conversationRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode conversations: %w", err)
			}
			out = make([]domain.StoredConversation, 0, len(rows))
			for _, r := range rows {
				out = append(out, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/conversations", Err: err}
	}
	return out, nil
}

// CountConversations returns the total number of stored conversations,
// using a HEAD-style request with the PostgREST exact count header.
func (c *Client) CountConversations(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountConversations")
	defer span.End()

	var count int
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			n, err := c.countExact(ctx)
			if err != nil {
				return err
			}
			count = n
			return nil
		})
	})

	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/conversations", Err: err}
	}
	return count, nil
}

func (c *Client) countExact(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/rest/v1/%s?select=id", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("supabase count returned status %d", resp.StatusCode)
	}

	// Content-Range: 0-24/3573 — the total follows the slash.
	var from, to, total int
	if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "%d-%d/%d", &from, &to, &total); err != nil {
		// Empty table responds with "*/0".
		if _, err2 := fmt.Sscanf(resp.Header.Get("Content-Range"), "*/%d", &total); err2 != nil {
			return 0, fmt.Errorf("parse content-range %q: %w", resp.Header.Get("Content-Range"), err)
		}
	}
	return total, nil
}
