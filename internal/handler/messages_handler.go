package handler

import (
	"encoding/json"
	"net/http"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/observability"
	"github.com/indianbaazaar/storefront-chat-go/internal/service"

	"go.uber.org/zap"
)

// messageResponse is the envelope of the legacy widget endpoint. The shape
// and strings are frozen; the deployed storefront widget matches on them.
type messageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

const (
	msgSaved         = "Conversation saved successfully"
	msgNotArray      = "Request body must be an array"
	msgInvalidEntry  = "Invalid conversation entry format"
	msgInternalError = "Internal server error"
)

// saveMessagesHandler implements POST /api/messages/: a JSON array of
// {key, value} string pairs, validated strictly and persisted as one
// document. Validation checks types only: an empty array and empty-string
// keys or values are all legal. It short-circuits on the first bad entry
// and returns a generic message, never per-entry detail.
func saveMessagesHandler(recorder *service.RecorderService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/messages/")
		defer span.End()

		var raw []json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			metrics.IncrConversation("rejected")
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgNotArray})
			return
		}

		entries := make([]domain.ConversationEntry, 0, len(raw))
		for _, el := range raw {
			// Pointer fields distinguish "absent or wrong type" from
			// a present empty string.
			var entry struct {
				Key   *string `json:"key"`
				Value *string `json:"value"`
			}
			if err := json.Unmarshal(el, &entry); err != nil || entry.Key == nil || entry.Value == nil {
				metrics.IncrConversation("rejected")
				writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidEntry})
				return
			}
			entries = append(entries, domain.ConversationEntry{Key: *entry.Key, Value: *entry.Value})
		}

		id, err := recorder.Record(ctx, entries)
		if err != nil {
			logger.Error("failed to save conversation", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternalError})
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: msgSaved, ID: id})
	}
}
