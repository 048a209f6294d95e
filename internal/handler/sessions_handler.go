package handler

import (
	"encoding/json"
	"net/http"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// sessionResponse pairs the session id with the engine snapshot the widget
// renders from.
type sessionResponse struct {
	SessionID string             `json:"session_id"`
	State     domain.EngineState `json:"state"`
}

func createSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/sessions")
		defer span.End()

		id, state := sessions.Create()
		span.SetAttributes(attribute.String("session.id", id))

		writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, State: state})
	}
}

func getSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/chat/sessions/{sessionId}")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		state, err := sessions.Get(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
	}
}

// submitAnswerHandler feeds one user answer to the session's engine. An
// ignored submission (empty text, typing window, interview already over)
// is not an error; the returned state simply shows nothing changed.
func submitAnswerHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/messages")
		defer span.End()

		id := chi.URLParam(r, "sessionId")

		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := sessions.Submit(id, req.Text)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
	}
}

func resetSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/reset")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		state, err := sessions.Reset(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
	}
}

func retrySessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/retry")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		state, err := sessions.Retry(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
	}
}

func openSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/open")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		state, err := sessions.Open(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
	}
}

// closeSessionHandler hides the widget. The session itself survives so a
// reopen resumes the interview; only TTL expiry destroys it.
func closeSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "DELETE /v1/chat/sessions/{sessionId}")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		state, err := sessions.Close(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
	}
}
