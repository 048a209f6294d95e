package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/infra/observability"
	"github.com/indianbaazaar/storefront-chat-go/internal/port"
	"github.com/indianbaazaar/storefront-chat-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps bundles everything the router needs.
type Deps struct {
	Recorder *service.RecorderService
	Sessions *service.SessionService
	Admin    *service.AdminService
	Auth     *service.AuthService // nil when no admin credentials are configured
	Store    port.ConversationStore
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// The widget is embedded in storefront pages served from other origins.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Store, d.Logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- Legacy widget endpoint (frozen contract) ---
	// The deployed widget posts finished transcripts here. The trailing
	// slash is part of the contract.
	r.Post("/api/messages/", saveMessagesHandler(d.Recorder, d.Metrics, d.Logger))
	r.Post("/api/messages", saveMessagesHandler(d.Recorder, d.Metrics, d.Logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Chat sessions
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", createSessionHandler(d.Sessions, d.Logger))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", getSessionHandler(d.Sessions, d.Logger))
				r.Post("/messages", submitAnswerHandler(d.Sessions, d.Logger))
				r.Post("/reset", resetSessionHandler(d.Sessions, d.Logger))
				r.Post("/retry", retrySessionHandler(d.Sessions, d.Logger))
				r.Post("/open", openSessionHandler(d.Sessions, d.Logger))
				r.Delete("/", closeSessionHandler(d.Sessions, d.Logger))
			})
		})

		// Metrics snapshot
		r.Get("/metrics/chat", chatMetricsHandler(d.Metrics, d.Logger))

		// Admin dashboard
		r.Route("/admin", func(r chi.Router) {
			if d.Auth == nil {
				r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusServiceUnavailable, "admin area unavailable: no credentials configured")
				}))
				return
			}
			r.Post("/login", adminLoginHandler(d.Auth, d.Logger))

			r.Group(func(r chi.Router) {
				r.Use(AdminAuthMiddleware(d.Auth, d.Logger))
				r.Get("/conversations", adminConversationsHandler(d.Admin, d.Logger))
				r.Get("/overview", adminOverviewHandler(d.Admin, d.Logger))
			})
		})
	})

	return r
}

// healthzHandler probes the conversation store with a short deadline and
// reports degraded instead of failing the whole check when it is slow.
func healthzHandler(store port.ConversationStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		storeStatus := "healthy"
		start := time.Now()
		if _, err := store.CountConversations(ctx); err != nil {
			logger.Warn("health check: store unreachable", zap.Error(err))
			status = "degraded"
			storeStatus = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": status,
			"services": []map[string]any{
				{
					"name":       "conversation-store",
					"status":     storeStatus,
					"latency_ms": time.Since(start).Milliseconds(),
				},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
