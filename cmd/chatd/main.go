package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/config"
	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/engine"
	"github.com/indianbaazaar/storefront-chat-go/internal/handler"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/cache"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/memory"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/observability"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/resilience"
	"github.com/indianbaazaar/storefront-chat-go/internal/infra/supabase"
	"github.com/indianbaazaar/storefront-chat-go/internal/port"
	"github.com/indianbaazaar/storefront-chat-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("typing_delay", cfg.TypingDelay),
		zap.Duration("advance_delay", cfg.AdvanceDelay),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "storefront-chat")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	var store port.ConversationStore
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as conversation store",
			zap.String("supabase_url", cfg.SupabaseURL),
			zap.String("table", cfg.ConversationsTable),
		)
		store = supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cfg.ConversationsTable,
			resilience.NewCircuitBreaker("supabase"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			logger,
		)
	} else {
		logger.Warn("Supabase not configured, using in-memory conversation store")
		store = memory.NewStore()
	}

	// --- Services ---
	recorderSvc := service.NewRecorderService(store, cfg.MaxConcurrency, metrics, logger)

	sessionsSvc := service.NewSessionService(
		domain.DefaultScript(),
		recorderSvc,
		engine.TimerScheduler{},
		engine.Config{
			TypingDelay:   cfg.TypingDelay,
			AdvanceDelay:  cfg.AdvanceDelay,
			SubmitTimeout: cfg.SubmitTimeout,
		},
		cache.New[*engine.Engine](cfg.SessionTTL),
		metrics,
		logger,
	)

	adminSvc := service.NewAdminService(store, logger)

	var authSvc *service.AuthService
	switch {
	case cfg.AdminPasswordHash != "":
		authSvc = service.NewAuthService(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTAccessTTL, logger)
		logger.Info("admin auth enabled")
	case cfg.AdminPassword != "":
		hash, hashErr := service.HashPassword(cfg.AdminPassword)
		if hashErr != nil {
			logger.Fatal("failed to hash admin password", zap.Error(hashErr))
		}
		authSvc = service.NewAuthService(hash, cfg.JWTSecret, cfg.JWTAccessTTL, logger)
		logger.Warn("admin auth enabled with plaintext ADMIN_PASSWORD, set ADMIN_PASSWORD_HASH in production")
	default:
		logger.Warn("admin auth: no credentials configured, admin routes unavailable")
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Recorder: recorderSvc,
		Sessions: sessionsSvc,
		Admin:    adminSvc,
		Auth:     authSvc,
		Store:    store,
		Metrics:  metrics,
		Logger:   logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
