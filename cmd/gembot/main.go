package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/config"
	"github.com/gemba-cloud/gembot/internal/db"
	dbMemory "github.com/gemba-cloud/gembot/internal/db/memory"
	dbRedis "github.com/gemba-cloud/gembot/internal/db/redis"
	"github.com/gemba-cloud/gembot/internal/domain"
	agendadomain "github.com/gemba-cloud/gembot/internal/domain/agenda"
	logpkg "github.com/gemba-cloud/gembot/internal/logger"
	"github.com/gemba-cloud/gembot/internal/metrics"
	agendarepo "github.com/gemba-cloud/gembot/internal/repository/agenda"
	documentrepo "github.com/gemba-cloud/gembot/internal/repository/document"
	"github.com/gemba-cloud/gembot/internal/repository/embcache"
	indexrepo "github.com/gemba-cloud/gembot/internal/repository/index"
	notesrepo "github.com/gemba-cloud/gembot/internal/repository/notes"
	chiTransport "github.com/gemba-cloud/gembot/internal/transport/chi"
	openaiTransport "github.com/gemba-cloud/gembot/internal/transport/openai"
	agendauc "github.com/gemba-cloud/gembot/internal/usecase/agenda"
	assistantuc "github.com/gemba-cloud/gembot/internal/usecase/assistant"
	bookuc "github.com/gemba-cloud/gembot/internal/usecase/book"
	chatuc "github.com/gemba-cloud/gembot/internal/usecase/chat"
	healthuc "github.com/gemba-cloud/gembot/internal/usecase/health"
	notesuc "github.com/gemba-cloud/gembot/internal/usecase/notes"
	"github.com/gemba-cloud/gembot/internal/version"
)

// fallbackChatPrompt is used when no chat prompt file is configured.
const fallbackChatPrompt = "Sos un asistente amable de un retiro de meditación. " +
	"Respondé de forma breve y cálida en español."

func main() {
	// .env first, then the YAML config can expand its variables
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gembot API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Create KV store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("KV store not ready", zap.Error(err))
	}
	logger.Info("Connected to KV store")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Provider clients
	provCfg := &openaiTransport.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Logger:  logger,
	}
	chatClient := openaiTransport.NewChatClient(provCfg, cfg.Provider.ChatModel, cfg.Provider.TranscriptionModel)

	// Embedder chain: OpenAI -> Cached
	var embedder domain.Embedder = openaiTransport.NewEmbedder(provCfg, cfg.Provider.EmbeddingModel, 0)
	embedder = embcache.New(
		embedder, store,
		time.Duration(cfg.Database.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.Provider.EmbeddingModel),
	)

	// Agenda (optional; without one the lookup path never matches)
	var schedule agendadomain.Schedule
	if cfg.Agenda.Path != "" {
		schedule, err = agendarepo.Load(cfg.Agenda.Path, agendaYear(cfg))
		if err != nil {
			logger.Fatal("Failed to load agenda", zap.String("path", cfg.Agenda.Path), zap.Error(err))
		}
	}
	agendaSvc := agendauc.New(schedule, agendaYear(cfg), time.Now)

	// Book QA
	index := indexrepo.New()
	bookSvc := bookuc.New(index, embedder, chatClient, bookuc.Config{
		ChunkWords:   cfg.Book.ChunkWords,
		OverlapWords: cfg.Book.OverlapWords,
		TopK:         cfg.Book.TopK,
		Temperature:  cfg.Book.Temperature,
		SystemPrompt: cfg.Book.SystemPrompt,
	}, logger)
	bookSource := func() (string, error) {
		return documentrepo.Extract(cfg.Book.Path)
	}

	// Index the book at startup when configured; the ingest endpoint can
	// retry later if this fails.
	if cfg.Book.Path != "" {
		if text, err := bookSource(); err != nil {
			logger.Warn("Book source unavailable at startup", zap.Error(err))
		} else if n, err := bookSvc.Ingest(ctx, text); err != nil {
			logger.Warn("Book ingestion failed at startup", zap.Error(err))
		} else {
			logger.Info("Book indexed", zap.Int("chunks", n))
		}
	}

	// Free chat
	chatSvc := chatuc.New(chatClient, loadChatPrompt(cfg, logger), agendaSvc.Context(), cfg.Chat.Temperature)

	// Router, notes, health
	assistantSvc := assistantuc.New(agendaSvc, bookSvc, chatSvc, cfg.Book.Command)
	notesSvc := notesuc.New(notesrepo.New(store))
	healthSvc := healthuc.New(store, embedderHealth(embedder), bookSvc)

	server := chiTransport.NewServer(
		assistantSvc, bookSvc, bookSource, notesSvc, chatClient, healthSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func agendaYear(cfg config.Config) int {
	if cfg.Agenda.Year > 0 {
		return cfg.Agenda.Year
	}
	return time.Now().Year()
}

func loadChatPrompt(cfg config.Config, logger *zap.Logger) string {
	if cfg.Chat.PromptPath == "" {
		return fallbackChatPrompt
	}
	data, err := os.ReadFile(cfg.Chat.PromptPath)
	if err != nil {
		logger.Warn("Chat prompt file unavailable, using fallback",
			zap.String("path", cfg.Chat.PromptPath), zap.Error(err))
		return fallbackChatPrompt
	}
	return strings.TrimSpace(string(data))
}

// embedderHealth narrows the embedder chain to health.EmbeddingChecker,
// returning nil when no layer implements health checks.
func embedderHealth(embedder domain.Embedder) healthuc.EmbeddingChecker {
	if hc, ok := embedder.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
