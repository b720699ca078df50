// Package main is the entry point for the support engine API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/config"
	"github.com/edudesk-ai/support-engine/internal/engine"
	"github.com/edudesk-ai/support-engine/internal/handler"
	"github.com/edudesk-ai/support-engine/internal/kb"
	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/middleware"
	natsclient "github.com/edudesk-ai/support-engine/internal/nats"
	"github.com/edudesk-ai/support-engine/internal/redact"
	"github.com/edudesk-ai/support-engine/internal/session"
	"github.com/edudesk-ai/support-engine/internal/suggest"
	"github.com/edudesk-ai/support-engine/internal/tenant"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
	"github.com/edudesk-ai/support-engine/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "support-engine", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS. Sessions fall back to an in-process store when the
	// server is unreachable.
	sessionOpts := session.Options{MaxLen: cfg.SessionMaxLen, TTL: cfg.SessionTTL}
	var sessions session.Store
	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("NATS unavailable, using in-memory session store", zap.Error(err))
		sessions = session.NewMemoryStore(sessionOpts)
	} else {
		defer natsClient.Close()
		sessions, err = session.NewKVStore(natsClient.JetStream(), sessionOpts)
		if err != nil {
			log.Warn("session bucket unavailable, using in-memory session store", zap.Error(err))
			sessions = session.NewMemoryStore(sessionOpts)
		}
	}

	// Knowledge index backend
	weaviateClient, err := kb.NewWeaviateClient(cfg.WeaviateURL)
	if err != nil {
		log.Error("failed to create weaviate client", zap.Error(err))
		os.Exit(1)
	}

	// Model registry
	registry := llm.NewRegistry(llm.DefaultFactory(cfg.OpenAIAPIKey, cfg.AnthropicAPIKey), cfg.DefaultModel)

	// Tenant resources and resolution engine
	resolver := tenant.NewResolver(cfg.DataDir, weaviateClient, log)
	defer resolver.Close()
	eng := engine.New(registry, resolver, metrics.NewWindows(), cfg.RetrievalK, log)

	// Suggestion pipeline
	pipeline := suggest.NewPipeline(registry, cfg.SuggestWorkers, cfg.SuggestGenTimeout, log)
	defer pipeline.Close()

	h := &handler.Handler{
		Engine:      eng,
		Registry:    registry,
		Resolver:    resolver,
		Sessions:    sessions,
		Suggestions: pipeline,
		NATS:        natsClient,
		Log:         log,
		StreamLimit: cfg.SuggestStreamLimit,
	}

	scrubber := redact.NewScrubber(cfg.SensitiveFields)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Tenant-ID", "X-API-Key"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Tenant(cfg.JWTSecret))

	// Operational endpoints (no redaction, no rate limit)
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/greet", h.Greet)

	// Conversation and management routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Redaction(scrubber, cfg.RedactMaxBody, log))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", h.Chat)
		r.Get("/models/list", h.ListModels)
		r.Post("/models/switch", h.SwitchModel)
		r.Get("/suggest/{threadId}", h.SuggestStream)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/orders/{orderId}", h.GetOrder)

			r.Route("/vectors/items", func(r chi.Router) {
				r.Use(middleware.APIKey(cfg.VectorAPIKey))
				r.Post("/", h.AddVectors)
				r.Delete("/", h.DeleteVectors)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
