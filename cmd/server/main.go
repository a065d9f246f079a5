// Package main is the entry point for the agent chat server.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pymentor/agent-server/internal/auth"
	"github.com/pymentor/agent-server/internal/codetools"
	"github.com/pymentor/agent-server/internal/config"
	"github.com/pymentor/agent-server/internal/events"
	"github.com/pymentor/agent-server/internal/extract"
	"github.com/pymentor/agent-server/internal/handler"
	"github.com/pymentor/agent-server/internal/llm"
	"github.com/pymentor/agent-server/internal/middleware"
	"github.com/pymentor/agent-server/internal/service"
	"github.com/pymentor/agent-server/internal/session"
	"github.com/pymentor/agent-server/internal/store"
	"github.com/pymentor/agent-server/pkg/logger"
	"github.com/pymentor/agent-server/pkg/tracing"
)

const verifierCacheSize = 128

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting agent server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "agent-server", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open store", zap.String("path", cfg.DBPath), zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Startup retention pass.
	if purged, err := db.PurgeOlderThan(ctx, cfg.PurgeDBDays); err != nil {
		log.Warn("message purge failed", zap.Error(err))
	} else if purged > 0 {
		log.Info("purged old messages", zap.Int64("count", purged), zap.Int("days", cfg.PurgeDBDays))
	}
	if err := db.PurgeOldLoginAttempts(ctx, cfg.PurgeDBDays); err != nil {
		log.Warn("login attempt purge failed", zap.Error(err))
	}

	llmClient, err := buildLLMClient(cfg)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	log.Info("LLM client ready", zap.String("provider", llmClient.Name()), zap.String("model", cfg.ModelName))

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		np, err := events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("NATS unavailable, events disabled", zap.Error(err))
		} else {
			defer np.Close()
			publisher = np
		}
	}

	sessions := session.NewRegistry(session.Settings{
		WindowSize:       cfg.WindowSize,
		DisplayWindow:    cfg.DisplayWindow,
		MessagesMaxChars: cfg.MessagesMaxChars,
		FileMaxChars:     cfg.FileContextMaxChars,
		FileTokenLimit:   cfg.FileContextMaxTokens,
	}, cfg.SessionTTL)

	chatSvc := service.NewChatService(db, llmClient, publisher, log, service.Options{
		Model:          cfg.ModelName,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxOutputTokens,
		MaxMessageSize: cfg.MessagesMaxChars,
	})

	verifier := auth.NewVerifier(verifierCacheSize)
	limiter := auth.NewLimiter(db, cfg.LoginMaxAttempts, cfg.LoginWindow)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)

	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(verifier, limiter, issuer, cfg.MasterPasswordHash, log)
	chatHandler := handler.NewChatHandler(chatSvc, sessions, log, cfg.MessagesMaxChars)
	messageHandler := handler.NewMessageHandler(chatSvc, sessions, log)
	fileHandler := handler.NewFileHandler(extract.New(cfg.MaxFileSizeMB), sessions, log)
	exportHandler := handler.NewExportHandler(chatSvc, log)
	codeHandler := handler.NewCodeToolsHandler(codetools.NewRunner(""), log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", authHandler.Login)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(issuer))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Send)
		r.Get("/messages", messageHandler.List)
		r.Get("/history", messageHandler.History)
		r.Delete("/history", messageHandler.Clear)
		r.Get("/modes", messageHandler.Modes)
		r.Post("/mode", messageHandler.SetMode)

		r.Route("/files", func(r chi.Router) {
			r.Post("/", fileHandler.Upload)
			r.Delete("/", fileHandler.Remove)
			r.Get("/context", fileHandler.Context)
			r.Post("/chunks/advance", fileHandler.Advance)
			r.Post("/chunks/retreat", fileHandler.Retreat)
			r.Put("/chunks/config", fileHandler.Configure)
			r.Put("/chunks/{index}", fileHandler.Jump)
		})

		r.Get("/export/markdown", exportHandler.Markdown)
		r.Get("/export/pdf", exportHandler.PDF)

		r.Post("/code/format", codeHandler.Format)
		r.Post("/code/check", codeHandler.Check)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Expire idle session state in the background.
	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-pruneDone:
				return
			case <-ticker.C:
				if removed := sessions.PruneIdle(); removed > 0 {
					log.Info("pruned idle sessions", zap.Int("count", removed))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	close(pruneDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// buildLLMClient selects the provider by key precedence: Groq first
// (over the OpenAI-compatible endpoint), then OpenAI, then Anthropic.
func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	switch {
	case cfg.GroqAPIKey != "":
		return llm.NewCompatibleClient("groq", cfg.GroqAPIKey, cfg.LLMBaseURL)
	case cfg.OpenAIAPIKey != "":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	default:
		return nil, fmt.Errorf("no LLM API key configured")
	}
}
