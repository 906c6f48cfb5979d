package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// Ping implements Pinger
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService         driving.AuthService
	searchService       driving.SearchService
	augmentationService driving.AugmentationService
	conversationService driving.ConversationService
	runtimeConfig       *domain.RuntimeConfig

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)

	// AI services are optional: failures degrade readiness, never fail it
	embeddingCheck Pinger
	llmCheck       Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// Dependencies groups what the handlers call into
type Dependencies struct {
	AuthService         driving.AuthService
	SearchService       driving.SearchService
	AugmentationService driving.AugmentationService
	ConversationService driving.ConversationService // can be nil
	RuntimeConfig       *domain.RuntimeConfig
	DB                  Pinger
	Redis               Pinger // can be nil
	Embedding           Pinger // can be nil
	LLM                 Pinger // can be nil
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:              http.NewServeMux(),
		version:             cfg.Version,
		logger:              logger,
		authService:         deps.AuthService,
		searchService:       deps.SearchService,
		augmentationService: deps.AugmentationService,
		conversationService: deps.ConversationService,
		runtimeConfig:       deps.RuntimeConfig,
		db:                  deps.DB,
		redisClient:         deps.Redis,
		embeddingCheck:      deps.Embedding,
		llmCheck:            deps.LLM,
	}

	s.setupRoutes()

	handler := NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Capabilities (authenticated)
	s.router.Handle("GET /api/v1/capabilities",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCapabilities)))

	// Search endpoints (authenticated)
	s.router.Handle("POST /api/v1/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearch)))
	s.router.Handle("POST /api/v1/documents/{id}/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearchDocument)))
	s.router.Handle("POST /api/v1/agents/{id}/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearchAgent)))
	s.router.Handle("POST /api/v1/search/augment",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAugment)))

	// Conversation history (authenticated)
	s.router.Handle("POST /api/v1/conversations/turns",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRecordTurn)))
	s.router.Handle("GET /api/v1/conversations/turns",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListTurns)))
}

// Handler returns the fully wrapped handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
