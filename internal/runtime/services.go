package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Services holds the AI services the search pipeline depends on.
// Embedding and LLM services may be absent and can be swapped while requests are in flight.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// LLMService returns the current LLM service (may be nil)
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llmService
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Close old service
	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetLLMService updates the LLM service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Close old service
	if s.llmService != nil {
		_ = s.llmService.Close()
	}

	s.llmService = svc
	s.config.SetLLMAvailable(svc != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.llmService != nil {
		_ = s.llmService.Close()
		s.llmService = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetLLMAvailable(false)

	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	// Validate connectivity
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetLLM validates connectivity before setting LLM service
func (s *Services) ValidateAndSetLLM(ctx context.Context, svc driven.LLMService) error {
	if svc == nil {
		s.SetLLMService(nil)
		return nil
	}

	// Validate connectivity
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetLLMService(svc)
	return nil
}

// Configure builds services from settings through factory and installs them.
// Unconfigured settings clear the corresponding service. Connectivity is not
// checked, so a service that is down at start-up degrades searches instead of
// blocking the process.
func (s *Services) Configure(factory driven.AIServiceFactory, settings *domain.AISettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	embedding, err := factory.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}
	llm, err := factory.CreateLLMService(&settings.LLM)
	if err != nil {
		if embedding != nil {
			_ = embedding.Close()
		}
		return fmt.Errorf("create llm service: %w", err)
	}

	s.SetEmbeddingService(embedding)
	s.SetLLMService(llm)
	return nil
}

// ConfigureVerified is Configure with a connectivity check of each created
// service. A service that fails its check is closed and left unset, and the
// failures are returned wrapped in domain.ErrServiceUnavailable. Invalid
// settings and factory errors are returned as they are.
func (s *Services) ConfigureVerified(ctx context.Context, factory driven.AIServiceFactory, settings *domain.AISettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	embedding, err := factory.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}
	llm, err := factory.CreateLLMService(&settings.LLM)
	if err != nil {
		if embedding != nil {
			_ = embedding.Close()
		}
		return fmt.Errorf("create llm service: %w", err)
	}

	var errs []error
	if err := s.ValidateAndSetEmbedding(ctx, embedding); err != nil {
		errs = append(errs, fmt.Errorf("embedding %s: %w", embedding.Model(), err))
	}
	if err := s.ValidateAndSetLLM(ctx, llm); err != nil {
		errs = append(errs, fmt.Errorf("llm %s: %w", llm.Model(), err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, errors.Join(errs...))
	}
	return nil
}

// CheckEmbedding health-checks the current embedding service.
// Returns domain.ErrServiceUnavailable when none is configured.
func (s *Services) CheckEmbedding(ctx context.Context) error {
	svc := s.EmbeddingService()
	if svc == nil {
		return domain.ErrServiceUnavailable
	}
	return svc.HealthCheck(ctx)
}

// CheckLLM pings the current LLM service.
// Returns domain.ErrServiceUnavailable when none is configured.
func (s *Services) CheckLLM(ctx context.Context) error {
	svc := s.LLMService()
	if svc == nil {
		return domain.ErrServiceUnavailable
	}
	return svc.Ping(ctx)
}
