package ai

import (
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// FactoryOptions tunes the decorators applied to every created service
type FactoryOptions struct {
	// LLMRequestsPerSecond throttles completions; 0 disables throttling
	LLMRequestsPerSecond float64
	LLMBurst             int

	QueryCacheSize int
	Breaker        BreakerSettings
	Logger         *slog.Logger
}

// DefaultFactoryOptions returns the options used when none are configured
func DefaultFactoryOptions() FactoryOptions {
	return FactoryOptions{
		LLMRequestsPerSecond: 5,
		LLMBurst:             5,
		QueryCacheSize:       DefaultQueryCacheSize,
		Breaker:              DefaultBreakerSettings(),
	}
}

// Factory creates AI services based on configuration
type Factory struct {
	opts FactoryOptions
}

// NewFactory creates a new AI service factory
func NewFactory(opts FactoryOptions) *Factory {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Breaker == (BreakerSettings{}) {
		opts.Breaker = DefaultBreakerSettings()
	}
	return &Factory{opts: opts}
}

// CreateEmbeddingService creates a cached, circuit-broken embedding service
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var base driven.EmbeddingService
	var err error
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		base, err = NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderOllama:
		base, err = NewOllamaEmbedding(settings.BaseURL, settings.Model)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewCachedEmbedding(NewBreakerEmbedding(base, f.opts.Breaker, f.opts.Logger), f.opts.QueryCacheSize)
}

// CreateLLMService creates a rate-limited, circuit-broken LLM service
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	limiter := f.newLimiter()

	var base driven.LLMService
	var err error
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		base, err = NewOpenAILLM(settings.APIKey, settings.Model, settings.BaseURL, limiter)
	case domain.AIProviderOllama:
		base, err = NewOllamaLLM(settings.BaseURL, settings.Model, limiter)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewBreakerLLM(base, f.opts.Breaker, f.opts.Logger), nil
}

func (f *Factory) newLimiter() *rate.Limiter {
	if f.opts.LLMRequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(f.opts.LLMRequestsPerSecond), max(f.opts.LLMBurst, 1))
}
