package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// BreakerSettings configures the circuit breakers around provider calls
type BreakerSettings struct {
	MaxRequests  uint32        // Trial requests allowed while half-open
	Interval     time.Duration // Closed-state count reset period
	Timeout      time.Duration // Open-state duration before retrying
	MinRequests  uint32        // Requests before the ratio is considered
	FailureRatio float64       // Trip when failures/requests reaches this
}

// DefaultBreakerSettings returns the breaker tuning used by the factory
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

func newBreaker(name string, cfg BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Caller cancellation says nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Ensure BreakerLLM implements LLMService
var _ driven.LLMService = (*BreakerLLM)(nil)

// BreakerLLM fails fast while the wrapped LLM is unhealthy
type BreakerLLM struct {
	next driven.LLMService
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerLLM wraps an LLM service with a circuit breaker
func NewBreakerLLM(next driven.LLMService, cfg BreakerSettings, logger *slog.Logger) *BreakerLLM {
	return &BreakerLLM{next: next, cb: newBreaker("llm:"+next.Model(), cfg, logger)}
}

// Complete implements LLMService
func (b *BreakerLLM) Complete(ctx context.Context, messages []driven.LLMMessage, opts driven.CompletionOptions) (string, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, messages, opts)
	})
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

// Model implements LLMService
func (b *BreakerLLM) Model() string { return b.next.Model() }

// Ping bypasses the breaker so health checks always reach the provider
func (b *BreakerLLM) Ping(ctx context.Context) error { return b.next.Ping(ctx) }

// Close implements LLMService
func (b *BreakerLLM) Close() error { return b.next.Close() }

// State returns the breaker state
func (b *BreakerLLM) State() gobreaker.State { return b.cb.State() }

// Ensure BreakerEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*BreakerEmbedding)(nil)

// BreakerEmbedding fails fast while the wrapped embedder is unhealthy
type BreakerEmbedding struct {
	next driven.EmbeddingService
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerEmbedding wraps an embedding service with a circuit breaker
func NewBreakerEmbedding(next driven.EmbeddingService, cfg BreakerSettings, logger *slog.Logger) *BreakerEmbedding {
	return &BreakerEmbedding{next: next, cb: newBreaker("embedding:"+next.Model(), cfg, logger)}
}

// Embed implements EmbeddingService
func (b *BreakerEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return resp.([][]float32), nil
}

// EmbedQuery implements EmbeddingService
func (b *BreakerEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.EmbedQuery(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return resp.([]float32), nil
}

// Dimensions implements EmbeddingService
func (b *BreakerEmbedding) Dimensions() int { return b.next.Dimensions() }

// Model implements EmbeddingService
func (b *BreakerEmbedding) Model() string { return b.next.Model() }

// HealthCheck bypasses the breaker
func (b *BreakerEmbedding) HealthCheck(ctx context.Context) error { return b.next.HealthCheck(ctx) }

// Close implements EmbeddingService
func (b *BreakerEmbedding) Close() error { return b.next.Close() }

// State returns the breaker state
func (b *BreakerEmbedding) State() gobreaker.State { return b.cb.State() }
