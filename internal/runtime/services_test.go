package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// mockEmbeddingService is a mock implementation for testing
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

// mockLLMService is a mock implementation for testing
type mockLLMService struct {
	pingErr error
	closed  bool
}

func (m *mockLLMService) Complete(ctx context.Context, messages []driven.LLMMessage, opts driven.CompletionOptions) (string, error) {
	return "", nil
}

func (m *mockLLMService) Model() string {
	return "test-llm"
}

func (m *mockLLMService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockLLMService) Close() error {
	m.closed = true
	return nil
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("redis")
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to match")
	}
}

func TestServices_EmbeddingService(t *testing.T) {
	config := domain.NewRuntimeConfig("redis")
	services := NewServices(config)

	// Initially nil
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}

	// Set embedding service
	mock := &mockEmbeddingService{}
	services.SetEmbeddingService(mock)

	if services.EmbeddingService() == nil {
		t.Error("expected non-nil embedding service after set")
	}
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding to be available")
	}

	// Set to nil
	services.SetEmbeddingService(nil)
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service after clearing")
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_LLMService(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	// Initially nil
	if services.LLMService() != nil {
		t.Error("expected nil LLM service initially")
	}

	// Set LLM service
	mock := &mockLLMService{}
	services.SetLLMService(mock)

	if services.LLMService() == nil {
		t.Error("expected non-nil LLM service after set")
	}
	if !config.LLMAvailable() {
		t.Error("expected LLM to be available")
	}

	// Set to nil
	services.SetLLMService(nil)
	if services.LLMService() != nil {
		t.Error("expected nil LLM service after clearing")
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := &mockEmbeddingService{}
		err := services.ValidateAndSetEmbedding(ctx, mock)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.EmbeddingService() == nil {
			t.Error("expected embedding service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := &mockEmbeddingService{healthCheckErr: errors.New("connection failed")}
		err := services.ValidateAndSetEmbedding(ctx, mock)
		if err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		err := services.ValidateAndSetEmbedding(ctx, nil)
		if err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_ValidateAndSetLLM(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := &mockLLMService{}
		err := services.ValidateAndSetLLM(ctx, mock)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.LLMService() == nil {
			t.Error("expected LLM service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := &mockLLMService{pingErr: errors.New("connection failed")}
		err := services.ValidateAndSetLLM(ctx, mock)
		if err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		err := services.ValidateAndSetLLM(ctx, nil)
		if err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	embMock := &mockEmbeddingService{}
	llmMock := &mockLLMService{}

	services.SetEmbeddingService(embMock)
	services.SetLLMService(llmMock)

	err := services.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !embMock.closed {
		t.Error("expected embedding service to be closed")
	}
	if !llmMock.closed {
		t.Error("expected LLM service to be closed")
	}
}

func TestServices_ReplaceService_ClosesOld(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	old := &mockEmbeddingService{}
	new := &mockEmbeddingService{}

	services.SetEmbeddingService(old)
	services.SetEmbeddingService(new)

	if !old.closed {
		t.Error("expected old service to be closed when replaced")
	}
	if new.closed {
		t.Error("expected new service to remain open")
	}
}

// mockFactory returns fixed services or errors
type mockFactory struct {
	embedding    driven.EmbeddingService
	llm          driven.LLMService
	embeddingErr error
	llmErr       error
}

func (f *mockFactory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, f.embeddingErr
	}
	return f.embedding, f.embeddingErr
}

func (f *mockFactory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, f.llmErr
	}
	return f.llm, f.llmErr
}

func TestServices_Configure(t *testing.T) {
	configured := &domain.AISettings{
		Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-test"},
		LLM:       domain.LLMSettings{Provider: domain.AIProviderOllama},
	}

	t.Run("installs both services", func(t *testing.T) {
		config := domain.NewRuntimeConfig("postgres")
		services := NewServices(config)
		factory := &mockFactory{embedding: &mockEmbeddingService{}, llm: &mockLLMService{}}

		if err := services.Configure(factory, configured); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !config.EmbeddingAvailable() || !config.LLMAvailable() {
			t.Error("expected both services to be available")
		}
	})

	t.Run("unconfigured settings clear services", func(t *testing.T) {
		config := domain.NewRuntimeConfig("postgres")
		services := NewServices(config)
		services.SetEmbeddingService(&mockEmbeddingService{})

		if err := services.Configure(&mockFactory{}, &domain.AISettings{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if services.EmbeddingService() != nil || services.LLMService() != nil {
			t.Error("expected services to be cleared")
		}
	})

	t.Run("invalid provider", func(t *testing.T) {
		services := NewServices(domain.NewRuntimeConfig("postgres"))
		err := services.Configure(&mockFactory{}, &domain.AISettings{LLM: domain.LLMSettings{Provider: "mystery"}})
		if !errors.Is(err, domain.ErrInvalidProvider) {
			t.Errorf("expected ErrInvalidProvider, got %v", err)
		}
	})

	t.Run("llm failure closes new embedding service", func(t *testing.T) {
		services := NewServices(domain.NewRuntimeConfig("postgres"))
		emb := &mockEmbeddingService{}
		factory := &mockFactory{embedding: emb, llmErr: errors.New("boom")}

		if err := services.Configure(factory, configured); err == nil {
			t.Fatal("expected error")
		}
		if !emb.closed {
			t.Error("expected embedding service to be closed")
		}
		if services.EmbeddingService() != nil {
			t.Error("expected embedding service not to be installed")
		}
	})
}

func TestServices_ConfigureVerified(t *testing.T) {
	configured := &domain.AISettings{
		Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-test"},
		LLM:       domain.LLMSettings{Provider: domain.AIProviderOllama},
	}
	ctx := context.Background()

	t.Run("healthy services are installed", func(t *testing.T) {
		config := domain.NewRuntimeConfig("postgres")
		services := NewServices(config)
		factory := &mockFactory{embedding: &mockEmbeddingService{}, llm: &mockLLMService{}}

		if err := services.ConfigureVerified(ctx, factory, configured); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !config.EmbeddingAvailable() || !config.LLMAvailable() {
			t.Error("expected both services to be available")
		}
	})

	t.Run("unhealthy embedding is closed and left unset", func(t *testing.T) {
		config := domain.NewRuntimeConfig("postgres")
		services := NewServices(config)
		emb := &mockEmbeddingService{healthCheckErr: errors.New("connection refused")}
		factory := &mockFactory{embedding: emb, llm: &mockLLMService{}}

		err := services.ConfigureVerified(ctx, factory, configured)
		if !errors.Is(err, domain.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
		if !emb.closed {
			t.Error("expected failed service to be closed")
		}
		if config.EmbeddingAvailable() {
			t.Error("expected embedding to be unavailable")
		}
		if !config.LLMAvailable() {
			t.Error("expected healthy LLM to be installed")
		}
	})

	t.Run("invalid provider", func(t *testing.T) {
		services := NewServices(domain.NewRuntimeConfig("postgres"))
		err := services.ConfigureVerified(ctx, &mockFactory{}, &domain.AISettings{Embedding: domain.EmbeddingSettings{Provider: "mystery"}})
		if !errors.Is(err, domain.ErrInvalidProvider) {
			t.Errorf("expected ErrInvalidProvider, got %v", err)
		}
	})
}

func TestServices_Checks(t *testing.T) {
	ctx := context.Background()
	services := NewServices(domain.NewRuntimeConfig("postgres"))

	if err := services.CheckEmbedding(ctx); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable without embedding, got %v", err)
	}
	if err := services.CheckLLM(ctx); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable without llm, got %v", err)
	}

	services.SetEmbeddingService(&mockEmbeddingService{healthCheckErr: errors.New("down")})
	services.SetLLMService(&mockLLMService{})

	if err := services.CheckEmbedding(ctx); err == nil || errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected health check error, got %v", err)
	}
	if err := services.CheckLLM(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
