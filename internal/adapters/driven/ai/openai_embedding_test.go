package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fastRetry keeps retry tests quick
var fastRetry = RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

type embeddingRequestBody struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func writeEmbeddings(w http.ResponseWriter, vectors map[int][]float32) {
	data := make([]map[string]any, 0, len(vectors))
	for idx, v := range vectors {
		data = append(data, map[string]any{"object": "embedding", "index": idx, "embedding": v})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  "text-embedding-3-small",
		"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
	})
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": "boom", "type": "server_error"},
	})
}

func TestNewOpenAIEmbedding(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		if _, err := NewOpenAIEmbedding("", "", ""); err == nil {
			t.Error("expected error for empty API key")
		}
	})

	t.Run("defaults model", func(t *testing.T) {
		svc, err := NewOpenAIEmbedding("sk-test", "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.Model() != "text-embedding-3-small" {
			t.Errorf("expected default model, got %s", svc.Model())
		}
		if svc.Dimensions() != 1536 {
			t.Errorf("expected 1536 dimensions, got %d", svc.Dimensions())
		}
	})

	t.Run("known dimensions", func(t *testing.T) {
		svc, _ := NewOpenAIEmbedding("sk-test", "text-embedding-3-large", "")
		if svc.Dimensions() != 3072 {
			t.Errorf("expected 3072 dimensions, got %d", svc.Dimensions())
		}
	})
}

func TestNewOllamaEmbedding_Defaults(t *testing.T) {
	svc, err := NewOllamaEmbedding("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "nomic-embed-text" {
		t.Errorf("expected nomic-embed-text, got %s", svc.Model())
	}
	if svc.Dimensions() != 768 {
		t.Errorf("expected 768 dimensions, got %d", svc.Dimensions())
	}
}

func TestOpenAIEmbedding_Embed_EmptyInput(t *testing.T) {
	svc, _ := NewOpenAIEmbedding("sk-test", "", "")

	result, err := svc.Embed(context.Background(), []string{})
	if err != nil {
		t.Errorf("unexpected error for empty input: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req embeddingRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Input) != 2 {
			t.Errorf("expected 2 inputs, got %d", len(req.Input))
		}

		// Out of order on purpose
		writeEmbeddings(w, map[int][]float32{1: {0.4, 0.5}, 0: {0.1, 0.2}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL)

	result, err := svc.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if result[0][0] != 0.1 || result[1][0] != 0.4 {
		t.Errorf("expected embeddings in input order, got %v", result)
	}
}

func TestOpenAIEmbedding_EmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, map[int][]float32{0: {0.7, 0.8, 0.9}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "", server.URL)

	result, err := svc.EmbedQuery(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(result))
	}
}

func TestOpenAIEmbedding_Embed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, map[int][]float32{0: {0.1}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "", server.URL)

	if _, err := svc.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when the provider drops embeddings")
	}
}

func TestOpenAIEmbedding_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeAPIError(w, http.StatusInternalServerError)
			return
		}
		writeEmbeddings(w, map[int][]float32{0: {0.1}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "", server.URL)
	svc.retry = fastRetry

	if _, err := svc.EmbedQuery(context.Background(), "q"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestOpenAIEmbedding_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusUnauthorized)
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-bad", "", server.URL)
	svc.retry = fastRetry

	if _, err := svc.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

func TestOpenAIEmbedding_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized)
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "", server.URL)
	if err := svc.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check to fail")
	}
	if err := svc.Close(); err != nil {
		t.Errorf("expected no error from Close, got %v", err)
	}
}
