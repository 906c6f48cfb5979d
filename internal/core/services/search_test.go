package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kms/internal/runtime"
)

type searchFixture struct {
	docs     *mocks.MockDocumentStore
	chunks   *mocks.MockChunkStore
	agents   *mocks.MockAgentStore
	history  *mocks.MockHistoryStore
	embedder *mocks.MockEmbeddingService
	llm      *mocks.MockLLMService
	svc      driving.SearchService
}

const hybridQuery = "ชั้น ไหน XOLO"

func newSearchFixture(withEmbedding bool) *searchFixture {
	f := &searchFixture{
		docs:    mocks.NewMockDocumentStore(),
		chunks:  mocks.NewMockChunkStore(),
		agents:  mocks.NewMockAgentStore(),
		history: mocks.NewMockHistoryStore(),
		llm:     mocks.NewMockLLMService(`{"augmentedQuery":"ชั้น ไหน XOLO meeting","confidence":0.9}`),
	}

	f.docs.Add(
		&domain.Document{ID: 1, UserID: "u1", Name: "building.pdf", Category: "facilities", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		&domain.Document{ID: 2, UserID: "u1", Name: "menu.txt", Category: "food", CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		&domain.Document{ID: 3, UserID: "u1", Name: "policy.pdf", Category: "hr", CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		&domain.Document{ID: 9, UserID: "u2", Name: "secret.pdf", Category: "facilities"},
	)
	f.chunks.Add("u1",
		&domain.Chunk{DocumentID: 1, ChunkIndex: 0, Content: "lobby and reception"},
		&domain.Chunk{DocumentID: 1, ChunkIndex: 2, Content: "ชั้น 3 มี XOLO meeting room"},
		&domain.Chunk{DocumentID: 2, ChunkIndex: 0, Content: "XOLO tacos on the lunch menu"},
		&domain.Chunk{DocumentID: 3, ChunkIndex: 0, Content: "leave policy and holidays"},
	)
	f.chunks.Add("u2", &domain.Chunk{DocumentID: 9, ChunkIndex: 0, Content: "XOLO ชั้น ไหน secret"})
	f.chunks.PinSimilarity(1, 0, 0.40)
	f.chunks.PinSimilarity(1, 2, 0.81)
	f.chunks.PinSimilarity(2, 0, 0.55)
	f.chunks.PinSimilarity(3, 0, 0.10)
	f.chunks.PinSimilarity(9, 0, 0.99)

	f.agents.Add(&domain.Agent{ID: 5, UserID: "u1", Name: "facilities bot", DocumentIDs: []int64{1}})
	f.agents.Add(&domain.Agent{ID: 6, UserID: "u1", Name: "empty bot"})
	f.agents.Add(&domain.Agent{ID: 7, UserID: "u2", Name: "other bot", DocumentIDs: []int64{9}})

	if withEmbedding {
		f.embedder = mocks.NewMockEmbeddingService()
	}
	services := createTestServices(f.embedder, f.llm)
	augmenter := NewAugmentationService(f.history, services, AugmentationConfig{})
	f.svc = NewSearchService(f.docs, f.chunks, f.agents, augmenter, services, DefaultSearchConfig())
	return f
}

func assertNoForeignDocuments(t *testing.T, results []*domain.SearchResult, allowed ...int64) {
	t.Helper()
	ok := make(map[int64]bool)
	for _, id := range allowed {
		ok[id] = true
	}
	for _, r := range results {
		if !ok[r.DocumentID] {
			t.Fatalf("result from document %d escaped scope %v", r.DocumentID, allowed)
		}
	}
}

func TestSearchService_Hybrid(t *testing.T) {
	f := newSearchFixture(true)

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.SearchType != domain.SearchTypeHybrid {
		t.Errorf("expected hybrid default, got %s", resp.SearchType)
	}
	if resp.Degraded {
		t.Error("did not expect degraded response")
	}
	if len(resp.Results) != 4 || resp.TotalCount != 4 {
		t.Fatalf("expected 4 results, got %d", len(resp.Results))
	}

	top := resp.Results[0]
	if top.DocumentID != 1 || top.ChunkIndex != 2 {
		t.Fatalf("expected doc 1 chunk 2 first, got %+v", top.Key())
	}
	want := 0.81*0.6 + (2.0/3.0)*0.4
	if math.Abs(top.Similarity-want) > 1e-9 {
		t.Errorf("expected fused score %v, got %v", want, top.Similarity)
	}
	if top.MatchType != domain.MatchTypeHybrid {
		t.Errorf("expected hybrid match, got %s", top.MatchType)
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i-1].Similarity < resp.Results[i].Similarity {
			t.Errorf("results not sorted at %d", i)
		}
	}
	if len(resp.Signals) != 2 {
		t.Errorf("expected stats for 2 signals, got %d", len(resp.Signals))
	}
	assertNoForeignDocuments(t, resp.Results, 1, 2, 3)
}

func TestSearchService_Threshold(t *testing.T) {
	f := newSearchFixture(true)

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{Threshold: 0.5, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result above threshold, got %d", len(resp.Results))
	}
	for _, r := range resp.Results {
		if r.Similarity < 0.5 {
			t.Errorf("result below threshold: %v", r.Similarity)
		}
	}
	if resp.CandidateCount != 1 {
		t.Errorf("expected candidate count 1, got %d", resp.CandidateCount)
	}
}

func TestSearchService_CustomWeights(t *testing.T) {
	f := newSearchFixture(true)
	kw, vec := 1.0, 0.0

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{
		KeywordWeight: &kw,
		VectorWeight:  &vec,
		Threshold:     0.01,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected only keyword-bearing chunks, got %d", len(resp.Results))
	}
	if math.Abs(resp.Results[0].Similarity-2.0/3.0) > 1e-9 {
		t.Errorf("expected 2/3, got %v", resp.Results[0].Similarity)
	}
}

func TestSearchService_SelectionPolicies(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()

	resp, err := f.svc.Search(ctx, hybridQuery, "u1", domain.SearchOptions{
		Threshold:     0.2,
		ChunkMaxType:  domain.ChunkMaxPercentage,
		ChunkMaxValue: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CandidateCount != 3 {
		t.Errorf("expected 3 candidates above threshold, got %d", resp.CandidateCount)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected ceil(3*50%%)=2 results, got %d", len(resp.Results))
	}

	resp, err = f.svc.Search(ctx, hybridQuery, "u1", domain.SearchOptions{
		Limit:         1,
		ChunkMaxType:  domain.ChunkMaxNumber,
		ChunkMaxValue: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(resp.Results))
	}
}

func TestSearchService_LimitDefaultsAndCap(t *testing.T) {
	f := newSearchFixture(true)
	svc := NewSearchService(f.docs, f.chunks, f.agents, nil, createTestServices(f.embedder, nil), SearchConfig{
		DefaultLimit: 2,
		MaxLimit:     3,
	})
	ctx := context.Background()

	resp, err := svc.Search(ctx, hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected default limit 2, got %d", len(resp.Results))
	}

	resp, err = svc.Search(ctx, hybridQuery, "u1", domain.SearchOptions{Limit: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("expected capped limit 3, got %d", len(resp.Results))
	}
}

func TestSearchService_DocumentIsolation(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    domain.SearchOptions
		allowed []int64
	}{
		{"whole corpus", domain.SearchOptions{}, []int64{1, 2, 3}},
		{"allowlist", domain.SearchOptions{SpecificDocumentIDs: []int64{2}}, []int64{2}},
		{"foreign id in allowlist", domain.SearchOptions{SpecificDocumentIDs: []int64{2, 9}}, []int64{2}},
		{"category", domain.SearchOptions{CategoryFilter: "food"}, []int64{2}},
		{"date range", domain.SearchOptions{DateRange: &domain.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}, []int64{1, 2}},
	}

	for _, searchType := range []domain.SearchType{domain.SearchTypeHybrid, domain.SearchTypeKeyword, domain.SearchTypeSemantic} {
		for _, tt := range tests {
			t.Run(string(searchType)+"/"+tt.name, func(t *testing.T) {
				opts := tt.opts
				opts.SearchType = searchType
				resp, err := f.svc.Search(ctx, hybridQuery, "u1", opts)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				assertNoForeignDocuments(t, resp.Results, tt.allowed...)
			})
		}
	}
}

func TestSearchService_EmptyAllowlist(t *testing.T) {
	f := newSearchFixture(true)

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{SpecificDocumentIDs: []int64{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %d", len(resp.Results))
	}
	if f.embedder.Calls() != 0 {
		t.Error("expected no embedding call for an empty candidate set")
	}
}

func TestSearchService_InvalidInput(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()
	neg := -0.1

	tests := []struct {
		name   string
		query  string
		userID string
		opts   domain.SearchOptions
	}{
		{"empty query", "", "u1", domain.SearchOptions{}},
		{"blank query", "   ", "u1", domain.SearchOptions{}},
		{"missing user", "xolo", "", domain.SearchOptions{}},
		{"negative limit", "xolo", "u1", domain.SearchOptions{Limit: -1}},
		{"negative weight", "xolo", "u1", domain.SearchOptions{KeywordWeight: &neg}},
		{"unknown type", "xolo", "u1", domain.SearchOptions{SearchType: "fuzzy"}},
		{"bad percentage", "xolo", "u1", domain.SearchOptions{ChunkMaxType: domain.ChunkMaxPercentage, ChunkMaxValue: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Search(ctx, tt.query, tt.userID, tt.opts)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSearchService_VectorFailureDegrades(t *testing.T) {
	f := newSearchFixture(true)
	f.chunks.SetSearchError(errors.New("pgvector unavailable"))

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("vector failure must not fail the search: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected degraded response")
	}
	if len(resp.FailedSignals) != 1 || resp.FailedSignals[0] != domain.SignalVector {
		t.Errorf("expected vector to be reported failed, got %v", resp.FailedSignals)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected keyword results, got %d", len(resp.Results))
	}
	if math.Abs(resp.Results[0].Similarity-(2.0/3.0)*0.4) > 1e-9 {
		t.Errorf("expected keyword-only fused score, got %v", resp.Results[0].Similarity)
	}
}

func TestSearchService_SemanticFailureReturnsEmpty(t *testing.T) {
	f := newSearchFixture(true)
	f.embedder.SetError(errors.New("quota exceeded"))

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{SearchType: domain.SearchTypeSemantic})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Degraded || len(resp.Results) != 0 {
		t.Errorf("expected empty degraded response, got %+v", resp)
	}
}

func TestSearchService_NoEmbeddingService(t *testing.T) {
	f := newSearchFixture(false)

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected degraded response without embeddings")
	}
	if len(resp.FailedSignals) != 0 {
		t.Errorf("missing service is not a failure, got %v", resp.FailedSignals)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected keyword results, got %d", len(resp.Results))
	}
}

func TestSearchService_DocumentStoreFailure(t *testing.T) {
	f := newSearchFixture(true)
	f.docs.SetListError(errors.New("postgres down"))

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Degraded || len(resp.Results) != 0 {
		t.Errorf("expected empty degraded response, got %+v", resp)
	}
	if len(resp.FailedSignals) != 2 {
		t.Errorf("expected both signals failed, got %v", resp.FailedSignals)
	}
}

func TestSearchService_KeywordOnly(t *testing.T) {
	f := newSearchFixture(true)

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{SearchType: domain.SearchTypeKeyword})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if math.Abs(resp.Results[0].Similarity-2.0/3.0) > 1e-9 {
		t.Errorf("expected raw keyword score, got %v", resp.Results[0].Similarity)
	}
	if f.embedder.Calls() != 0 {
		t.Error("keyword search must not embed the query")
	}
}

func TestSearchService_SemanticOnly(t *testing.T) {
	f := newSearchFixture(true)

	resp, err := f.svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{SearchType: domain.SearchTypeSemantic})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Similarity != 0.81 {
		t.Errorf("expected raw cosine 0.81, got %v", resp.Results[0].Similarity)
	}
	for _, r := range resp.Results {
		if r.MatchType != domain.MatchTypeSemantic {
			t.Errorf("expected semantic match, got %s", r.MatchType)
		}
	}
}

func TestSearchService_Augmentation(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()

	resp, err := f.svc.Search(ctx, "XOLO", "u1", domain.SearchOptions{EnableQueryAugmentation: true, ContextID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Augmentation == nil || !resp.Augmentation.ShouldUseAugmented {
		t.Fatalf("expected augmentation to be used, got %+v", resp.Augmentation)
	}
	if resp.EffectiveQuery != "ชั้น ไหน XOLO meeting" {
		t.Errorf("expected augmented effective query, got %q", resp.EffectiveQuery)
	}
	if resp.Query != "XOLO" {
		t.Errorf("expected original query preserved, got %q", resp.Query)
	}
	if got := f.history.LastQuery(); got.ContextID != "c1" || got.UserID != "u1" {
		t.Errorf("unexpected history lookup %+v", got)
	}

	f.llm.SetResponse(`{"augmentedQuery":"something unrelated","confidence":0.3}`)
	resp, err = f.svc.Search(ctx, "XOLO", "u1", domain.SearchOptions{EnableQueryAugmentation: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.EffectiveQuery != "XOLO" {
		t.Errorf("low confidence must keep the original query, got %q", resp.EffectiveQuery)
	}

	f.llm.SetError(errors.New("llm down"))
	resp, err = f.svc.Search(ctx, "XOLO", "u1", domain.SearchOptions{EnableQueryAugmentation: true})
	if err != nil {
		t.Fatalf("augmentation failure must not fail the search: %v", err)
	}
	if resp.EffectiveQuery != "XOLO" || len(resp.Results) == 0 {
		t.Errorf("expected search on original query, got %+v", resp)
	}
}

func TestSearchService_AugmentationDisabled(t *testing.T) {
	f := newSearchFixture(true)

	resp, err := f.svc.Search(context.Background(), "XOLO", "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Augmentation != nil || len(f.llm.Prompts()) != 0 {
		t.Error("augmentation should not run unless enabled")
	}
}

func TestSearchService_Idempotent(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()
	opts := domain.SearchOptions{Threshold: 0.1}

	first, err := f.svc.Search(ctx, hybridQuery, "u1", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := f.svc.Search(ctx, hybridQuery, "u1", opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again.Results) != len(first.Results) {
			t.Fatalf("run %d: result count changed", i)
		}
		for j := range first.Results {
			if first.Results[j].Key() != again.Results[j].Key() || first.Results[j].Similarity != again.Results[j].Similarity {
				t.Fatalf("run %d: result %d differs", i, j)
			}
		}
	}
}

func TestSearchService_SearchWithinDocument(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()

	resp, err := f.svc.SearchWithinDocument(ctx, 2, hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	assertNoForeignDocuments(t, resp.Results, 2)

	if _, err := f.svc.SearchWithinDocument(ctx, 9, hybridQuery, "u1", domain.SearchOptions{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another user's document, got %v", err)
	}
	if _, err := f.svc.SearchWithinDocument(ctx, 0, hybridQuery, "u1", domain.SearchOptions{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchService_SearchAgentDocuments(t *testing.T) {
	f := newSearchFixture(true)
	ctx := context.Background()

	resp, err := f.svc.SearchAgentDocuments(ctx, 5, hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("expected both chunks of doc 1, got %d", len(resp.Results))
	}
	assertNoForeignDocuments(t, resp.Results, 1)

	resp, err = f.svc.SearchAgentDocuments(ctx, 5, hybridQuery, "u1", domain.SearchOptions{SpecificDocumentIDs: []int64{2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("caller allowlist outside agent set must yield nothing, got %d", len(resp.Results))
	}

	resp, err = f.svc.SearchAgentDocuments(ctx, 6, hybridQuery, "u1", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("agent without documents must yield nothing, got %d", len(resp.Results))
	}

	if _, err := f.svc.SearchAgentDocuments(ctx, 7, hybridQuery, "u1", domain.SearchOptions{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another user's agent, got %v", err)
	}
}

func TestSearchService_EnforceDocumentScope(t *testing.T) {
	f := newSearchFixture(true)
	svc := f.svc.(*searchService)

	set := NewCandidateSet("u1", []*domain.Document{{ID: 1, UserID: "u1"}, {ID: 2, UserID: "u1"}}, true)
	results := []*domain.SearchResult{
		{DocumentID: 1}, {DocumentID: 9}, {DocumentID: 2}, {DocumentID: 3},
	}

	kept := svc.enforceDocumentScope(results, set, domain.SearchOptions{SpecificDocumentIDs: []int64{1, 3}})
	if len(kept) != 1 || kept[0].DocumentID != 1 {
		t.Errorf("expected only document 1 to survive, got %+v", kept)
	}
}

// stalledEmbedding never answers until released or its context ends
type stalledEmbedding struct {
	*mocks.MockEmbeddingService
	release    chan struct{}
	ignoresCtx bool
}

func (e *stalledEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.ignoresCtx {
		<-e.release
		return nil, errors.New("released")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.release:
		return nil, errors.New("released")
	}
}

func TestSearchService_StalledEmbeddingKeepsKeywordHits(t *testing.T) {
	for _, ignoresCtx := range []bool{false, true} {
		t.Run(map[bool]string{false: "honours context", true: "ignores context"}[ignoresCtx], func(t *testing.T) {
			f := newSearchFixture(false)
			embedder := &stalledEmbedding{
				MockEmbeddingService: mocks.NewMockEmbeddingService(),
				release:              make(chan struct{}),
				ignoresCtx:           ignoresCtx,
			}
			t.Cleanup(func() { close(embedder.release) })

			services := runtime.NewServices(domain.NewRuntimeConfig("postgres"))
			services.SetEmbeddingService(embedder)
			cfg := DefaultSearchConfig()
			cfg.SignalTimeout = 50 * time.Millisecond
			svc := NewSearchService(f.docs, f.chunks, f.agents, nil, services, cfg)

			type outcome struct {
				resp *domain.SearchResponse
				err  error
			}
			done := make(chan outcome, 1)
			go func() {
				resp, err := svc.Search(context.Background(), hybridQuery, "u1", domain.SearchOptions{})
				done <- outcome{resp, err}
			}()

			var got outcome
			select {
			case got = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("search blocked on a stalled embedding call")
			}

			if got.err != nil {
				t.Fatalf("unexpected error: %v", got.err)
			}
			if !got.resp.Degraded {
				t.Error("expected degraded response")
			}
			if len(got.resp.FailedSignals) != 1 || got.resp.FailedSignals[0] != domain.SignalVector {
				t.Errorf("expected vector reported failed, got %v", got.resp.FailedSignals)
			}
			if len(got.resp.Results) != 2 {
				t.Errorf("expected keyword results, got %d", len(got.resp.Results))
			}
		})
	}
}

func TestNewSearchService_DefaultSignalTimeout(t *testing.T) {
	svc := NewSearchService(nil, nil, nil, nil, createTestServices(nil, nil), SearchConfig{}).(*searchService)
	if svc.cfg.SignalTimeout != 10*time.Second {
		t.Errorf("expected 10s signal timeout, got %v", svc.cfg.SignalTimeout)
	}
}

func TestSearchService_ScopeLookupOutageDegrades(t *testing.T) {
	ctx := context.Background()

	t.Run("document store", func(t *testing.T) {
		f := newSearchFixture(true)
		f.docs.SetGetError(errors.New("postgres down"))

		resp, err := f.svc.SearchWithinDocument(ctx, 2, hybridQuery, "u1", domain.SearchOptions{})
		if err != nil {
			t.Fatalf("outage must not fail the search: %v", err)
		}
		if !resp.Degraded || len(resp.Results) != 0 {
			t.Errorf("expected empty degraded response, got %+v", resp)
		}
		if len(resp.FailedSignals) != 2 {
			t.Errorf("expected both signals failed, got %v", resp.FailedSignals)
		}
		if resp.SearchType != domain.SearchTypeHybrid {
			t.Errorf("expected defaulted search type, got %q", resp.SearchType)
		}
	})

	t.Run("agent store", func(t *testing.T) {
		f := newSearchFixture(true)
		f.agents.SetError(errors.New("postgres down"))

		resp, err := f.svc.SearchAgentDocuments(ctx, 5, hybridQuery, "u1", domain.SearchOptions{SearchType: domain.SearchTypeKeyword})
		if err != nil {
			t.Fatalf("outage must not fail the search: %v", err)
		}
		if !resp.Degraded || len(resp.Results) != 0 {
			t.Errorf("expected empty degraded response, got %+v", resp)
		}
		if len(resp.FailedSignals) != 1 || resp.FailedSignals[0] != domain.SignalKeyword {
			t.Errorf("expected keyword reported failed, got %v", resp.FailedSignals)
		}
	})

	t.Run("not found stays an error", func(t *testing.T) {
		f := newSearchFixture(true)
		f.agents.SetError(domain.ErrNotFound)

		if _, err := f.svc.SearchAgentDocuments(ctx, 5, hybridQuery, "u1", domain.SearchOptions{}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
