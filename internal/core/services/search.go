package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kms/internal/runtime"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// SearchConfig holds the defaults applied to every search
type SearchConfig struct {
	DefaultLimit  int     // Used when a request sets no limit
	MaxLimit      int     // Requests above this are capped
	KeywordWeight float64 // Default keyword coefficient
	VectorWeight  float64 // Default vector coefficient
	CandidatePool int     // Minimum hits requested from each signal

	// SignalTimeout bounds each signal. A signal that overruns it is
	// abandoned and reported failed, the other signal's hits are kept.
	SignalTimeout time.Duration

	Logger *slog.Logger
}

// DefaultSearchConfig returns the stock search defaults
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultLimit:  10,
		MaxLimit:      100,
		KeywordWeight: 0.4,
		VectorWeight:  0.6,
		CandidatePool: 100,
		SignalTimeout: 10 * time.Second,
	}
}

// searchService implements the SearchService interface
type searchService struct {
	documents driven.DocumentStore
	agents    driven.AgentStore
	keyword   *KeywordSearcher
	vector    *VectorSearcher
	augmenter driving.AugmentationService
	cfg       SearchConfig
	logger    *slog.Logger
}

// NewSearchService creates a new SearchService
// The embedding service is accessed dynamically via runtime.Services;
// agents and augmenter may be nil when those features are not wired.
func NewSearchService(
	documents driven.DocumentStore,
	chunks driven.ChunkStore,
	agents driven.AgentStore,
	augmenter driving.AugmentationService,
	services *runtime.Services,
	cfg SearchConfig,
) driving.SearchService {
	defaults := DefaultSearchConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = defaults.CandidatePool
	}
	if cfg.SignalTimeout <= 0 {
		cfg.SignalTimeout = defaults.SignalTimeout
	}
	if cfg.KeywordWeight == 0 && cfg.VectorWeight == 0 {
		cfg.KeywordWeight = defaults.KeywordWeight
		cfg.VectorWeight = defaults.VectorWeight
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &searchService{
		documents: documents,
		agents:    agents,
		keyword:   NewKeywordSearcher(chunks, logger),
		vector:    NewVectorSearcher(chunks, services, logger),
		augmenter: augmenter,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search ranks chunks across the user's corpus
func (s *searchService) Search(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	start := time.Now()

	if err := validateRequest(query, userID, opts); err != nil {
		return nil, err
	}
	opts = s.applyDefaults(opts)
	query = NormalizeQuery(query)
	resp := newResponse(query, opts)

	if opts.EnableQueryAugmentation && s.augmenter != nil {
		aug := s.augmenter.AugmentQuery(ctx, domain.AugmentationRequest{
			Query:        query,
			UserID:       userID,
			ChatType:     opts.ChatType,
			ContextID:    opts.ContextID,
			AgentID:      opts.AgentID,
			HistoryLimit: opts.HistoryLimit,
		})
		resp.Augmentation = aug
		if q := aug.EffectiveQuery(); q != "" {
			resp.EffectiveQuery = q
		}
	}

	set, err := s.loadCandidates(ctx, userID, opts)
	if err != nil {
		s.logger.Error("candidate documents unavailable", "user_id", userID, "error", err)
		return markUnavailable(resp, opts, start), nil
	}

	vector, keyword := s.runSignals(ctx, resp, set, opts)

	ranked, candidates := Rank(vector, keyword, s.weightsFor(opts), opts.Threshold, Selection{
		Limit:         opts.Limit,
		ChunkMaxType:  opts.ChunkMaxType,
		ChunkMaxValue: opts.ChunkMaxValue,
	})

	resp.Results = s.enforceDocumentScope(ranked, set, opts)
	resp.TotalCount = len(resp.Results)
	resp.CandidateCount = candidates
	resp.Took = time.Since(start)
	return resp, nil
}

// SearchWithinDocument restricts the search to one document the user owns
func (s *searchService) SearchWithinDocument(ctx context.Context, documentID int64, query, userID string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	start := time.Now()
	if documentID <= 0 {
		return nil, fmt.Errorf("%w: document id must be positive", domain.ErrInvalidInput)
	}
	if err := validateRequest(query, userID, opts); err != nil {
		return nil, err
	}
	if _, err := s.documents.Get(ctx, userID, documentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("document lookup failed",
			"user_id", userID, "document_id", documentID, "error", err)
		return s.unavailableResponse(query, opts, start), nil
	}

	opts.SpecificDocumentIDs = []int64{documentID}
	if opts.ChatType == "" {
		opts.ChatType = domain.ChatTypeDocument
	}
	if opts.ContextID == "" {
		opts.ContextID = fmt.Sprint(documentID)
	}
	return s.Search(ctx, query, userID, opts)
}

// SearchAgentDocuments restricts the search to the agent's configured documents.
// A caller allowlist can only narrow that set further.
func (s *searchService) SearchAgentDocuments(ctx context.Context, agentID int64, query, userID string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	start := time.Now()
	if agentID <= 0 {
		return nil, fmt.Errorf("%w: agent id must be positive", domain.ErrInvalidInput)
	}
	if s.agents == nil {
		return nil, fmt.Errorf("agent store: %w", domain.ErrServiceUnavailable)
	}
	if err := validateRequest(query, userID, opts); err != nil {
		return nil, err
	}

	agent, err := s.agents.Get(ctx, userID, agentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("agent lookup failed",
			"user_id", userID, "agent_id", agentID, "error", err)
		return s.unavailableResponse(query, opts, start), nil
	}

	ids := append([]int64{}, agent.DocumentIDs...)
	if opts.SpecificDocumentIDs != nil {
		ids = intersectIDs(ids, opts.SpecificDocumentIDs)
	}
	opts.SpecificDocumentIDs = ids
	opts.AgentID = &agentID
	if opts.ChatType == "" {
		opts.ChatType = domain.ChatTypeAgent
	}
	return s.Search(ctx, query, userID, opts)
}

func validateRequest(query, userID string, opts domain.SearchOptions) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateQuery(query); err != nil {
		return err
	}
	return opts.Validate()
}

func newResponse(query string, opts domain.SearchOptions) *domain.SearchResponse {
	return &domain.SearchResponse{
		Query:          query,
		EffectiveQuery: query,
		SearchType:     opts.SearchType,
		Results:        []*domain.SearchResult{},
	}
}

// markUnavailable turns resp into the empty answer given when the
// document scope cannot be resolved
func markUnavailable(resp *domain.SearchResponse, opts domain.SearchOptions, start time.Time) *domain.SearchResponse {
	resp.Degraded = true
	resp.FailedSignals = signalsFor(opts.SearchType)
	resp.Took = time.Since(start)
	return resp
}

func (s *searchService) unavailableResponse(query string, opts domain.SearchOptions, start time.Time) *domain.SearchResponse {
	opts = s.applyDefaults(opts)
	query = NormalizeQuery(query)
	return markUnavailable(newResponse(query, opts), opts, start)
}

func (s *searchService) applyDefaults(opts domain.SearchOptions) domain.SearchOptions {
	if opts.SearchType == "" {
		opts.SearchType = domain.SearchTypeHybrid
	}
	if opts.Limit == 0 {
		opts.Limit = s.cfg.DefaultLimit
	}
	if opts.Limit > s.cfg.MaxLimit {
		opts.Limit = s.cfg.MaxLimit
	}
	if opts.ChatType == "" {
		if opts.AgentID != nil {
			opts.ChatType = domain.ChatTypeAgent
		} else {
			opts.ChatType = domain.ChatTypeGeneral
		}
	}
	return opts
}

// weightsFor returns fusion coefficients. Single-signal searches keep the
// signal's raw score.
func (s *searchService) weightsFor(opts domain.SearchOptions) Weights {
	switch opts.SearchType {
	case domain.SearchTypeKeyword:
		return Weights{Keyword: 1}
	case domain.SearchTypeSemantic:
		return Weights{Vector: 1}
	}
	w := Weights{Keyword: s.cfg.KeywordWeight, Vector: s.cfg.VectorWeight}
	if opts.KeywordWeight != nil {
		w.Keyword = *opts.KeywordWeight
	}
	if opts.VectorWeight != nil {
		w.Vector = *opts.VectorWeight
	}
	return w
}

// poolSize is how many hits each signal is asked for before fusion
func (s *searchService) poolSize(opts domain.SearchOptions) int {
	k := opts.Limit * 2
	if opts.ChunkMaxType == domain.ChunkMaxNumber {
		k = max(k, int(opts.ChunkMaxValue)*2)
	}
	return max(k, s.cfg.CandidatePool)
}

func (s *searchService) loadCandidates(ctx context.Context, userID string, opts domain.SearchOptions) (*CandidateSet, error) {
	restricted := opts.SpecificDocumentIDs != nil || opts.CategoryFilter != "" || opts.DateRange != nil
	if opts.SpecificDocumentIDs != nil && len(opts.SpecificDocumentIDs) == 0 {
		return NewCandidateSet(userID, nil, true), nil
	}

	filter := &domain.DocumentFilter{
		DocumentIDs: opts.SpecificDocumentIDs,
		Category:    opts.CategoryFilter,
		DateRange:   opts.DateRange,
	}
	docs, err := s.documents.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	kept := make([]*domain.Document, 0, len(docs))
	for _, d := range docs {
		if d.UserID == userID && filter.Matches(d) {
			kept = append(kept, d)
		}
	}
	return NewCandidateSet(userID, kept, restricted), nil
}

// runSignals runs the signals the search type needs concurrently. A failing
// signal contributes nothing and is recorded on resp.
func (s *searchService) runSignals(ctx context.Context, resp *domain.SearchResponse, set *CandidateSet, opts domain.SearchOptions) (vector, keyword []*domain.SearchResult) {
	k := s.poolSize(opts)
	query := resp.EffectiveQuery

	var vecRes, kwRes *domain.SignalResults
	var vecErr, kwErr error

	var g errgroup.Group
	if opts.SearchType != domain.SearchTypeKeyword {
		g.Go(func() error {
			vecRes, vecErr = s.withSignalTimeout(ctx, func(ctx context.Context) (*domain.SignalResults, error) {
				return s.vector.Search(ctx, query, set, k)
			})
			return nil
		})
	}
	if opts.SearchType != domain.SearchTypeSemantic {
		g.Go(func() error {
			kwRes, kwErr = s.withSignalTimeout(ctx, func(ctx context.Context) (*domain.SignalResults, error) {
				return s.keyword.Search(ctx, query, set, k)
			})
			return nil
		})
	}
	_ = g.Wait()

	if opts.SearchType != domain.SearchTypeKeyword {
		vector = s.recordSignal(resp, domain.SignalVector, vecRes, vecErr, set.UserID)
	}
	if opts.SearchType != domain.SearchTypeSemantic {
		keyword = s.recordSignal(resp, domain.SignalKeyword, kwRes, kwErr, set.UserID)
	}
	return vector, keyword
}

// withSignalTimeout runs fn under the signal deadline and stops waiting when
// the deadline passes, even if fn does not return.
func (s *searchService) withSignalTimeout(ctx context.Context, fn func(context.Context) (*domain.SignalResults, error)) (*domain.SignalResults, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SignalTimeout)
	defer cancel()

	type outcome struct {
		res *domain.SignalResults
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := fn(ctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, ctx.Err())
	}
}

func (s *searchService) recordSignal(resp *domain.SearchResponse, signal domain.Signal, res *domain.SignalResults, err error, userID string) []*domain.SearchResult {
	stats := domain.SignalStats{Signal: signal}
	if err != nil {
		s.logger.Warn("search signal failed", "signal", signal, "user_id", userID, "error", err)
		stats.Failed = true
		resp.Degraded = true
		resp.FailedSignals = append(resp.FailedSignals, signal)
		resp.Signals = append(resp.Signals, stats)
		return nil
	}
	stats.Hits = len(res.Results)
	stats.Degraded = res.Degraded
	if res.Degraded {
		resp.Degraded = true
	}
	resp.Signals = append(resp.Signals, stats)
	return res.Results
}

// enforceDocumentScope removes any result outside the candidate set or the
// caller's allowlist. Such a result means a store ignored its filter.
func (s *searchService) enforceDocumentScope(results []*domain.SearchResult, set *CandidateSet, opts domain.SearchOptions) []*domain.SearchResult {
	var allowed map[int64]bool
	if opts.SpecificDocumentIDs != nil {
		allowed = make(map[int64]bool, len(opts.SpecificDocumentIDs))
		for _, id := range opts.SpecificDocumentIDs {
			allowed[id] = true
		}
	}

	kept := make([]*domain.SearchResult, 0, len(results))
	for _, r := range results {
		inScope := set.Document(r.DocumentID) != nil
		if allowed != nil && !allowed[r.DocumentID] {
			inScope = false
		}
		if !inScope {
			s.logger.Error("dropping result outside document scope",
				"user_id", set.UserID,
				"document_id", r.DocumentID,
				"chunk_index", r.ChunkIndex,
				"error", domain.ErrScopeViolation)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func signalsFor(t domain.SearchType) []domain.Signal {
	switch t {
	case domain.SearchTypeKeyword:
		return []domain.Signal{domain.SignalKeyword}
	case domain.SearchTypeSemantic:
		return []domain.Signal{domain.SignalVector}
	default:
		return []domain.Signal{domain.SignalVector, domain.SignalKeyword}
	}
}

func intersectIDs(a, b []int64) []int64 {
	inB := make(map[int64]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	out := []int64{}
	for _, id := range a {
		if inB[id] {
			out = append(out, id)
		}
	}
	return out
}
