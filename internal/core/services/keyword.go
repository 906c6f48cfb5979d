package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// KeywordSearcher scores chunks by the share of query terms they contain.
// The matched text is the document name, the chunk content, and the
// document summary, category and tags.
type KeywordSearcher struct {
	chunks driven.ChunkStore
	logger *slog.Logger
}

// NewKeywordSearcher creates a KeywordSearcher
func NewKeywordSearcher(chunks driven.ChunkStore, logger *slog.Logger) *KeywordSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordSearcher{chunks: chunks, logger: logger}
}

// Search ranks candidate chunks by term coverage, best first, keeping at most
// k results (all when k <= 0). Zero-score chunks are omitted. Ties keep
// document then chunk order. A chunk store failure switches to whole-document
// scoring and marks the result degraded instead of failing.
func (s *KeywordSearcher) Search(ctx context.Context, query string, set *CandidateSet, k int) (*domain.SignalResults, error) {
	out := &domain.SignalResults{Signal: domain.SignalKeyword, Results: []*domain.SearchResult{}}

	terms := queryTerms(query)
	if len(terms) == 0 || set.Empty() {
		return out, nil
	}

	chunks, err := s.chunks.ListByDocuments(ctx, set.IDs())
	if err != nil {
		s.logger.Warn("keyword search falling back to document scoring",
			"user_id", set.UserID, "error", err)
		out.Results = s.scoreDocuments(query, terms, set)
		out.Degraded = true
		return out, nil
	}

	byDoc := make(map[int64][]*domain.Chunk, len(set.Documents))
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	for _, doc := range set.Documents {
		docChunks := byDoc[doc.ID]
		if len(docChunks) == 0 {
			if score := termCoverage(terms, doc.SearchableText(doc.Content)); score > 0 {
				out.Results = append(out.Results, keywordResult(doc, 0, doc.Content, score))
			}
			continue
		}
		for _, c := range docChunks {
			if score := termCoverage(terms, doc.SearchableText(c.Content)); score > 0 {
				out.Results = append(out.Results, keywordResult(doc, c.ChunkIndex, c.Content, score))
			}
		}
	}

	sortBySimilarity(out.Results)
	out.Results = truncate(out.Results, k)
	return out, nil
}

// scoreDocuments is the fallback scorer: a whole-document match of the
// full query scores 1, otherwise the document's term coverage.
func (s *KeywordSearcher) scoreDocuments(query string, terms []string, set *CandidateSet) []*domain.SearchResult {
	phrase := strings.ToLower(NormalizeQuery(query))
	results := []*domain.SearchResult{}
	for _, doc := range set.Documents {
		text := doc.SearchableText(doc.Content)
		score := termCoverage(terms, text)
		if strings.Contains(strings.ToLower(NormalizeQuery(text)), phrase) {
			score = 1
		}
		if score > 0 {
			results = append(results, keywordResult(doc, 0, doc.Content, score))
		}
	}
	sortBySimilarity(results)
	return results
}

func keywordResult(doc *domain.Document, chunkIndex int, content string, score float64) *domain.SearchResult {
	r := domain.NewSearchResult(doc, chunkIndex, content, score)
	r.MatchType = domain.MatchTypeKeyword
	r.KeywordScore = score
	return r
}

func sortBySimilarity(results []*domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

func truncate(results []*domain.SearchResult, k int) []*domain.SearchResult {
	if k > 0 && len(results) > k {
		return results[:k]
	}
	return results
}
