package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// Weights are the fusion coefficients. They need not sum to 1 and fused
// scores are never renormalized.
type Weights struct {
	Keyword float64
	Vector  float64
}

// Selection decides how many ranked results survive. With no ChunkMaxType the
// result is cut to Limit (no cut when Limit <= 0).
type Selection struct {
	Limit         int
	ChunkMaxType  domain.ChunkMaxType
	ChunkMaxValue float64
}

// Count returns how many of n ranked candidates to keep
func (s Selection) Count(n int) int {
	if n == 0 {
		return 0
	}
	switch s.ChunkMaxType {
	case domain.ChunkMaxNumber:
		return min(int(s.ChunkMaxValue), n)
	case domain.ChunkMaxPercentage:
		// The epsilon keeps exact products such as 10*30/100 from rounding up.
		k := int(math.Ceil(float64(n)*s.ChunkMaxValue/100 - 1e-9))
		return min(max(1, k), n)
	default:
		if s.Limit <= 0 {
			return n
		}
		return min(s.Limit, n)
	}
}

type fusedEntry struct {
	result      *domain.SearchResult
	vectorRank  int
	keywordRank int
	seq         int
}

// Fuse combines vector and keyword hits additively per (document, chunk).
// Vector hits seed the accumulator; keyword hits add to an existing entry or
// create one. The returned slice is sorted by fused score descending, with
// ties broken by vector rank, then keyword rank, then first appearance.
// Inputs are not modified.
func Fuse(vector, keyword []*domain.SearchResult, w Weights) []*domain.SearchResult {
	acc := make(map[domain.ChunkKey]*fusedEntry, len(vector)+len(keyword))
	entries := make([]*fusedEntry, 0, len(vector)+len(keyword))

	lookup := func(r *domain.SearchResult) *fusedEntry {
		if e, ok := acc[r.Key()]; ok {
			return e
		}
		clone := *r
		clone.Similarity = 0
		clone.KeywordScore = 0
		clone.VectorScore = 0
		clone.MatchType = ""
		e := &fusedEntry{
			result:      &clone,
			vectorRank:  math.MaxInt,
			keywordRank: math.MaxInt,
			seq:         len(entries),
		}
		acc[r.Key()] = e
		entries = append(entries, e)
		return e
	}

	for i, r := range vector {
		e := lookup(r)
		e.result.Similarity += r.Similarity * w.Vector
		e.result.VectorScore = r.Similarity
		e.vectorRank = min(e.vectorRank, i)
	}
	for i, r := range keyword {
		e := lookup(r)
		e.result.Similarity += r.Similarity * w.Keyword
		e.result.KeywordScore = r.Similarity
		e.keywordRank = min(e.keywordRank, i)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.result.Similarity != b.result.Similarity {
			return a.result.Similarity > b.result.Similarity
		}
		if a.vectorRank != b.vectorRank {
			return a.vectorRank < b.vectorRank
		}
		if a.keywordRank != b.keywordRank {
			return a.keywordRank < b.keywordRank
		}
		return a.seq < b.seq
	})

	out := make([]*domain.SearchResult, len(entries))
	for i, e := range entries {
		e.result.MatchType = matchType(e)
		out[i] = e.result
	}
	return out
}

func matchType(e *fusedEntry) domain.MatchType {
	switch {
	case e.vectorRank != math.MaxInt && e.keywordRank != math.MaxInt:
		return domain.MatchTypeHybrid
	case e.vectorRank != math.MaxInt:
		return domain.MatchTypeSemantic
	default:
		return domain.MatchTypeKeyword
	}
}

// ApplyThreshold keeps results whose score is at least threshold, preserving order
func ApplyThreshold(results []*domain.SearchResult, threshold float64) []*domain.SearchResult {
	kept := make([]*domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// Select cuts ranked results to the size chosen by sel
func Select(results []*domain.SearchResult, sel Selection) []*domain.SearchResult {
	return results[:sel.Count(len(results))]
}

// Rank fuses, filters and truncates in one step. It also returns the number
// of candidates that passed the threshold.
func Rank(vector, keyword []*domain.SearchResult, w Weights, threshold float64, sel Selection) ([]*domain.SearchResult, int) {
	candidates := ApplyThreshold(Fuse(vector, keyword, w), threshold)
	return Select(candidates, sel), len(candidates)
}
