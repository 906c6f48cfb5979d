package services

import (
	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// CandidateSet is the set of documents a single search may return.
// Both ranking signals draw from the same set.
type CandidateSet struct {
	UserID    string
	Documents []*domain.Document

	// Restricted is true when the caller narrowed the corpus (allowlist,
	// category or date range), so stores must be told which ids to search.
	Restricted bool

	byID map[int64]*domain.Document
}

// NewCandidateSet indexes documents for lookup
func NewCandidateSet(userID string, docs []*domain.Document, restricted bool) *CandidateSet {
	byID := make(map[int64]*domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return &CandidateSet{
		UserID:     userID,
		Documents:  docs,
		Restricted: restricted,
		byID:       byID,
	}
}

// Document returns the candidate with the given id, or nil
func (c *CandidateSet) Document(id int64) *domain.Document {
	return c.byID[id]
}

// IDs lists candidate document ids in set order
func (c *CandidateSet) IDs() []int64 {
	ids := make([]int64, len(c.Documents))
	for i, d := range c.Documents {
		ids[i] = d.ID
	}
	return ids
}

// Empty reports whether no document can match
func (c *CandidateSet) Empty() bool {
	return len(c.Documents) == 0
}
