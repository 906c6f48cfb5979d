package domain

import (
	"strings"
	"time"
)

// Document is an uploaded document owned by a single user.
// Documents are written by the ingestion pipeline and only read here.
type Document struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary,omitempty"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchableText joins the fields matched by keyword search, with body
// standing in for the document content (a chunk's text or the whole document).
func (d *Document) SearchableText(body string) string {
	parts := make([]string, 0, 4+len(d.Tags))
	parts = append(parts, d.Name, body, d.Summary, d.Category)
	parts = append(parts, d.Tags...)
	return strings.Join(parts, " ")
}

// Chunk is a contiguous text segment of a document with its embedding.
// ChunkIndex is unique within a document.
type Chunk struct {
	DocumentID int64     `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// ChunkKey identifies a chunk across documents
type ChunkKey struct {
	DocumentID int64
	ChunkIndex int
}

// Key returns the chunk's identity
func (c *Chunk) Key() ChunkKey {
	return ChunkKey{DocumentID: c.DocumentID, ChunkIndex: c.ChunkIndex}
}

// ScoredChunk is a chunk returned by a nearest-neighbour lookup
type ScoredChunk struct {
	Chunk      *Chunk  `json:"chunk"`
	Similarity float64 `json:"similarity"` // Raw cosine similarity
}

// DateRange restricts documents by creation time. Zero bounds are open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the range
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// DocumentFilter narrows the candidate documents for a search.
// A nil DocumentIDs means every document the user owns; a non-nil empty
// slice matches nothing.
type DocumentFilter struct {
	DocumentIDs []int64
	Category    string
	DateRange   *DateRange
}

// Matches reports whether doc passes the filter
func (f *DocumentFilter) Matches(doc *Document) bool {
	if f == nil {
		return true
	}
	if f.DocumentIDs != nil && !containsID(f.DocumentIDs, doc.ID) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, doc.Category) {
		return false
	}
	return f.DateRange.Contains(doc.CreatedAt)
}

// Agent is a configured assistant bound to a fixed set of documents
type Agent struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	DocumentIDs []int64 `json:"document_ids"`
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
