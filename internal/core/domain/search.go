package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SearchType determines which signals contribute to ranking
type SearchType string

const (
	SearchTypeHybrid   SearchType = "hybrid"   // Keyword + vector (default)
	SearchTypeKeyword  SearchType = "keyword"  // Term matching only
	SearchTypeSemantic SearchType = "semantic" // Vector only
)

// IsValid returns true if this is a known search type
func (t SearchType) IsValid() bool {
	switch t {
	case SearchTypeHybrid, SearchTypeKeyword, SearchTypeSemantic:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if the search type needs a query embedding
func (t SearchType) RequiresEmbedding() bool {
	return t == SearchTypeHybrid || t == SearchTypeSemantic
}

// ChunkMaxType selects how many fused results survive truncation
type ChunkMaxType string

const (
	ChunkMaxNumber     ChunkMaxType = "number"     // Fixed count
	ChunkMaxPercentage ChunkMaxType = "percentage" // Share of post-threshold candidates
)

// Signal names a ranking signal
type Signal string

const (
	SignalKeyword Signal = "keyword"
	SignalVector  Signal = "vector"
)

// MatchType records which signals produced a result
type MatchType string

const (
	MatchTypeKeyword  MatchType = "keyword"
	MatchTypeSemantic MatchType = "semantic"
	MatchTypeHybrid   MatchType = "hybrid"
)

// SearchOptions configures a search request.
// Weights are pointers so an explicit zero can be told apart from "use the default".
type SearchOptions struct {
	SearchType          SearchType   `json:"search_type"`
	Limit               int          `json:"limit"`
	Threshold           float64      `json:"threshold"`
	KeywordWeight       *float64     `json:"keyword_weight,omitempty"`
	VectorWeight        *float64     `json:"vector_weight,omitempty"`
	SpecificDocumentIDs []int64      `json:"specific_document_ids,omitempty"`
	CategoryFilter      string       `json:"category_filter,omitempty"`
	DateRange           *DateRange   `json:"date_range,omitempty"`
	ChunkMaxType        ChunkMaxType `json:"chunk_max_type,omitempty"`
	ChunkMaxValue       float64      `json:"chunk_max_value,omitempty"`

	// Query augmentation
	EnableQueryAugmentation bool     `json:"enable_query_augmentation"`
	ChatType                ChatType `json:"chat_type,omitempty"`
	ContextID               string   `json:"context_id,omitempty"`
	AgentID                 *int64   `json:"agent_id,omitempty"`
	HistoryLimit            int      `json:"history_limit,omitempty"`
}

// Validate rejects options that cannot be satisfied. Zero values are left
// for the caller to default.
func (o *SearchOptions) Validate() error {
	if o.SearchType != "" && !o.SearchType.IsValid() {
		return fmt.Errorf("%w: unknown search type %q", ErrInvalidInput, o.SearchType)
	}
	if o.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	if math.IsNaN(o.Threshold) || o.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative", ErrInvalidInput)
	}
	if o.KeywordWeight != nil && (math.IsNaN(*o.KeywordWeight) || *o.KeywordWeight < 0) {
		return fmt.Errorf("%w: keyword weight must not be negative", ErrInvalidInput)
	}
	if o.VectorWeight != nil && (math.IsNaN(*o.VectorWeight) || *o.VectorWeight < 0) {
		return fmt.Errorf("%w: vector weight must not be negative", ErrInvalidInput)
	}
	if o.HistoryLimit < 0 {
		return fmt.Errorf("%w: history limit must not be negative", ErrInvalidInput)
	}
	switch o.ChunkMaxType {
	case "":
	case ChunkMaxNumber:
		if o.ChunkMaxValue < 1 || o.ChunkMaxValue != math.Trunc(o.ChunkMaxValue) {
			return fmt.Errorf("%w: chunk max count must be a positive integer", ErrInvalidInput)
		}
	case ChunkMaxPercentage:
		if !(o.ChunkMaxValue > 0 && o.ChunkMaxValue <= 100) {
			return fmt.Errorf("%w: chunk max percentage must be in (0, 100]", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown chunk max type %q", ErrInvalidInput, o.ChunkMaxType)
	}
	return nil
}

// ValidateQuery rejects empty or blank queries
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	return nil
}

// SearchResult is one ranked chunk. Similarity holds the fused score and is
// not renormalized, so its range depends on the configured weights.
type SearchResult struct {
	DocumentID   int64     `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	Similarity   float64   `json:"similarity"`
	DocumentName string    `json:"document_name"`
	Category     string    `json:"category,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MatchType    MatchType `json:"match_type,omitempty"`
	KeywordScore float64   `json:"keyword_score"`
	VectorScore  float64   `json:"vector_score"`
}

// Key returns the (document, chunk) identity of the result
func (r *SearchResult) Key() ChunkKey {
	return ChunkKey{DocumentID: r.DocumentID, ChunkIndex: r.ChunkIndex}
}

// NewSearchResult builds a result for a chunk with the owning document's display metadata
func NewSearchResult(doc *Document, chunkIndex int, content string, similarity float64) *SearchResult {
	return &SearchResult{
		DocumentID:   doc.ID,
		ChunkIndex:   chunkIndex,
		Content:      content,
		Similarity:   similarity,
		DocumentName: doc.Name,
		Category:     doc.Category,
		Tags:         doc.Tags,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// SignalResults is the output of one ranking signal
type SignalResults struct {
	Signal   Signal          `json:"signal"`
	Results  []*SearchResult `json:"results"`
	Degraded bool            `json:"degraded"` // Produced by a fallback path
}

// SignalStats summarises one signal's contribution to a response
type SignalStats struct {
	Signal   Signal `json:"signal"`
	Hits     int    `json:"hits"`
	Degraded bool   `json:"degraded"`
	Failed   bool   `json:"failed"`
}

// SearchResponse wraps ranked results with the facts needed to interpret them
type SearchResponse struct {
	Query          string              `json:"query"`
	EffectiveQuery string              `json:"effective_query"`
	SearchType     SearchType          `json:"search_type"`
	Results        []*SearchResult     `json:"results"`
	TotalCount     int                 `json:"total_count"`
	CandidateCount int                 `json:"candidate_count"` // Fused entries surviving the threshold
	Degraded       bool                `json:"degraded"`
	FailedSignals  []Signal            `json:"failed_signals,omitempty"`
	Signals        []SignalStats       `json:"signals,omitempty"`
	Augmentation   *AugmentationResult `json:"augmentation,omitempty"`
	Took           time.Duration       `json:"took" swaggertype:"integer" example:"1500000"`
}
