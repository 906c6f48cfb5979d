package domain

import (
	"fmt"
	"strings"
	"time"
)

// AugmentationConfidenceGate is the minimum confidence at which an augmented
// query replaces the original.
const AugmentationConfidenceGate = 0.6

// ChatType identifies the conversation surface a query came from
type ChatType string

const (
	ChatTypeGeneral  ChatType = "general"
	ChatTypeDocument ChatType = "document"
	ChatTypeAgent    ChatType = "agent"
)

// IsValid returns true if this is a known chat type
func (t ChatType) IsValid() bool {
	switch t {
	case ChatTypeGeneral, ChatTypeDocument, ChatTypeAgent:
		return true
	default:
		return false
	}
}

// Roles a recorded turn may carry
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatTurn is one message of a conversation
type ChatTurn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate rejects turns that cannot be recorded
func (t *ChatTurn) Validate() error {
	if t.Role != ChatRoleUser && t.Role != ChatRoleAssistant {
		return fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, ChatRoleUser, ChatRoleAssistant)
	}
	if strings.TrimSpace(t.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return nil
}

// HistoryQuery identifies a conversation and how much of it to load
type HistoryQuery struct {
	UserID    string
	ChatType  ChatType
	ContextID string
	AgentID   *int64
	Limit     int
}

// Validate checks that q names a single conversation
func (q *HistoryQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !q.ChatType.IsValid() {
		return fmt.Errorf("%w: unknown chat type %q", ErrInvalidInput, q.ChatType)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	return nil
}

// AugmentationRequest asks for a history-aware rewrite of a query
type AugmentationRequest struct {
	Query        string   `json:"query"`
	UserID       string   `json:"-"`
	ChatType     ChatType `json:"chat_type"`
	ContextID    string   `json:"context_id,omitempty"`
	AgentID      *int64   `json:"agent_id,omitempty"`
	HistoryLimit int      `json:"history_limit,omitempty"`
}

// AugmentationResult is the outcome of query augmentation
type AugmentationResult struct {
	OriginalQuery      string   `json:"original_query"`
	AugmentedQuery     string   `json:"augmented_query"`
	ExtractedKeywords  []string `json:"extracted_keywords"`
	ContextualInsights string   `json:"contextual_insights"`
	Confidence         float64  `json:"confidence"`
	ShouldUseAugmented bool     `json:"should_use_augmented"`
}

// NewAugmentationResult builds a result, deriving the use gate from confidence
func NewAugmentationResult(original, augmented string, keywords []string, insights string, confidence float64) *AugmentationResult {
	return &AugmentationResult{
		OriginalQuery:      original,
		AugmentedQuery:     augmented,
		ExtractedKeywords:  keywords,
		ContextualInsights: insights,
		Confidence:         confidence,
		ShouldUseAugmented: confidence >= AugmentationConfidenceGate,
	}
}

// UnaugmentedResult is returned whenever augmentation fails or is skipped
func UnaugmentedResult(original string) *AugmentationResult {
	return &AugmentationResult{
		OriginalQuery:     original,
		AugmentedQuery:    original,
		ExtractedKeywords: []string{},
	}
}

// EffectiveQuery returns the query a search should run with
func (r *AugmentationResult) EffectiveQuery() string {
	if r != nil && r.ShouldUseAugmented && r.AugmentedQuery != "" {
		return r.AugmentedQuery
	}
	if r == nil {
		return ""
	}
	return r.OriginalQuery
}
