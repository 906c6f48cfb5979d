package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kms/internal/runtime"
)

// Ensure augmentationService implements AugmentationService
var _ driving.AugmentationService = (*augmentationService)(nil)

const (
	defaultAugmentationTimeout = 15 * time.Second
	defaultHistoryLimit        = 5
)

// AugmentationConfig tunes query augmentation
type AugmentationConfig struct {
	Timeout      time.Duration // Per-call LLM budget (default 15s)
	HistoryLimit int           // Turns loaded when the request does not say (default 5)

	// SkipWithoutHistory returns the original query when the conversation has
	// no turns. When false an optimization prompt runs on the bare query.
	SkipWithoutHistory bool

	Logger *slog.Logger
}

// augmentationService implements the AugmentationService interface
type augmentationService struct {
	history  driven.HistoryStore
	services *runtime.Services
	cfg      AugmentationConfig
	logger   *slog.Logger
}

// NewAugmentationService creates a new AugmentationService
// The LLM is looked up per call through services; history may be nil
func NewAugmentationService(history driven.HistoryStore, services *runtime.Services, cfg AugmentationConfig) driving.AugmentationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAugmentationTimeout
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &augmentationService{
		history:  history,
		services: services,
		cfg:      cfg,
		logger:   logger,
	}
}

// llmAugmentation is the JSON object the model is asked to return
type llmAugmentation struct {
	AugmentedQuery     string   `json:"augmentedQuery"`
	ExtractedKeywords  []string `json:"extractedKeywords"`
	ContextualInsights string   `json:"contextualInsights"`
	Confidence         float64  `json:"confidence"`
}

// AugmentQuery rewrites req.Query with the help of recent conversation turns
func (s *augmentationService) AugmentQuery(ctx context.Context, req domain.AugmentationRequest) *domain.AugmentationResult {
	query := NormalizeQuery(req.Query)
	if query == "" {
		return domain.UnaugmentedResult(req.Query)
	}

	llm := s.services.LLMService()
	if llm == nil {
		return domain.UnaugmentedResult(query)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	turns := s.loadHistory(ctx, req)
	if len(turns) == 0 && s.cfg.SkipWithoutHistory {
		return domain.UnaugmentedResult(query)
	}

	raw, err := llm.Complete(ctx, augmentationPrompt(query, turns), driven.CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   400,
		JSONMode:    true,
	})
	if err != nil {
		s.logger.Warn("query augmentation failed", "user_id", req.UserID, "error", err)
		return domain.UnaugmentedResult(query)
	}

	parsed, err := parseAugmentation(raw)
	if err != nil {
		s.logger.Warn("query augmentation returned unusable output", "user_id", req.UserID, "error", err)
		return domain.UnaugmentedResult(query)
	}

	keywords := parsed.ExtractedKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return domain.NewAugmentationResult(query, NormalizeQuery(parsed.AugmentedQuery), keywords,
		parsed.ContextualInsights, clampConfidence(parsed.Confidence))
}

func (s *augmentationService) loadHistory(ctx context.Context, req domain.AugmentationRequest) []*domain.ChatTurn {
	if s.history == nil || req.UserID == "" {
		return nil
	}
	limit := req.HistoryLimit
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	chatType := req.ChatType
	if chatType == "" {
		chatType = domain.ChatTypeGeneral
	}

	turns, err := s.history.GetHistory(ctx, domain.HistoryQuery{
		UserID:    req.UserID,
		ChatType:  chatType,
		ContextID: req.ContextID,
		AgentID:   req.AgentID,
		Limit:     limit,
	})
	if err != nil {
		s.logger.Warn("conversation history unavailable", "user_id", req.UserID, "error", err)
		return nil
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

const augmentationSystemPrompt = `You rewrite search queries for a document retrieval system.
Documents may be in Thai or English. Keep the user's language.
Resolve pronouns and follow-up references using the conversation, add close synonyms,
and keep names, codes and numbers exactly as written.
Respond with a JSON object only:
{"augmentedQuery": string, "extractedKeywords": [string], "contextualInsights": string, "confidence": number between 0 and 1}
Use a low confidence when the conversation does not clarify the query.`

func augmentationPrompt(query string, turns []*domain.ChatTurn) []driven.LLMMessage {
	var b strings.Builder
	if len(turns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("There is no earlier conversation. Optimize the query on its own.\n\n")
	}
	fmt.Fprintf(&b, "Current query: %s", query)

	return []driven.LLMMessage{
		{Role: "system", Content: augmentationSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// parseAugmentation decodes model output, repairing malformed JSON when possible
func parseAugmentation(raw string) (*llmAugmentation, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var out llmAugmentation
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return nil, fmt.Errorf("decode augmentation: %w", err)
		}
		out = llmAugmentation{}
		if err := json.Unmarshal([]byte(repaired), &out); err != nil {
			return nil, fmt.Errorf("decode repaired augmentation: %w", err)
		}
	}

	if strings.TrimSpace(out.AugmentedQuery) == "" {
		return nil, fmt.Errorf("augmented query is empty")
	}
	return &out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
