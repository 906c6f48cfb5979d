package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
)

// Ensure conversationService implements ConversationService
var _ driving.ConversationService = (*conversationService)(nil)

const (
	defaultConversationLimit = 20
	maxConversationLimit     = 100
)

// conversationService implements the ConversationService interface
type conversationService struct {
	history driven.HistoryStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewConversationService creates a new ConversationService
func NewConversationService(history driven.HistoryStore, logger *slog.Logger) driving.ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &conversationService{history: history, logger: logger, now: time.Now}
}

// RecordTurn validates and stores a turn. CreatedAt defaults to now.
func (s *conversationService) RecordTurn(ctx context.Context, conv domain.HistoryQuery, turn domain.ChatTurn) (*domain.ChatTurn, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	turn.Content = strings.TrimSpace(turn.Content)
	if err := turn.Validate(); err != nil {
		return nil, err
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now().UTC()
	}

	if err := s.history.Append(ctx, conv, &turn); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}
	s.logger.Debug("conversation turn recorded",
		"user_id", conv.UserID,
		"chat_type", conv.ChatType,
		"context_id", conv.ContextID,
		"role", turn.Role)
	return &turn, nil
}

// History returns up to conv.Limit turns (default 20, at most 100)
func (s *conversationService) History(ctx context.Context, conv domain.HistoryQuery) ([]*domain.ChatTurn, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	switch {
	case conv.Limit == 0:
		conv.Limit = defaultConversationLimit
	case conv.Limit > maxConversationLimit:
		conv.Limit = maxConversationLimit
	}

	turns, err := s.history.GetHistory(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if turns == nil {
		turns = []*domain.ChatTurn{}
	}
	return turns, nil
}
