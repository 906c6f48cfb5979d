package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HistoryStore = (*HistoryStore)(nil)

const (
	// Key prefix for conversation lists
	historyPrefix = "chat:history:"

	// DefaultHistoryTTL is how long an idle conversation is kept
	DefaultHistoryTTL = 7 * 24 * time.Hour

	// DefaultMaxTurns caps the stored list per conversation
	DefaultMaxTurns = 100
)

// HistoryStore implements driven.HistoryStore using Redis lists.
// Each conversation is a list of JSON turns, oldest at the head.
type HistoryStore struct {
	client   *redis.Client
	ttl      time.Duration
	maxTurns int
}

// NewHistoryStore creates a new Redis-backed HistoryStore
func NewHistoryStore(client *redis.Client, ttl time.Duration, maxTurns int) *HistoryStore {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &HistoryStore{client: client, ttl: ttl, maxTurns: maxTurns}
}

// historyKey identifies one conversation
func historyKey(q domain.HistoryQuery) string {
	agent := "-"
	if q.AgentID != nil {
		agent = strconv.FormatInt(*q.AgentID, 10)
	}
	return historyPrefix + q.UserID + ":" + string(q.ChatType) + ":" + q.ContextID + ":" + agent
}

// GetHistory returns the last q.Limit turns, oldest first
func (s *HistoryStore) GetHistory(ctx context.Context, q domain.HistoryQuery) ([]*domain.ChatTurn, error) {
	if q.Limit <= 0 {
		return []*domain.ChatTurn{}, nil
	}

	items, err := s.client.LRange(ctx, historyKey(q), int64(-q.Limit), -1).Result()
	if err == redis.Nil {
		return []*domain.ChatTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	turns := make([]*domain.ChatTurn, 0, len(items))
	for _, item := range items {
		var turn domain.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			// Skip corrupted entries
			continue
		}
		turns = append(turns, &turn)
	}
	return turns, nil
}

// Append pushes a turn, trims the list and refreshes its TTL
func (s *HistoryStore) Append(ctx context.Context, q domain.HistoryQuery, turn *domain.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := historyKey(q)

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}
