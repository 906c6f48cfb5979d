package ai

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// DefaultQueryCacheSize is the number of query embeddings kept in memory
const DefaultQueryCacheSize = 10000

// Ensure CachedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*CachedEmbedding)(nil)

// CachedEmbedding memoizes query embeddings with LRU eviction.
// Batch Embed calls pass through uncached.
type CachedEmbedding struct {
	next  driven.EmbeddingService
	cache *lru.Cache[[32]byte, []float32]
}

// NewCachedEmbedding wraps an embedding service with a query cache
func NewCachedEmbedding(next driven.EmbeddingService, size int) (*CachedEmbedding, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	cache, err := lru.New[[32]byte, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedding{next: next, cache: cache}, nil
}

// cacheKey scopes the hash to the model so swapped models never share vectors
func (c *CachedEmbedding) cacheKey(query string) [32]byte {
	return blake2b.Sum256([]byte(c.next.Model() + "\x00" + query))
}

// Embed implements EmbeddingService
func (c *CachedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.Embed(ctx, texts)
}

// EmbedQuery returns a copy of the cached vector or embeds and stores it
func (c *CachedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	key := c.cacheKey(query)
	if v, ok := c.cache.Get(key); ok {
		return append([]float32(nil), v...), nil
	}

	v, err := c.next.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]float32(nil), v...))
	return v, nil
}

// Len returns the number of cached queries
func (c *CachedEmbedding) Len() int { return c.cache.Len() }

// Dimensions implements EmbeddingService
func (c *CachedEmbedding) Dimensions() int { return c.next.Dimensions() }

// Model implements EmbeddingService
func (c *CachedEmbedding) Model() string { return c.next.Model() }

// HealthCheck implements EmbeddingService
func (c *CachedEmbedding) HealthCheck(ctx context.Context) error { return c.next.HealthCheck(ctx) }

// Close purges the cache and closes the wrapped service
func (c *CachedEmbedding) Close() error {
	c.cache.Purge()
	return c.next.Close()
}
