package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const defaultRetrievalTTL = 30 * time.Minute

// CachedRetriever wraps a ContextRetriever with a redis read-through cache
// keyed by the normalized query and k. Cache errors never fail a retrieval.
type CachedRetriever struct {
	next  domain.ContextRetriever
	cache *RedisCacheRepository
	ttl   time.Duration
}

func NewCachedRetriever(next domain.ContextRetriever, cache *RedisCacheRepository, ttl time.Duration) *CachedRetriever {
	if ttl <= 0 {
		ttl = defaultRetrievalTTL
	}
	return &CachedRetriever{next: next, cache: cache, ttl: ttl}
}

func retrievalKey(query string, k int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(strings.Fields(query), " "))))
	return fmt.Sprintf("%s%d:%s", retrievalKeyPrefix, k, hex.EncodeToString(sum[:8]))
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	key := retrievalKey(query, k)

	var snippets []string
	if err := r.cache.Get(ctx, key, &snippets); err == nil {
		return snippets, nil
	}

	result, err := r.next.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(result) > 0 {
		_ = r.cache.Set(ctx, key, result, r.ttl)
	}
	return result, nil
}
