package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/telemetry"
)

const (
	retrievalKeyPrefix = "rag:"
	scanBatch          = 100
)

var ErrCacheMiss = errors.New("cache miss")

// RedisCacheRepository implements domain.CacheRepository over redis with a
// span per call.
type RedisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{client: client}
}

func startCacheSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", "redis"))
	return telemetry.Tracer().Start(ctx, "cache."+op, trace.WithAttributes(attrs...))
}

// Get decodes the cached value into dest, or returns ErrCacheMiss.
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	ctx, span := startCacheSpan(ctx, "get", attribute.String("cache.key", key))
	defer span.End()

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return ErrCacheMiss
	case err != nil:
		span.RecordError(err)
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))

	if err := json.Unmarshal(raw, dest); err != nil {
		// a stale shape after a deploy is a miss, not a failure
		_ = r.client.Del(ctx, key).Err()
		return ErrCacheMiss
	}
	return nil
}

func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := startCacheSpan(ctx, "set",
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
	)
	defer span.End()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// InvalidateUser drops every cached plan view and dashboard of the user.
func (r *RedisCacheRepository) InvalidateUser(ctx context.Context, userID string) error {
	ctx, span := startCacheSpan(ctx, "invalidate")
	defer span.End()

	removed := 0
	for _, prefix := range []string{domain.PlanViewKeyPrefix, domain.DashboardKeyPrefix} {
		n, err := r.unlinkMatching(ctx, prefix+userID+":*")
		removed += n
		if err != nil {
			span.RecordError(err)
			return err
		}
	}
	span.SetAttributes(attribute.Int("cache.keys_removed", removed))
	return nil
}

// unlinkMatching walks the keyspace with SCAN and unlinks matches one batch
// at a time.
func (r *RedisCacheRepository) unlinkMatching(ctx context.Context, pattern string) (int, error) {
	removed := 0
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to unlink %s: %w", pattern, err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	return removed, flush()
}
