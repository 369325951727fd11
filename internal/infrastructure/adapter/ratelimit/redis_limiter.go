package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/tracing"
)

const keyPrefix = "credit-ledger:ratelimit"

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisLimiter is a sliding-window limiter backed by one sorted set per key
type RedisLimiter struct {
	rdb          redis.Cmdable
	timeProvider coreport.TimeProvider
}

// NewRedisClient opens a client for opts. The connection is lazy; use Ping to verify it.
func NewRedisClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewRedisLimiter creates a limiter on rdb
func NewRedisLimiter(rdb redis.Cmdable, timeProvider coreport.TimeProvider) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, timeProvider: timeProvider}
}

// Key builds the limiter key for one caller on one route
func Key(subject, route string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, route, subject)
}

// Allow reports whether another request fits into the window for key and records it if so
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracing.Tracer("ratelimit").Start(ctx, "ratelimit.Allow")
	defer span.End()
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)

	if limit <= 0 {
		return false, nil
	}

	now := l.timeProvider.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rate limit lookup failed: %w", err)
	}

	count := countCmd.Val()
	span.SetAttributes(attribute.Int64("ratelimit.current_count", count))
	if count >= int64(limit) {
		span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
		return false, nil
	}

	pipe = l.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rate limit record failed: %w", err)
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", true))
	return true, nil
}
