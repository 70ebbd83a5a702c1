package redisstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient creates a Redis client from environment configuration and
// verifies the connection.
func NewClient(logger *zap.Logger) (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379" // Default for development
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis", zap.String("addr", addr))
	return client, nil
}

// Counter implements CounterStore on Redis. INCR gives the atomic
// increment; EXPIRE keeps hour buckets from accumulating forever.
type Counter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCounter creates a Redis-backed counter store.
func NewCounter(client *redis.Client, logger *zap.Logger) *Counter {
	return &Counter{
		client: client,
		logger: logger,
	}
}

// Get implements CounterStore.
func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	count, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %q: %w", key, err)
	}
	return count, nil
}

// Increment implements CounterStore. INCR and EXPIRE run in one
// round trip via a transactional pipeline.
func (c *Counter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis increment %q: %w", key, err)
	}
	return incr.Val(), nil
}
