package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/observability"
)

// RedisStore persists session state in Redis so plan state survives across
// CLI invocations and hosts.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	metrics observability.MetricsRegistry
}

// NewRedisStore connects to Redis and returns a RedisStore. The client is
// instrumented for OpenTelemetry tracing.
func NewRedisStore(addr string, ttl time.Duration, metrics observability.MetricsRegistry) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return &RedisStore{client: client, ttl: ttl, metrics: metrics}, nil
}

// NewRedisStoreFromClient wraps an existing client (for testing with miniredis).
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration, metrics observability.MetricsRegistry) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, metrics: metrics}
}

func (r *RedisStore) key(key string) string {
	return "adbudget:session:" + key
}

func (r *RedisStore) Save(ctx context.Context, key string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		r.metrics.IncrementSessionOps("save", "failure")
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		r.metrics.IncrementSessionOps("save", "failure")
		return fmt.Errorf("save session: %w", err)
	}
	r.metrics.IncrementSessionOps("save", "success")
	return nil
}

func (r *RedisStore) Load(ctx context.Context, key string) (*State, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		r.metrics.IncrementSessionOps("load", "miss")
		return nil, ErrNotFound
	}
	if err != nil {
		r.metrics.IncrementSessionOps("load", "failure")
		return nil, fmt.Errorf("load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		r.metrics.IncrementSessionOps("load", "failure")
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	r.metrics.IncrementSessionOps("load", "success")
	return &st, nil
}

func (r *RedisStore) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.metrics.IncrementSessionOps("clear", "failure")
		return fmt.Errorf("clear session: %w", err)
	}
	r.metrics.IncrementSessionOps("clear", "success")
	return nil
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.client != nil {
		if err := r.client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
