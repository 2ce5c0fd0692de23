package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

// ErrRemoteUnavailable is returned while the Redis circuit breaker is open.
var ErrRemoteUnavailable = errors.New("shared result cache unavailable (circuit breaker open)")

// cachedDetail is the value stored in Redis
type cachedDetail struct {
	Detail   *domain.ClassificationDetail `json:"detail"`
	CachedAt time.Time                    `json:"cached_at"`
}

// RedisStore is a shared result store guarded by a circuit breaker, so a
// Redis outage degrades to local-only caching instead of slowing every call.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
	ttl     time.Duration
}

// NewRedisStore creates a store from configuration. It does not connect;
// call Ping to check reachability.
func NewRedisStore(cfg domain.RedisConfig, logger *logrus.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	// the breaker decides when to stop trying
	opts.MaxRetries = -1

	return newRedisStore(redis.NewClient(opts), cfg, logger), nil
}

func newRedisStore(client *redis.Client, cfg domain.RedisConfig, logger *logrus.Logger) *RedisStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "vci:classification:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-result-cache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RedisStore{
		client:  client,
		breaker: breaker,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// Get fetches a detail. A missing key is (nil, false, nil).
func (r *RedisStore) Get(ctx context.Context, key string) (*domain.ClassificationDetail, bool, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		val, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return nil, false, r.wrap("get", err)
	}
	if result == nil {
		return nil, false, nil
	}

	var cached cachedDetail
	if err := json.Unmarshal(result.([]byte), &cached); err != nil || cached.Detail == nil {
		// corrupted entry
		r.client.Del(ctx, r.prefix+key)
		return nil, false, nil
	}
	return cached.Detail, true, nil
}

// Set stores a detail with the configured TTL.
func (r *RedisStore) Set(ctx context.Context, key string, detail *domain.ClassificationDetail) error {
	data, err := json.Marshal(cachedDetail{Detail: detail, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal cached detail: %w", err)
	}
	_, err = r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
	})
	if err != nil {
		return r.wrap("set", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (r *RedisStore) BreakerState() string {
	return r.breaker.State().String()
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) wrap(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrRemoteUnavailable
	}
	return fmt.Errorf("redis %s failed: %w", op, err)
}
