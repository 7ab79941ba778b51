// Package cache stores prediction results in Redis so that replicas share
// them. Entries are keyed by model version, so a swap to a different artifact
// never serves a result computed by the previous one.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"predictd/internal/inference"
)

// DefaultTTL bounds how long a cached result outlives its model handle.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "predictd:result:"

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is an inference.ResultCache backed by a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the server and verifies it answers PING.
func NewRedis(ctx context.Context, o Options) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", o.Addr, err)
	}
	return WithClient(rdb, o.TTL), nil
}

// WithClient wraps an existing client.
func WithClient(c *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: c, ttl: ttl}
}

// Get returns the cached result for key. A miss is (zero, false, nil).
func (r *Redis) Get(ctx context.Context, key string) (inference.Result, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return inference.Result{}, false, nil
	}
	if err != nil {
		return inference.Result{}, false, err
	}
	var res inference.Result
	if err := json.Unmarshal(val, &res); err != nil {
		// A corrupt entry is treated as a miss and overwritten on Set.
		return inference.Result{}, false, nil
	}
	return res, true, nil
}

// Set stores res under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, res inference.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err()
}

// Ping reports whether the server is reachable.
func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }
