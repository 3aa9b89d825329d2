// Package stats counts delivered archives per transfer.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Counter is a set of named monotonic counters.
type Counter interface {
	// Inc increments key and returns the new value.
	Inc(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Close() error
}

type Memory struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[string]int64)}
}

func (m *Memory) Inc(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *Memory) Get(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key], nil
}

func (m *Memory) Close() error {
	return nil
}

// DefaultRedisKey is the hash holding all counters.
const DefaultRedisKey = "instant:archives"

// Redis keeps counters as fields of one Redis hash.
type Redis struct {
	cl  *redis.Client
	key string
}

// NewRedis connects to the server at rawURL (redis://...) and checks it is
// reachable.
func NewRedis(ctx context.Context, rawURL, key string) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	cl := redis.NewClient(opt)
	if _, err := cl.Ping(ctx).Result(); err != nil {
		return nil, errors.Join(fmt.Errorf("cannot reach redis: %w", err), cl.Close())
	}

	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{cl: cl, key: key}, nil
}

func (r *Redis) Inc(ctx context.Context, key string) (int64, error) {
	n, err := r.cl.HIncrBy(ctx, r.key, key, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment %s: %w", key, err)
	}
	return n, nil
}

func (r *Redis) Get(ctx context.Context, key string) (int64, error) {
	n, err := r.cl.HGet(ctx, r.key, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("cannot get %s: %w", key, err)
	}
	return n, nil
}

func (r *Redis) Close() error {
	return r.cl.Close()
}
