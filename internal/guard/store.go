package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

type counter struct {
	windowStart time.Time
	count       int64
}

// MemoryStore keeps counters in process. A counter from an elapsed window is
// reset on its next increment; ttlcache only reclaims memory for idle keys.
type MemoryStore struct {
	mu       sync.Mutex
	counters *ttlcache.Cache[string, counter]
}

// NewMemoryStore builds an in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: ttlcache.New[string, counter](
			ttlcache.WithDisableTouchOnHit[string, counter](),
		),
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := counter{windowStart: windowStart}
	if item := s.counters.Get(key); item != nil && item.Value().windowStart.Equal(windowStart) {
		c = item.Value()
	}
	c.count++
	s.counters.Set(key, c, ttl)
	return c.count, nil
}

// Len reports tracked keys, including ones not yet reclaimed.
func (s *MemoryStore) Len() int {
	return s.counters.Len()
}

// Start runs the expiry loop until Stop is called.
func (s *MemoryStore) Start() {
	s.counters.Start()
}

// Stop ends the expiry loop.
func (s *MemoryStore) Stop() {
	s.counters.Stop()
}

// RedisStore shares counters between processes. Each window gets its own key
// so no reset is needed; PEXPIRE removes it after the window.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore builds a Redis-backed counter store.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	k := windowKey(s.prefix, key, windowStart)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.PExpire(ctx, k, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func windowKey(prefix, key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", prefix, key, windowStart.Unix())
}
