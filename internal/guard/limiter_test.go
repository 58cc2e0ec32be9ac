package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Time, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func windowBase() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestLimiterThreshold(t *testing.T) {
	clock := &fakeClock{now: windowBase().Add(15 * time.Second)}
	l := NewLimiter(NewMemoryStore(), time.Minute, map[string]int{GroupMessage: 3}, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(ctx, "addr:1.2.3.4", GroupMessage))
	}

	err := l.Check(ctx, "addr:1.2.3.4", GroupMessage)
	require.ErrorIs(t, err, ErrRateLimited)
	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, GroupMessage, rl.Group)
	assert.Equal(t, 45*time.Second, rl.RetryAfter)

	assert.Equal(t, LimiterStats{Allowed: 3, Rejected: 1}, l.Stats())
}

func TestLimiterFreshWindowResets(t *testing.T) {
	clock := &fakeClock{now: windowBase().Add(59 * time.Second)}
	l := NewLimiter(NewMemoryStore(), time.Minute, map[string]int{GroupOTP: 1}, clock)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "k", GroupOTP))
	require.ErrorIs(t, l.Check(ctx, "k", GroupOTP), ErrRateLimited)

	clock.Set(windowBase().Add(60 * time.Second))
	assert.NoError(t, l.Check(ctx, "k", GroupOTP))
	assert.ErrorIs(t, l.Check(ctx, "k", GroupOTP), ErrRateLimited)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{now: windowBase()}
	l := NewLimiter(NewMemoryStore(), time.Minute, map[string]int{
		GroupMessage: 1,
		GroupUpload:  1,
	}, clock)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "a", GroupMessage))
	assert.NoError(t, l.Check(ctx, "b", GroupMessage), "other identity")
	assert.NoError(t, l.Check(ctx, "a", GroupUpload), "other group")
	assert.Error(t, l.Check(ctx, "a", GroupMessage))
}

func TestLimiterUnknownGroupUsesDefault(t *testing.T) {
	clock := &fakeClock{now: windowBase()}
	l := NewLimiter(NewMemoryStore(), time.Minute, map[string]int{GroupDefault: 1}, clock)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, "a", "stream"))
	err := l.Check(ctx, "a", "other")
	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, GroupDefault, rl.Group)
}

func TestLimiterDisabledGroup(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), time.Minute, map[string]int{GroupMessage: 0}, nil)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Check(context.Background(), "a", GroupMessage))
	}
}

func TestLimiterPropagatesStoreErrors(t *testing.T) {
	l := NewLimiter(failingStore{}, time.Minute, map[string]int{GroupMessage: 1}, nil)
	err := l.Check(context.Background(), "a", GroupMessage)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestLimiterConcurrentCallsCountExactly(t *testing.T) {
	clock := &fakeClock{now: windowBase()}
	l := NewLimiter(NewMemoryStore(), time.Minute, map[string]int{GroupMessage: 50}, clock)

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Check(context.Background(), "a", GroupMessage); err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 30, rejected)
}

func TestMemoryStoreTracksKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := windowBase()

	n, err := s.Incr(ctx, "a", start, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Incr(ctx, "a", start, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.Incr(ctx, "a", start.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "new window resets lazily")
	assert.Equal(t, 1, s.Len())
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "session:abc", Identity("abc", "10.0.0.1"))
	assert.Equal(t, "addr:10.0.0.1", Identity("", "10.0.0.1"))
}

func TestWindowKey(t *testing.T) {
	assert.Equal(t, "rl:message|addr:1.2.3.4:1772366400", windowKey("rl", "message|addr:1.2.3.4", windowBase()))
}
