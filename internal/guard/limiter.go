package guard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Route groups share a counter per caller.
const (
	GroupRegister = "register"
	GroupMessage  = "message"
	GroupUpload   = "upload"
	GroupOTP      = "otp"
	GroupDefault  = "default"
)

// DefaultWindow is the width of a counting bucket.
const DefaultWindow = time.Minute

// ErrRateLimited matches every RateLimitedError via errors.Is.
var ErrRateLimited = errors.New("rate limited")

// RateLimitedError tells the caller how long until the window resets.
type RateLimitedError struct {
	Group      string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s, retry after %s", e.Group, e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CounterStore increments the counter for key within the window starting at
// windowStart. Implementations reset a counter whose window has passed and
// may forget it once ttl elapses.
type CounterStore interface {
	Incr(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error)
}

// LimiterStats counts decisions since start.
type LimiterStats struct {
	Allowed  int64 `json:"rate_allowed"`
	Rejected int64 `json:"rate_rejected"`
}

// Limiter is a fixed-window counter keyed by caller identity and route group.
// Windows are aligned to the wall clock.
type Limiter struct {
	store  CounterStore
	window time.Duration
	limits map[string]int
	clock  Clock

	allowed  atomic.Int64
	rejected atomic.Int64
}

// NewLimiter builds a limiter. limits maps a route group to the number of
// calls allowed per window; GroupDefault covers unknown groups and a
// non-positive limit disables throttling for that group.
func NewLimiter(store CounterStore, window time.Duration, limits map[string]int, clock Clock) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = systemClock{}
	}
	copied := make(map[string]int, len(limits))
	for group, limit := range limits {
		copied[group] = limit
	}
	return &Limiter{store: store, window: window, limits: copied, clock: clock}
}

// Check counts a call by identity against group and returns a
// *RateLimitedError once the count exceeds the group's threshold.
func (l *Limiter) Check(ctx context.Context, identity, group string) error {
	limit, ok := l.limits[group]
	if !ok {
		group = GroupDefault
		limit = l.limits[GroupDefault]
	}
	if limit <= 0 {
		l.allowed.Add(1)
		return nil
	}

	now := l.clock.Now()
	windowStart := now.Truncate(l.window)
	remaining := windowStart.Add(l.window).Sub(now)

	count, err := l.store.Incr(ctx, group+"|"+identity, windowStart, remaining+time.Second)
	if err != nil {
		return fmt.Errorf("rate counter: %w", err)
	}
	if count > int64(limit) {
		l.rejected.Add(1)
		return &RateLimitedError{Group: group, RetryAfter: remaining}
	}
	l.allowed.Add(1)
	return nil
}

// Stats reports decision counters.
func (l *Limiter) Stats() LimiterStats {
	return LimiterStats{Allowed: l.allowed.Load(), Rejected: l.rejected.Load()}
}

// Identity derives the limiter key for a caller: the admin session when one
// is present, otherwise the source address.
func Identity(sessionID, remoteAddr string) string {
	if sessionID != "" {
		return "session:" + sessionID
	}
	return "addr:" + remoteAddr
}
