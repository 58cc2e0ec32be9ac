package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/users", "POST", 200, 2*time.Millisecond)
	m.RecordRequest("/api/users", "POST", 200, 4*time.Millisecond)
	m.RecordError("/api/users", "POST", "RATE_LIMITED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(2), snap.RequestsByPath["/api/users|POST|200"])
	assert.InDelta(t, 3.0, snap.AvgLatencyMs, 0.001)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordRequest("/", "GET", 200, 0) })
	assert.Equal(t, MetricsSnapshot{}, nilMetrics.Snapshot())
}

func TestRequestLoggerAssignsID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping?otp=123456", nil))
	require.NoError(t, err)
	rid := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, rid)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(2), metrics.Snapshot().Requests)
}
