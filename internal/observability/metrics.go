package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	started      time.Time
	requestCount map[string]int64
	errorCount   map[string]int64
	totalLatency time.Duration
}

// MetricsSnapshot is a copy of the counters for reporting.
type MetricsSnapshot struct {
	UptimeSeconds  int64            `json:"uptime_seconds"`
	Requests       int64            `json:"requests"`
	Errors         int64            `json:"errors"`
	AvgLatencyMs   float64          `json:"avg_latency_ms"`
	RequestsByPath map[string]int64 `json:"requests_by_route"`
	ErrorsByCode   map[string]int64 `json:"errors_by_code"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:      time.Now(),
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalLatency += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		UptimeSeconds:  int64(time.Since(m.started).Seconds()),
		RequestsByPath: make(map[string]int64, len(m.requestCount)),
		ErrorsByCode:   make(map[string]int64, len(m.errorCount)),
	}
	for k, v := range m.requestCount {
		snap.RequestsByPath[k] = v
		snap.Requests += v
	}
	for k, v := range m.errorCount {
		snap.ErrorsByCode[k] = v
		snap.Errors += v
	}
	if snap.Requests > 0 {
		snap.AvgLatencyMs = float64(m.totalLatency.Microseconds()) / float64(snap.Requests) / 1000
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
