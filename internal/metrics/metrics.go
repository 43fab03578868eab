package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TimerSnapshot is the aggregated view of one named timer
type TimerSnapshot struct {
	Count     int64   `json:"count"`
	TotalMs   int64   `json:"total_ms"`
	AverageMs float64 `json:"average_ms"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
}

type timer struct {
	count   int64
	totalMs int64
	minMs   int64
	maxMs   int64
}

// Collector is an in-process metrics store: named counters and latency
// timers, snapshotted over the metrics endpoint. Writes are lock-free once
// a series exists.
type Collector struct {
	mu        sync.RWMutex
	counters  map[string]*int64
	timers    map[string]*timer
	startTime time.Time
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		counters:  make(map[string]*int64),
		timers:    make(map[string]*timer),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a named counter by 1
func (c *Collector) IncrementCounter(name string) {
	c.mu.RLock()
	counter, exists := c.counters[name]
	c.mu.RUnlock()

	if !exists {
		c.mu.Lock()
		if counter, exists = c.counters[name]; !exists {
			var v int64
			counter = &v
			c.counters[name] = counter
		}
		c.mu.Unlock()
	}

	atomic.AddInt64(counter, 1)
}

// RecordTimer records one duration sample against a named timer
func (c *Collector) RecordTimer(name string, d time.Duration) {
	ms := d.Milliseconds()

	c.mu.RLock()
	t, exists := c.timers[name]
	c.mu.RUnlock()

	if !exists {
		c.mu.Lock()
		if t, exists = c.timers[name]; !exists {
			t = &timer{minMs: math.MaxInt64}
			c.timers[name] = t
		}
		c.mu.Unlock()
	}

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalMs, ms)

	for {
		min := atomic.LoadInt64(&t.minMs)
		if ms >= min || atomic.CompareAndSwapInt64(&t.minMs, min, ms) {
			break
		}
	}
	for {
		max := atomic.LoadInt64(&t.maxMs)
		if ms <= max || atomic.CompareAndSwapInt64(&t.maxMs, max, ms) {
			break
		}
	}
}

// Snapshot returns all series plus process uptime
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counters := make(map[string]int64, len(c.counters))
	for name, counter := range c.counters {
		counters[name] = atomic.LoadInt64(counter)
	}

	timers := make(map[string]TimerSnapshot, len(c.timers))
	for name, t := range c.timers {
		count := atomic.LoadInt64(&t.count)
		total := atomic.LoadInt64(&t.totalMs)
		snap := TimerSnapshot{
			Count:   count,
			TotalMs: total,
			MinMs:   atomic.LoadInt64(&t.minMs),
			MaxMs:   atomic.LoadInt64(&t.maxMs),
		}
		if count > 0 {
			snap.AverageMs = float64(total) / float64(count)
		} else {
			snap.MinMs = 0
		}
		timers[name] = snap
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(c.startTime).Seconds()),
		"counters":       counters,
		"timers":         timers,
	}
}
