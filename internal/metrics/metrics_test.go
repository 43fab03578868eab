package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCounterIncrements(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 5; i++ {
		c.IncrementCounter("http_requests")
	}
	c.IncrementCounter("http_errors")

	snap := c.Snapshot()
	counters := snap["counters"].(map[string]int64)
	require.Equal(t, int64(5), counters["http_requests"])
	require.Equal(t, int64(1), counters["http_errors"])
}

func TestTimerAggregates(t *testing.T) {
	c := NewCollector()
	c.RecordTimer("op", 10*time.Millisecond)
	c.RecordTimer("op", 30*time.Millisecond)

	snap := c.Snapshot()
	timers := snap["timers"].(map[string]TimerSnapshot)
	op := timers["op"]

	require.Equal(t, int64(2), op.Count)
	require.Equal(t, int64(40), op.TotalMs)
	require.Equal(t, int64(10), op.MinMs)
	require.Equal(t, int64(30), op.MaxMs)
	require.Equal(t, 20.0, op.AverageMs)
}

func TestConcurrentWrites(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCounter("shared")
			c.RecordTimer("shared", time.Millisecond)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	counters := snap["counters"].(map[string]int64)
	require.Equal(t, int64(50), counters["shared"])
}
