// Package stats tracks fetch-latency distributions for an analysis run.
//
// Latencies are fed into a T-Digest so percentiles stay cheap regardless of
// how many renditions a manifest fans out to.
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// LatencyTracker accumulates request wall times.
//
// Thread-safe: fetches complete on arbitrary goroutines.
type LatencyTracker struct {
	mu     sync.Mutex // TDigest is not thread-safe
	digest *tdigest.TDigest
	count  int64
	max    time.Duration
}

// LatencySnapshot is a point-in-time view of the distribution.
type LatencySnapshot struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// NewLatencyTracker creates an empty tracker.
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{
		digest: tdigest.NewWithCompression(100), // ~100 centroids, ~10KB
	}
}

// Observe records one request wall time.
func (t *LatencyTracker) Observe(d time.Duration) {
	if d < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.digest.Add(float64(d.Nanoseconds()), 1)
	t.count++
	if d > t.max {
		t.max = d
	}
}

// Snapshot computes the current percentiles. An empty tracker returns a
// zero-valued snapshot.
func (t *LatencyTracker) Snapshot() LatencySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return LatencySnapshot{}
	}

	return LatencySnapshot{
		Count: t.count,
		P50:   time.Duration(t.digest.Quantile(0.50)),
		P95:   time.Duration(t.digest.Quantile(0.95)),
		P99:   time.Duration(t.digest.Quantile(0.99)),
		Max:   t.max,
	}
}

// Count returns the number of observations.
func (t *LatencyTracker) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}
