// Package stats collects per-session statistics for go-disc-burn and
// formats the exit summary.
package stats

import (
	"math"
	"sync"

	"github.com/influxdata/tdigest"
)

// SpeedStats is a snapshot of recorder write-speed samples.
type SpeedStats struct {
	Samples int64
	Min     float64
	Max     float64
	Mean    float64
	P50     float64
	P95     float64
}

// SpeedTracker accumulates write-speed multipliers reported by the recorder.
// Percentiles come from a t-digest so memory stays bounded on long burns.
type SpeedTracker struct {
	mu     sync.Mutex
	digest *tdigest.TDigest
	count  int64
	sum    float64
	min    float64
	max    float64
}

// NewSpeedTracker creates an empty tracker.
func NewSpeedTracker() *SpeedTracker {
	t := &SpeedTracker{}
	t.Reset()
	return t
}

// Reset drops all samples.
func (t *SpeedTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.digest = tdigest.NewWithCompression(100)
	t.count = 0
	t.sum = 0
	t.min = math.Inf(1)
	t.max = 0
}

// Add records one speed sample. Non-positive and non-finite values are ignored.
func (t *SpeedTracker) Add(speed float64) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.digest.Add(speed, 1)
	t.count++
	t.sum += speed
	if speed < t.min {
		t.min = speed
	}
	if speed > t.max {
		t.max = speed
	}
}

// Count returns the number of samples.
func (t *SpeedTracker) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Snapshot returns the current statistics, or nil when no samples exist.
func (t *SpeedTracker) Snapshot() *SpeedStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return nil
	}
	return &SpeedStats{
		Samples: t.count,
		Min:     t.min,
		Max:     t.max,
		Mean:    t.sum / float64(t.count),
		P50:     t.digest.Quantile(0.50),
		P95:     t.digest.Quantile(0.95),
	}
}
