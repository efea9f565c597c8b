// Package monitoring tracks the progress of a running calibration:
// per-batch acceptance, epsilon trajectory, and degenerate-row counts.
package monitoring

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// BatchStats summarizes one dispatched batch.
type BatchStats struct {
	Batch        int
	BestDistance float64 // smallest retained distance so far
	Epsilon      float64 // largest retained distance so far
	Accepted     int     // particles at or under the target epsilon
	Invalid      int     // rows invalidated by degenerate trajectories
	Duration     time.Duration
}

// Summary is a point-in-time snapshot of a calibration's progress.
type Summary struct {
	Batches       int           `json:"batches"`
	BestDistance  float64       `json:"bestDistance"`
	TotalAccepted int           `json:"totalAccepted"`
	TotalInvalid  int           `json:"totalInvalid"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Monitor accumulates batch statistics. It is safe for concurrent use; a
// calibration records into it while other goroutines snapshot.
type Monitor struct {
	mu      sync.Mutex
	started time.Time
	batches []BatchStats
	best    float64
	w       io.Writer
}

// New creates a Monitor.
func New() *Monitor {
	return &Monitor{started: time.Now(), best: math.Inf(1)}
}

// SetWriter directs a one-line progress report per batch to w.
func (m *Monitor) SetWriter(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w = w
}

// RecordBatch appends one batch's statistics.
func (m *Monitor) RecordBatch(bs BatchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, bs)
	if !math.IsNaN(bs.BestDistance) && bs.BestDistance < m.best {
		m.best = bs.BestDistance
	}
	if m.w != nil {
		fmt.Fprintf(m.w, "batch %d: eps=%.4g best=%.4g accepted=%d invalid=%d (%s)\n",
			bs.Batch, bs.Epsilon, m.best, bs.Accepted, bs.Invalid, bs.Duration.Round(time.Millisecond))
	}
}

// Batches returns a copy of the recorded batch history.
func (m *Monitor) Batches() []BatchStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BatchStats(nil), m.batches...)
}

// Snapshot returns the current progress summary.
func (m *Monitor) Snapshot() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Summary{
		Batches:      len(m.batches),
		BestDistance: m.best,
		Elapsed:      time.Since(m.started),
	}
	for _, b := range m.batches {
		s.TotalAccepted += b.Accepted
		s.TotalInvalid += b.Invalid
	}
	return s
}
