// Package results defines the structured output of a calibration run and
// a SQLite-backed store for persisting runs, batch progress and accepted
// particles.
package results

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Run describes one calibration execution.
type Run struct {
	ID        string     `json:"id"`
	Seed      int        `json:"seed"`
	Algorithm string     `json:"algorithm"`
	NParams   int        `json:"nParams"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// NewRun builds a Run record with a fresh identifier.
func NewRun(seed int, algorithm string, nParams int) Run {
	return Run{
		ID:        uuid.New().String(),
		Seed:      seed,
		Algorithm: algorithm,
		NParams:   nParams,
		StartedAt: time.Now().UTC(),
		Status:    StatusRunning,
	}
}

// BatchRecord summarizes one dispatched batch.
type BatchRecord struct {
	Batch      int     `json:"batch"`
	Epsilon    float64 `json:"epsilon"`
	Accepted   int     `json:"accepted"`
	Invalid    int     `json:"invalid"`
	DurationMS int64   `json:"durationMs"`
}

// Particle is one accepted parameter vector with its score.
type Particle struct {
	Rank     int       `json:"rank"`
	Params   []float64 `json:"params"`
	Distance float64   `json:"distance"`
}
