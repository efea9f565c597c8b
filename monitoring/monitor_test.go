package monitoring

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestRecordBatch(t *testing.T) {
	m := New()
	m.RecordBatch(BatchStats{Batch: 0, BestDistance: 12.5, Epsilon: 40, Accepted: 1, Invalid: 2})
	m.RecordBatch(BatchStats{Batch: 1, BestDistance: 9.75, Epsilon: 30, Accepted: 3, Invalid: 0})

	history := m.Batches()
	if len(history) != 2 {
		t.Fatalf("recorded %d batches, want 2", len(history))
	}
	if history[1].Epsilon != 30 {
		t.Errorf("batch 1 recorded as %+v", history[1])
	}

	s := m.Snapshot()
	if s.Batches != 2 || s.BestDistance != 9.75 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.TotalAccepted != 4 || s.TotalInvalid != 2 {
		t.Errorf("totals = (%d accepted, %d invalid), want (4, 2)", s.TotalAccepted, s.TotalInvalid)
	}
}

func TestNaNDistanceIgnored(t *testing.T) {
	m := New()
	m.RecordBatch(BatchStats{Batch: 0, BestDistance: math.NaN(), Epsilon: math.NaN(), Invalid: 5})
	s := m.Snapshot()
	if !math.IsInf(s.BestDistance, 1) {
		t.Errorf("best distance = %g after an all-degenerate batch, want +Inf", s.BestDistance)
	}
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	m := New()
	m.SetWriter(&buf)
	m.RecordBatch(BatchStats{Batch: 3, BestDistance: 8, Epsilon: 21, Accepted: 2, Invalid: 1,
		Duration: 150 * time.Millisecond})

	line := buf.String()
	for _, want := range []string{"batch 3", "eps=21", "best=8", "accepted=2", "invalid=1"} {
		if !strings.Contains(line, want) {
			t.Errorf("progress line %q missing %q", line, want)
		}
	}
}
