package results

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run := NewRun(42, "BasicABC", 6)
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("NewRun produced %+v", run)
	}
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Seed != 42 || got.Algorithm != "BasicABC" || got.NParams != 6 {
		t.Fatalf("GetRun returned %+v", got)
	}
	if got.Status != StatusRunning || got.EndedAt != nil {
		t.Fatalf("fresh run should be running with no end time: %+v", got)
	}

	if err := s.FinishRun(run.ID, StatusComplete, ""); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	got, err = s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != StatusComplete || got.EndedAt == nil {
		t.Fatalf("finished run is %+v", got)
	}
}

func TestFinishRunRecordsFailure(t *testing.T) {
	s := openTestStore(t)
	run := NewRun(1, "BasicABC", 4)
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.FinishRun(run.ID, StatusFailed, "calibration did not complete"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != StatusFailed || got.Error != "calibration did not complete" {
		t.Fatalf("failed run is %+v", got)
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	for seed := 0; seed < 3; seed++ {
		if err := s.CreateRun(NewRun(seed, "BasicABC", 6)); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}
	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("listed %d runs, want 3", len(runs))
	}
}

func TestBatchRecords(t *testing.T) {
	s := openTestStore(t)
	run := NewRun(7, "BasicABC", 6)
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	records := []BatchRecord{
		{Batch: 0, Epsilon: math.NaN(), Accepted: 0, Invalid: 3, DurationMS: 12},
		{Batch: 1, Epsilon: 41.5, Accepted: 2, Invalid: 0, DurationMS: 10},
	}
	for _, b := range records {
		if err := s.RecordBatch(run.ID, b); err != nil {
			t.Fatalf("RecordBatch %d failed: %v", b.Batch, err)
		}
	}

	got, err := s.Batches(run.ID)
	if err != nil {
		t.Fatalf("Batches failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("retrieved %d batch records, want 2", len(got))
	}
	// NaN epsilon is stored as NULL and read back as zero
	if got[0].Epsilon != 0 || got[0].Invalid != 3 {
		t.Errorf("batch 0 read back as %+v", got[0])
	}
	if got[1].Epsilon != 41.5 || got[1].Accepted != 2 || got[1].DurationMS != 10 {
		t.Errorf("batch 1 read back as %+v", got[1])
	}
}

func TestParticleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	run := NewRun(7, "BasicABC", 3)
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	particles := mat.NewDense(2, 3, []float64{
		-1.5, 0.25, 0.3,
		-1.2, 0.30, 0.4,
	})
	distances := []float64{10.5, 12.25}
	if err := s.SaveParticles(run.ID, particles, distances); err != nil {
		t.Fatalf("SaveParticles failed: %v", err)
	}

	got, err := s.LoadParticles(run.ID)
	if err != nil {
		t.Fatalf("LoadParticles failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d particles, want 2", len(got))
	}
	for i, p := range got {
		if p.Rank != i || p.Distance != distances[i] {
			t.Fatalf("particle %d loaded as %+v", i, p)
		}
		for j, v := range p.Params {
			if v != particles.At(i, j) {
				t.Fatalf("particle %d entry %d is %g, want %g", i, j, v, particles.At(i, j))
			}
		}
	}
}
