package transition

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestNewWeibull(t *testing.T) {
	w, err := NewWeibull([]float64{2, 4, 6, 3})
	if err != nil {
		t.Fatalf("NewWeibull failed: %v", err)
	}
	shape, scale := w.Params()
	if shape != 0.5 || scale != 2 {
		t.Errorf("initial parameters should sit at hyperprior means, got (%g, %g)", shape, scale)
	}

	if _, err := NewWeibull([]float64{1, 1, 1}); err == nil {
		t.Error("short hyperparameter column accepted")
	}
	if _, err := NewWeibull([]float64{1, 1, 0, 1}); err == nil {
		t.Error("non-positive hyperparameter accepted")
	}
}

func TestSetParams(t *testing.T) {
	w := NewInert()
	if err := w.SetParams([]float64{1.5, 2.5}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	shape, scale := w.Params()
	if shape != 1.5 || scale != 2.5 {
		t.Errorf("parameters not replaced, got (%g, %g)", shape, scale)
	}

	if err := w.SetParams([]float64{1}); err == nil {
		t.Error("short parameter segment accepted")
	}
	if err := w.SetParams([]float64{-1, 1}); err == nil {
		t.Error("negative parameter accepted")
	}
	// rejected calls must leave the current parameters untouched
	shape, scale = w.Params()
	if shape != 1.5 || scale != 2.5 {
		t.Errorf("rejected SetParams mutated parameters: (%g, %g)", shape, scale)
	}
}

func TestSampleDeterministic(t *testing.T) {
	w, err := NewWeibull([]float64{2, 1, 3, 1})
	if err != nil {
		t.Fatalf("NewWeibull failed: %v", err)
	}
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		x, y := w.Sample(a), w.Sample(b)
		if x != y {
			t.Fatalf("draw %d differs across identical streams: %g vs %g", i, x, y)
		}
		if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("draw %d is not a positive finite duration: %g", i, x)
		}
	}
}

func TestEvalParamPrior(t *testing.T) {
	// unit hyperpriors: Gamma(1,1) density at x is exp(-x)
	w := NewInert()
	got, err := w.EvalParamPrior([]float64{1, 2})
	if err != nil {
		t.Fatalf("EvalParamPrior failed: %v", err)
	}
	want := math.Exp(-1) * math.Exp(-2)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EvalParamPrior(1, 2) = %g, want %g", got, want)
	}

	if _, err := w.EvalParamPrior([]float64{1}); err == nil {
		t.Error("short parameter segment accepted")
	}
}
