package sim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/model"
	"github.com/josh-tomiyama/ABSEIR/rng"
)

// testConfig builds a 2-location, 8-time-point configuration with one base
// contact matrix, an intercept-plus-trend exposure design, and exponential
// sojourn times.
func testConfig() *Config {
	const nTpt, nLoc = 8, 2

	y := mat.NewDense(nTpt, nLoc, []float64{
		1, 0,
		2, 1,
		4, 2,
		6, 3,
		5, 4,
		3, 3,
		2, 1,
		1, 1,
	})

	x := mat.NewDense(nLoc*nTpt, 2, nil)
	for loc := 0; loc < nLoc; loc++ {
		for t := 0; t < nTpt; t++ {
			x.Set(loc*nTpt+t, 0, 1)
			x.Set(loc*nTpt+t, 1, float64(t)/float64(nTpt))
		}
	}

	dm := mat.NewDense(nLoc, nLoc, []float64{0, 1, 1, 0})

	return &Config{
		Layout:         Layout{NBeta: 2, NRho: 1, NTrans: 2},
		S0:             []float64{500, 300},
		E0:             []float64{2, 1},
		I0:             []float64{1, 1},
		R0:             []float64{0, 0},
		Y:              y,
		Compartment:    model.CompartmentIStar,
		X:              x,
		Offset:         make([]float64, nTpt),
		DistanceList:   []*mat.Dense{dm},
		TDistanceList:  make([][]*mat.Dense, nTpt),
		TransitionMode: model.TransitionExponential,
		EIParams:       mat.NewDense(4, 1, []float64{2.3, 10, 1, 1}),
		IRParams:       mat.NewDense(4, 1, []float64{2.3, 10, 1, 1}),
		NTpt:           nTpt,
		NLoc:           nLoc,
	}
}

// params: beta = (-1.5, 0.5), rho = 0.1, EI/IR rates = (0.3, 0.25)
func testParams() []float64 { return []float64{-1.5, 0.5, 0.1, 0.3, 0.25} }

func TestRunProducesFiniteDistance(t *testing.T) {
	cfg := testConfig()
	res, err := Run(cfg, testParams(), rng.Substream(42, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Degenerate {
		t.Fatal("valid parameters produced a degenerate run")
	}
	if math.IsNaN(res.Distance) || math.IsInf(res.Distance, 0) || res.Distance < 0 {
		t.Fatalf("distance is not a finite non-negative value: %g", res.Distance)
	}
	if res.S != nil || res.IStar != nil {
		t.Error("trajectories retained without KeepTrajectory")
	}
}

func TestRunDeterministicGivenStream(t *testing.T) {
	cfg := testConfig()
	a, err := Run(cfg, testParams(), rng.Substream(42, 3, 1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := Run(cfg, testParams(), rng.Substream(42, 3, 1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if a.Distance != b.Distance {
		t.Fatalf("identical streams produced distances %g and %g", a.Distance, b.Distance)
	}
}

func TestRunConservesPopulation(t *testing.T) {
	cfg := testConfig()
	cfg.KeepTrajectory = true
	res, err := Run(cfg, testParams(), rng.Substream(7, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for loc := 0; loc < cfg.NLoc; loc++ {
		n := cfg.S0[loc] + cfg.E0[loc] + cfg.I0[loc] + cfg.R0[loc]
		for tp := 0; tp < cfg.Horizon(); tp++ {
			sum := res.S.At(tp, loc) + res.E.At(tp, loc) + res.I.At(tp, loc) + res.R.At(tp, loc)
			if sum != n {
				t.Fatalf("population at (t=%d, loc=%d) is %g, want %g", tp, loc, sum, n)
			}
		}
	}
}

func TestRunPredictiveHorizon(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 4
	cfg.KeepTrajectory = true
	res, err := Run(cfg, testParams(), rng.Substream(7, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rows, _ := res.IStar.Dims()
	if rows != cfg.NTpt+cfg.Width {
		t.Fatalf("trajectory has %d rows, want %d", rows, cfg.NTpt+cfg.Width)
	}

	// the predictive window must not influence scoring
	base := testConfig()
	got, err := Run(base, testParams(), rng.Substream(7, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.Distance != res.Distance {
		t.Fatalf("predictive window changed the score: %g vs %g", got.Distance, res.Distance)
	}
}

func TestRunDegeneratesOnBadTransitionRates(t *testing.T) {
	cfg := testConfig()
	params := testParams()
	params[3] = -0.5
	res, err := Run(cfg, params, rng.Substream(7, 0, 0))
	if err != nil {
		t.Fatalf("Run should degrade, not fail: %v", err)
	}
	if !res.Degenerate || !math.IsNaN(res.Distance) {
		t.Fatalf("expected degenerate NaN result, got %+v", res)
	}
}

func TestRunRejectsWrongParameterLength(t *testing.T) {
	cfg := testConfig()
	if _, err := Run(cfg, []float64{1, 2, 3}, rng.Substream(7, 0, 0)); err == nil {
		t.Fatal("short parameter vector accepted")
	}
}

func TestRunWeibullMode(t *testing.T) {
	cfg := testConfig()
	cfg.TransitionMode = model.TransitionWeibull
	cfg.Layout.NTrans = 4
	// beta, rho, then (shapeEI, scaleEI, shapeIR, scaleIR)
	params := []float64{-1.5, 0.5, 0.1, 2, 5, 2, 7}
	res, err := Run(cfg, params, rng.Substream(11, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Degenerate {
		t.Fatal("valid weibull parameters produced a degenerate run")
	}
	if math.IsNaN(res.Distance) || res.Distance < 0 {
		t.Fatalf("distance is not finite non-negative: %g", res.Distance)
	}
}

func TestRunMissingObservationsExcluded(t *testing.T) {
	cfg := testConfig()
	full, err := Run(cfg, testParams(), rng.Substream(3, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// masking everything reduces the score to zero
	masked := testConfig()
	mask := mat.NewDense(masked.NTpt, masked.NLoc, nil)
	for tp := 0; tp < masked.NTpt; tp++ {
		for loc := 0; loc < masked.NLoc; loc++ {
			mask.Set(tp, loc, 1)
		}
	}
	masked.NAMask = mask
	res, err := Run(masked, testParams(), rng.Substream(3, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Distance != 0 {
		t.Fatalf("fully masked data should score 0, got %g", res.Distance)
	}
	if full.Distance == 0 {
		t.Fatal("unmasked fixture unexpectedly scored 0")
	}
}

func TestLayoutBlocks(t *testing.T) {
	l := Layout{NBeta: 2, NBetaRS: 1, NRho: 3, NTrans: 2}
	if l.NParams() != 8 {
		t.Fatalf("NParams = %d, want 8", l.NParams())
	}
	v := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	check := func(name string, got []float64, want []float64) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("%s block has length %d, want %d", name, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s block = %v, want %v", name, got, want)
			}
		}
	}
	check("beta", l.Beta(v), []float64{0, 1})
	check("betaRS", l.BetaRS(v), []float64{2})
	check("rho", l.Rho(v), []float64{3, 4, 5})
	check("trans", l.Trans(v), []float64{6, 7})
}
