package sim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/model"
)

// Config bundles the shared read-only inputs every simulation job needs.
// It is built once by the orchestrator, handed to the worker pool, and
// never mutated afterwards; workers only read from it.
type Config struct {
	Layout Layout

	// Initial compartments, one entry per location.
	S0, E0, I0, R0 []float64

	// Observed data and comparison settings.
	Y           *mat.Dense // nTpt x nLoc
	NAMask      *mat.Dense // nonzero == missing, may be nil
	Phi         []float64  // per-location dispersion, may be nil
	Compartment string     // model.CompartmentIStar or model.CompartmentRStar
	Cumulative  bool

	// Exposure process.
	X      *mat.Dense // (nLoc*nTpt) x nBeta, rows grouped by location
	Offset []float64  // len nTpt

	// Reinfection process; XRS is nil when disabled.
	XRS *mat.Dense // nTpt x nBetaRS

	// Spatial coupling.
	DistanceList  []*mat.Dense
	TDistanceList [][]*mat.Dense

	// Transition model.
	TransitionMode string
	EIParams       *mat.Dense // 4 x k hyperparameters
	IRParams       *mat.Dense
	InfMean        float64

	NTpt int
	NLoc int

	// Width extends the simulated horizon past the observed data.
	// Predictive time points appear in retained trajectories but are
	// never scored.
	Width int

	// KeepTrajectory retains the full compartment matrices on results.
	KeepTrajectory bool
}

// Horizon returns the total number of simulated time points.
func (c *Config) Horizon() int { return c.NTpt + c.Width }

// clampTpt folds predictive time points onto the last observed one so
// covariates and offsets stay defined past the data.
func (c *Config) clampTpt(t int) int {
	if t >= c.NTpt {
		return c.NTpt - 1
	}
	return t
}

// xRow returns the exposure covariate row for (loc, t).
func (c *Config) xRow(loc, t int) []float64 {
	return c.X.RawRowView(loc*c.NTpt + c.clampTpt(t))
}

// missing reports whether observation (t, loc) is masked out.
func (c *Config) missing(t, loc int) bool {
	return c.NAMask != nil && c.NAMask.At(t, loc) != 0
}

// hasReinfection reports whether the R -> S transition is simulated.
func (c *Config) hasReinfection() bool { return c.XRS != nil }

// isWeibull reports whether sojourn times use age-dependent hazards.
func (c *Config) isWeibull() bool { return c.TransitionMode == model.TransitionWeibull }
