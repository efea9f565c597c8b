// Package sampling validates the fixed-size run-control parameter block
// that configures a calibration: algorithm choice, batch sizing, core
// count, RNG seed, and convergence targets.
package sampling

import "github.com/josh-tomiyama/ABSEIR/model"

// Algorithm selects the ABC acceptance scheme.
type Algorithm int

const (
	BasicABC             Algorithm = 1
	ModifiedBeaumont2009 Algorithm = 2
	DelMoral2012         Algorithm = 3
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case BasicABC:
		return "BasicABC"
	case ModifiedBeaumont2009:
		return "ModifiedBeaumont2009"
	case DelMoral2012:
		return "DelMoral2012"
	default:
		return "unknown"
	}
}

// Block sizes accepted by New.
const (
	integerBlockLen = 9
	numericBlockLen = 3
)

// Control is the validated, immutable run-control configuration. The
// orchestrator copies it by value at construction, so a Control can never
// dangle while a calibration is running.
type Control struct {
	// SimulationWidth extends the simulated horizon this many time points
	// beyond the observed data; the predictive window is retained on
	// stored trajectories but never scored.
	SimulationWidth int
	RandomSeed      int
	CPUCores        int
	Algorithm       Algorithm
	BatchSize       int
	Epochs          int
	MaxBatches      int
	// MultivariatePerturbation selects a multivariate rather than
	// componentwise perturbation kernel in the SMC algorithms.
	MultivariatePerturbation bool
	// M is the number of replicate simulations scored per particle, the
	// width of each row of batch summary statistics.
	M int

	AcceptFraction float64
	Shrinkage      float64
	TargetEps      float64
}

// New parses and validates the fixed 9-integer plus 3-numeric control
// block.
func New(integerParams []int, numericParams []float64) (*Control, error) {
	if len(integerParams) != integerBlockLen || len(numericParams) != numericBlockLen {
		return nil, model.ConfigErrorf("samplingControl",
			"exactly %d integer and %d numeric parameters are required, got %d and %d",
			integerBlockLen, numericBlockLen, len(integerParams), len(numericParams))
	}

	c := &Control{
		SimulationWidth:          integerParams[0],
		RandomSeed:               integerParams[1],
		CPUCores:                 integerParams[2],
		Algorithm:                Algorithm(integerParams[3]),
		BatchSize:                integerParams[4],
		Epochs:                   integerParams[5],
		MaxBatches:               integerParams[6],
		MultivariatePerturbation: integerParams[7] != 0,
		M:                        integerParams[8],
		AcceptFraction:           numericParams[0],
		Shrinkage:                numericParams[1],
		TargetEps:                numericParams[2],
	}

	switch c.Algorithm {
	case BasicABC, ModifiedBeaumont2009, DelMoral2012:
	default:
		return nil, model.ConfigErrorf("samplingControl",
			"algorithm specification must equal 1, 2 or 3, got %d", integerParams[3])
	}
	if c.MaxBatches <= 0 {
		return nil, model.ConfigErrorf("samplingControl",
			"max_batches must be greater than zero, got %d", c.MaxBatches)
	}
	if c.BatchSize <= 0 {
		return nil, model.ConfigErrorf("samplingControl",
			"batch_size must be greater than zero, got %d", c.BatchSize)
	}
	if c.M <= 0 {
		return nil, model.ConfigErrorf("samplingControl",
			"m must be greater than zero, got %d", c.M)
	}
	return c, nil
}

func (c *Control) ComponentType() model.ComponentType { return model.ControlComponent }
