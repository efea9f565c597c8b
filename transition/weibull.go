// Package transition decouples the sojourn-time model for compartment
// transitions (E -> I, I -> R) from the calibration orchestrator. A
// Distribution owns its hyperparameters, can draw sojourn durations for
// simulation workers, and evaluates the hyperprior density over its own
// parameters.
package transition

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is the sojourn-time model contract consumed by the
// orchestrator and by simulation workers.
type Distribution interface {
	// Sample draws one sojourn duration under the current parameters.
	Sample(rnd *rand.Rand) float64
	// EvalParamPrior evaluates the hyperprior density over this
	// transition's two parameters.
	EvalParamPrior(params []float64) (float64, error)
	// SetParams replaces the current (shape, scale) pair, typically from
	// a particle's transition block.
	SetParams(params []float64) error
}

// Weibull models compartment sojourn times as Weibull(shape, scale), with
// independent Gamma hyperpriors over shape and scale.
type Weibull struct {
	// hyper holds (shapeAlpha, shapeRate, scaleAlpha, scaleRate), the
	// Gamma hyperprior parameters read from one hyperparameter column.
	hyper [4]float64

	shape float64
	scale float64
}

// NewWeibull builds a Weibull distribution from a 4-entry hyperparameter
// column. The current parameters start at the hyperprior means.
func NewWeibull(column []float64) (*Weibull, error) {
	if len(column) != 4 {
		return nil, fmt.Errorf("transition: hyperparameter column must have 4 entries, got %d", len(column))
	}
	for i, v := range column {
		if v <= 0 {
			return nil, fmt.Errorf("transition: hyperparameter %d must be positive, got %g", i, v)
		}
	}
	w := &Weibull{hyper: [4]float64{column[0], column[1], column[2], column[3]}}
	w.shape = w.hyper[0] / w.hyper[1]
	w.scale = w.hyper[2] / w.hyper[3]
	return w, nil
}

// NewInert builds the unit-parameter placeholder used when the transition
// mode is exponential or path-specific. It is structurally valid but never
// consulted by the prior evaluator in those modes.
func NewInert() *Weibull {
	w, _ := NewWeibull([]float64{1, 1, 1, 1})
	return w
}

// SetParams replaces the current (shape, scale) pair.
func (w *Weibull) SetParams(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("transition: expected 2 parameters, got %d", len(params))
	}
	if params[0] <= 0 || params[1] <= 0 {
		return fmt.Errorf("transition: parameters must be positive, got (%g, %g)", params[0], params[1])
	}
	w.shape, w.scale = params[0], params[1]
	return nil
}

// Params returns the current (shape, scale) pair.
func (w *Weibull) Params() (shape, scale float64) { return w.shape, w.scale }

// Sample draws one sojourn duration under the current parameters.
func (w *Weibull) Sample(rnd *rand.Rand) float64 {
	return distuv.Weibull{K: w.shape, Lambda: w.scale, Src: rnd}.Rand()
}

// EvalParamPrior evaluates the product of the two Gamma hyperprior
// densities over a (shape, scale) pair.
func (w *Weibull) EvalParamPrior(params []float64) (float64, error) {
	if len(params) != 2 {
		return 0, fmt.Errorf("transition: expected a 2-entry parameter segment, got %d", len(params))
	}
	shapePrior := distuv.Gamma{Alpha: w.hyper[0], Beta: w.hyper[1]}
	scalePrior := distuv.Gamma{Alpha: w.hyper[2], Beta: w.hyper[3]}
	return shapePrior.Prob(params[0]) * scalePrior.Prob(params[1]), nil
}
