package model

import "gonum.org/v1/gonum/mat"

// Transition sojourn-time modes.
const (
	TransitionExponential  = "exponential"
	TransitionWeibull      = "weibull"
	TransitionPathSpecific = "path_specific"
)

// TransitionPriors holds the hyperprior specification for the E -> I and
// I -> R sojourn-time models. Each hyperparameter matrix has four rows:
// exponential mode reads the (shape, rate) pair in rows 0-1 of the first
// column; weibull mode reads two Gamma hyperprior pairs, rows 0-1 for the
// sojourn shape and rows 2-3 for the sojourn scale.
type TransitionPriors struct {
	Mode     string
	EIParams *mat.Dense // 4 x k hyperparameters for E -> I
	IRParams *mat.Dense // 4 x k hyperparameters for I -> R
	// InfMean is the prior mean sojourn estimate, used by the
	// path-specific mode where no transition parameters are sampled.
	InfMean float64
}

// NewTransitionPriors validates and builds a TransitionPriors.
func NewTransitionPriors(mode string, eiParams, irParams *mat.Dense, infMean float64) (*TransitionPriors, error) {
	switch mode {
	case TransitionExponential, TransitionWeibull, TransitionPathSpecific:
	default:
		return nil, ConfigErrorf("transitionPriors", "invalid transition mode: %q", mode)
	}
	for _, p := range []struct {
		name string
		m    *mat.Dense
	}{{"E_to_I_params", eiParams}, {"I_to_R_params", irParams}} {
		if p.m == nil {
			return nil, ConfigErrorf("transitionPriors", "%s is required", p.name)
		}
		r, c := p.m.Dims()
		if r != 4 || c < 1 {
			return nil, ConfigErrorf("transitionPriors",
				"%s must have 4 rows and at least one column, got %dx%d", p.name, r, c)
		}
	}
	if mode == TransitionPathSpecific && infMean <= 0 {
		return nil, ConfigErrorf("transitionPriors",
			"path_specific mode requires a positive mean sojourn estimate, got %g", infMean)
	}
	return &TransitionPriors{Mode: mode, EIParams: eiParams, IRParams: irParams, InfMean: infMean}, nil
}

// NTrans returns the number of transition hyperparameters appearing in the
// particle layout for this mode.
func (t *TransitionPriors) NTrans() int {
	switch t.Mode {
	case TransitionExponential:
		return 2
	case TransitionWeibull:
		return 4
	default:
		return 0
	}
}

func (t *TransitionPriors) ComponentType() ComponentType { return TransitionComponent }
