package model

import "gonum.org/v1/gonum/mat"

// ExposureModel holds the exposure-process design matrix and the Normal
// priors over its regression coefficients.
type ExposureModel struct {
	// X is the covariate matrix, (nLoc*nTpt) x nBeta, rows grouped by
	// location: row loc*nTpt+t is the covariate vector for (loc, t).
	X *mat.Dense
	// Offset is a per-time-point additive offset on the linear predictor
	// (typically log of the time-step width), length nTpt.
	Offset []float64
	// BetaPriorMean and BetaPriorPrecision are per-coefficient Normal
	// prior parameters, length nBeta.
	BetaPriorMean      []float64
	BetaPriorPrecision []float64

	NTpt  int
	NLoc  int
	NBeta int
}

// NewExposureModel validates and builds an ExposureModel.
func NewExposureModel(x *mat.Dense, offset []float64, priorMean, priorPrecision []float64, nLoc, nTpt int) (*ExposureModel, error) {
	if x == nil {
		return nil, ConfigErrorf("exposureModel", "covariate matrix X is required")
	}
	rows, nBeta := x.Dims()
	if nLoc <= 0 || nTpt <= 0 {
		return nil, ConfigErrorf("exposureModel", "location and time-point counts must be positive, got %d, %d", nLoc, nTpt)
	}
	if rows != nLoc*nTpt {
		return nil, ConfigErrorf("exposureModel",
			"X has %d rows but nLoc*nTpt = %d*%d = %d", rows, nLoc, nTpt, nLoc*nTpt)
	}
	if len(offset) != nTpt {
		return nil, ConfigErrorf("exposureModel",
			"offset has length %d but there are %d time points", len(offset), nTpt)
	}
	if len(priorMean) != nBeta || len(priorPrecision) != nBeta {
		return nil, ConfigErrorf("exposureModel",
			"prior mean/precision have lengths %d/%d but X has %d columns",
			len(priorMean), len(priorPrecision), nBeta)
	}
	for j, p := range priorPrecision {
		if p <= 0 {
			return nil, ConfigErrorf("exposureModel", "prior precision %d must be positive, got %g", j, p)
		}
	}
	return &ExposureModel{
		X:                  x,
		Offset:             offset,
		BetaPriorMean:      priorMean,
		BetaPriorPrecision: priorPrecision,
		NTpt:               nTpt,
		NLoc:               nLoc,
		NBeta:              nBeta,
	}, nil
}

func (e *ExposureModel) ComponentType() ComponentType { return ExposureComponent }
