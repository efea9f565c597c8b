package model

import "gonum.org/v1/gonum/mat"

// Reinfection mode discriminants. Mode 3 (SEIR, no reinfection) makes the
// component inert: its covariates are not validated against the data model
// and no betaRS block appears in the particle layout.
const (
	ReinfectionSEIRS      = 1 // R -> S transitions estimated from covariates
	ReinfectionSEIRSFixed = 2 // R -> S with fixed, known coefficients
	ReinfectionDisabled   = 3 // plain SEIR
)

// ReinfectionModel describes the R -> S process and the Normal priors over
// its regression coefficients.
type ReinfectionModel struct {
	Mode int
	// XRS is the reinfection covariate matrix, nTpt x nBetaRS. Nil when
	// the mode is disabled.
	XRS                *mat.Dense
	BetaPriorMean      []float64
	BetaPriorPrecision []float64

	NBetaRS int
}

// NewReinfectionModel validates and builds an active reinfection model.
func NewReinfectionModel(mode int, xrs *mat.Dense, priorMean, priorPrecision []float64) (*ReinfectionModel, error) {
	if mode != ReinfectionSEIRS && mode != ReinfectionSEIRSFixed && mode != ReinfectionDisabled {
		return nil, ConfigErrorf("reinfectionModel", "unknown reinfection mode %d", mode)
	}
	if mode == ReinfectionDisabled {
		return NewDisabledReinfectionModel(), nil
	}
	if xrs == nil {
		return nil, ConfigErrorf("reinfectionModel", "covariate matrix X_rs is required when reinfection is enabled")
	}
	_, nBetaRS := xrs.Dims()
	if len(priorMean) != nBetaRS || len(priorPrecision) != nBetaRS {
		return nil, ConfigErrorf("reinfectionModel",
			"prior mean/precision have lengths %d/%d but X_rs has %d columns",
			len(priorMean), len(priorPrecision), nBetaRS)
	}
	return &ReinfectionModel{
		Mode:               mode,
		XRS:                xrs,
		BetaPriorMean:      priorMean,
		BetaPriorPrecision: priorPrecision,
		NBetaRS:            nBetaRS,
	}, nil
}

// NewDisabledReinfectionModel builds the inert placeholder used for plain
// SEIR models.
func NewDisabledReinfectionModel() *ReinfectionModel {
	return &ReinfectionModel{
		Mode:               ReinfectionDisabled,
		BetaPriorMean:      []float64{0},
		BetaPriorPrecision: []float64{0},
	}
}

// Enabled reports whether the reinfection block participates in the
// particle layout. The first prior precision doubles as the switch: a
// non-positive value disables the block even when covariates are present.
func (r *ReinfectionModel) Enabled() bool {
	return len(r.BetaPriorPrecision) > 0 && r.BetaPriorPrecision[0] > 0
}

func (r *ReinfectionModel) ComponentType() ComponentType { return ReinfectionComponent }
