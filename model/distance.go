package model

import "gonum.org/v1/gonum/mat"

// DistanceModel holds the spatial coupling structure: a list of base
// contact/distance matrices plus, per time point, a list of lagged contact
// matrices capturing time-varying coupling. One spatial autocorrelation
// parameter (rho) is estimated per base matrix and per lagged-matrix slot.
type DistanceModel struct {
	// DistanceList holds the base nLoc x nLoc matrices.
	DistanceList []*mat.Dense
	// TDistanceList holds, for each time point, the lagged matrices for
	// that time point. All time points must carry the same number of
	// lagged matrices; the orchestrator enforces agreement with the data
	// model's time-point count.
	TDistanceList [][]*mat.Dense
	// TDMEmpty marks TDistanceList as a placeholder carrying no lagged
	// structure.
	TDMEmpty bool
	// SpatialPrior is the (alpha, beta) of the Beta prior over each rho.
	SpatialPrior [2]float64

	NLoc int
}

// NewDistanceModel validates and builds a DistanceModel. laggedLists may be
// nil when the model has no time-varying coupling; nTpt placeholder slots
// are created so per-time-point indexing stays uniform.
func NewDistanceModel(baseMatrices []*mat.Dense, laggedLists [][]*mat.Dense, spatialPrior [2]float64, nTpt int) (*DistanceModel, error) {
	if len(baseMatrices) == 0 {
		return nil, ConfigErrorf("distanceModel", "at least one base distance matrix is required")
	}
	nLoc, c := baseMatrices[0].Dims()
	if nLoc != c {
		return nil, ConfigErrorf("distanceModel", "distance matrices must be square, got %dx%d", nLoc, c)
	}
	for i, m := range baseMatrices {
		r, c := m.Dims()
		if r != nLoc || c != nLoc {
			return nil, ConfigErrorf("distanceModel",
				"base matrix %d is %dx%d, expected %dx%d", i, r, c, nLoc, nLoc)
		}
	}
	tdmEmpty := len(laggedLists) == 0
	if tdmEmpty {
		laggedLists = make([][]*mat.Dense, nTpt)
	}
	for t, list := range laggedLists {
		for l, m := range list {
			r, c := m.Dims()
			if r != nLoc || c != nLoc {
				return nil, ConfigErrorf("distanceModel",
					"lagged matrix %d at time point %d is %dx%d, expected %dx%d", l, t, r, c, nLoc, nLoc)
			}
		}
	}
	if spatialPrior[0] <= 0 || spatialPrior[1] <= 0 {
		return nil, ConfigErrorf("distanceModel",
			"spatial prior parameters must be positive, got (%g, %g)", spatialPrior[0], spatialPrior[1])
	}
	return &DistanceModel{
		DistanceList:  baseMatrices,
		TDistanceList: laggedLists,
		TDMEmpty:      tdmEmpty,
		SpatialPrior:  spatialPrior,
		NLoc:          nLoc,
	}, nil
}

// NLagged returns the number of lagged-matrix slots per time point.
func (d *DistanceModel) NLagged() int {
	if len(d.TDistanceList) == 0 {
		return 0
	}
	return len(d.TDistanceList[0])
}

func (d *DistanceModel) ComponentType() ComponentType { return DistanceComponent }
