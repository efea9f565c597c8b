package model

import "gonum.org/v1/gonum/mat"

// Compartment selectors for scoring simulated against observed incidence.
const (
	CompartmentIStar = "I_star" // new infections per time point
	CompartmentRStar = "R_star" // new removals per time point
)

// DataModel holds the observed incidence data and the description of how
// simulated trajectories are compared against it.
type DataModel struct {
	// Y is the observed incidence matrix, nTpt x nLoc.
	Y *mat.Dense
	// NAMask flags missing observations (nonzero == missing), same shape
	// as Y. Missing cells are excluded from distance computation.
	NAMask *mat.Dense
	// Phi holds per-location overdispersion parameters for reporting
	// noise. A non-positive entry disables noise for that location.
	Phi []float64
	// Compartment selects which transition count Y is compared against.
	Compartment string
	// Cumulative compares cumulative rather than per-time-point counts.
	Cumulative bool

	NTpt int
	NLoc int
}

// NewDataModel validates and builds a DataModel. phi may be nil, in which
// case reporting noise is disabled everywhere.
func NewDataModel(y, naMask *mat.Dense, phi []float64, compartment string, cumulative bool) (*DataModel, error) {
	if y == nil {
		return nil, ConfigErrorf("dataModel", "observed incidence matrix Y is required")
	}
	nTpt, nLoc := y.Dims()
	if nTpt == 0 || nLoc == 0 {
		return nil, ConfigErrorf("dataModel", "Y must be non-empty, got %dx%d", nTpt, nLoc)
	}
	if naMask != nil {
		mr, mc := naMask.Dims()
		if mr != nTpt || mc != nLoc {
			return nil, ConfigErrorf("dataModel",
				"missingness mask is %dx%d but Y is %dx%d", mr, mc, nTpt, nLoc)
		}
	}
	if phi != nil && len(phi) != nLoc {
		return nil, ConfigErrorf("dataModel",
			"dispersion vector has length %d but Y implies %d locations", len(phi), nLoc)
	}
	if compartment != CompartmentIStar && compartment != CompartmentRStar {
		return nil, ConfigErrorf("dataModel", "unknown comparison compartment %q", compartment)
	}
	return &DataModel{
		Y:           y,
		NAMask:      naMask,
		Phi:         phi,
		Compartment: compartment,
		Cumulative:  cumulative,
		NTpt:        nTpt,
		NLoc:        nLoc,
	}, nil
}

// Missing reports whether the observation at (t, loc) is masked out.
func (d *DataModel) Missing(t, loc int) bool {
	return d.NAMask != nil && d.NAMask.At(t, loc) != 0
}

func (d *DataModel) ComponentType() ComponentType { return DataComponent }
