package model

// InitialValueContainer holds the initial compartment sizes per location.
type InitialValueContainer struct {
	S0 []float64
	E0 []float64
	I0 []float64
	R0 []float64
}

// NewInitialValueContainer validates and builds an InitialValueContainer.
func NewInitialValueContainer(s0, e0, i0, r0 []float64) (*InitialValueContainer, error) {
	n := len(s0)
	if n == 0 {
		return nil, ConfigErrorf("initialValueContainer", "initial compartment vectors must be non-empty")
	}
	for _, v := range []struct {
		name string
		vec  []float64
	}{{"E0", e0}, {"I0", i0}, {"R0", r0}} {
		if len(v.vec) != n {
			return nil, ConfigErrorf("initialValueContainer",
				"%s has length %d but S0 has length %d", v.name, len(v.vec), n)
		}
	}
	for _, v := range []struct {
		name string
		vec  []float64
	}{{"S0", s0}, {"E0", e0}, {"I0", i0}, {"R0", r0}} {
		for i, x := range v.vec {
			if x < 0 {
				return nil, ConfigErrorf("initialValueContainer",
					"%s[%d] is negative: %g", v.name, i, x)
			}
		}
	}
	return &InitialValueContainer{S0: s0, E0: e0, I0: i0, R0: r0}, nil
}

// NLoc returns the number of locations implied by the initial vectors.
func (c *InitialValueContainer) NLoc() int { return len(c.S0) }

func (c *InitialValueContainer) ComponentType() ComponentType { return InitialValueComponent }
