package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/josh-tomiyama/ABSEIR/model"
)

// state is the mutable simulation state for one run: compartment counts
// per location, plus age-in-compartment cohorts when sojourn hazards are
// age-dependent.
type state struct {
	s, e, i, r []float64
	n          []float64 // closed population per location

	// Exponential-mode per-step transition probabilities.
	pEI, pIR float64

	// Weibull-mode sojourn distributions and cohort bookkeeping.
	weibull bool
	eiDist  distuv.Weibull
	irDist  distuv.Weibull
	// eCohorts[loc][age] counts individuals who entered E `age` steps
	// ago; likewise iCohorts for I.
	eCohorts [][]float64
	iCohorts [][]float64
}

func newState(cfg *Config, trans []float64) (*state, error) {
	nLoc := cfg.NLoc
	st := &state{
		s: append([]float64(nil), cfg.S0...),
		e: append([]float64(nil), cfg.E0...),
		i: append([]float64(nil), cfg.I0...),
		r: append([]float64(nil), cfg.R0...),
		n: make([]float64, nLoc),
	}
	for i := 0; i < nLoc; i++ {
		st.n[i] = cfg.S0[i] + cfg.E0[i] + cfg.I0[i] + cfg.R0[i]
		if st.n[i] <= 0 {
			return nil, fmt.Errorf("sim: empty population at location %d", i)
		}
	}

	switch cfg.TransitionMode {
	case model.TransitionExponential:
		if trans[0] <= 0 || trans[1] <= 0 {
			return nil, fmt.Errorf("sim: non-positive transition rates")
		}
		st.pEI = 1 - math.Exp(-trans[0])
		st.pIR = 1 - math.Exp(-trans[1])
	case model.TransitionWeibull:
		for _, v := range trans {
			if v <= 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("sim: non-positive weibull sojourn parameters")
			}
		}
		st.weibull = true
		st.eiDist = distuv.Weibull{K: trans[0], Lambda: trans[1]}
		st.irDist = distuv.Weibull{K: trans[2], Lambda: trans[3]}
		st.eCohorts = make([][]float64, nLoc)
		st.iCohorts = make([][]float64, nLoc)
		for i := 0; i < nLoc; i++ {
			st.eCohorts[i] = []float64{cfg.E0[i]}
			st.iCohorts[i] = []float64{cfg.I0[i]}
		}
	case model.TransitionPathSpecific:
		// No sampled transition parameters; fixed hazards at the
		// hyperprior means, with the infectious period anchored on the
		// mean sojourn estimate when one is supplied.
		rateEI := cfg.EIParams.At(0, 0) / cfg.EIParams.At(1, 0)
		rateIR := cfg.IRParams.At(0, 0) / cfg.IRParams.At(1, 0)
		if cfg.InfMean > 0 {
			rateIR = 1 / cfg.InfMean
		}
		st.pEI = 1 - math.Exp(-rateEI)
		st.pIR = 1 - math.Exp(-rateIR)
	default:
		return nil, fmt.Errorf("sim: unknown transition mode %q", cfg.TransitionMode)
	}
	return st, nil
}

// drawEI draws the number of E -> I transitions at location loc for the
// current step. In weibull mode each age cohort transitions with its
// conditional hazard; the cohort structure is updated in place.
func (st *state) drawEI(loc int, rnd *rand.Rand) float64 {
	if !st.weibull {
		return binomial(st.e[loc], st.pEI, rnd)
	}
	var total float64
	st.eCohorts[loc], total = ageCohorts(st.eCohorts[loc], st.eiDist, rnd)
	return total
}

// drawIR draws the number of I -> R transitions at location loc.
func (st *state) drawIR(loc int, rnd *rand.Rand) float64 {
	if !st.weibull {
		return binomial(st.i[loc], st.pIR, rnd)
	}
	var total float64
	st.iCohorts[loc], total = ageCohorts(st.iCohorts[loc], st.irDist, rnd)
	return total
}

// advance applies one step's transition counts at location loc and feeds
// new entrants into the age-zero cohorts.
func (st *state) advance(loc int, eNew, iNew, rNew, sNew float64) {
	st.s[loc] += sNew - eNew
	st.e[loc] += eNew - iNew
	st.i[loc] += iNew - rNew
	st.r[loc] += rNew - sNew
	if st.weibull {
		st.eCohorts[loc] = append([]float64{eNew}, st.eCohorts[loc]...)
		st.iCohorts[loc] = append([]float64{iNew}, st.iCohorts[loc]...)
	}
}

// degenerate reports a broken trajectory at location loc.
func (st *state) degenerate(loc int) bool {
	for _, v := range []float64{st.s[loc], st.e[loc], st.i[loc], st.r[loc]} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// ageCohorts draws each cohort's transitions under its conditional hazard
// h(a) = (F(a+1) - F(a)) / S(a), removes them, and returns the surviving
// cohorts (ages advance when the caller prepends the new age-zero cohort).
func ageCohorts(cohorts []float64, dist distuv.Weibull, rnd *rand.Rand) ([]float64, float64) {
	var total float64
	for age, count := range cohorts {
		if count <= 0 {
			continue
		}
		surv := dist.Survival(float64(age))
		var p float64
		if surv <= 0 {
			p = 1
		} else {
			p = (dist.CDF(float64(age+1)) - dist.CDF(float64(age))) / surv
		}
		if p < 0 {
			p = 0
		}
		moved := binomial(count, p, rnd)
		cohorts[age] = count - moved
		total += moved
	}
	return cohorts, total
}
