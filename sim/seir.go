package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/josh-tomiyama/ABSEIR/model"
)

// Result holds the outcome of one stochastic simulation: the summary
// distance against the observed data and, when requested, the full
// trajectory. A degenerate run carries a NaN distance and marks its row
// invalid downstream; it never aborts the batch it belongs to.
type Result struct {
	Distance   float64
	Degenerate bool

	// Trajectories, horizon x nLoc; nil unless Config.KeepTrajectory.
	S, E, I, R   *mat.Dense
	IStar, RStar *mat.Dense
}

// Run executes one chain-binomial spatial SEIR simulation under the given
// particle parameter vector. All stochasticity comes from rnd, so the run
// is deterministic given the stream.
func Run(cfg *Config, params []float64, rnd *rand.Rand) (*Result, error) {
	if len(params) != cfg.Layout.NParams() {
		return nil, fmt.Errorf("sim: parameter vector has length %d, layout requires %d",
			len(params), cfg.Layout.NParams())
	}

	beta := cfg.Layout.Beta(params)
	betaRS := cfg.Layout.BetaRS(params)
	rho := cfg.Layout.Rho(params)
	trans := cfg.Layout.Trans(params)

	st, err := newState(cfg, trans)
	if err != nil {
		// Structurally impossible transition parameters (e.g. a negative
		// Weibull shape drawn far in a prior tail) degrade the run, not
		// the batch.
		return &Result{Distance: math.NaN(), Degenerate: true}, nil
	}

	horizon := cfg.Horizon()
	nLoc := cfg.NLoc
	iStar := mat.NewDense(horizon, nLoc, nil)
	rStar := mat.NewDense(horizon, nLoc, nil)
	reported := mat.NewDense(horizon, nLoc, nil)

	var trajS, trajE, trajI, trajR *mat.Dense
	if cfg.KeepTrajectory {
		trajS = mat.NewDense(horizon, nLoc, nil)
		trajE = mat.NewDense(horizon, nLoc, nil)
		trajI = mat.NewDense(horizon, nLoc, nil)
		trajR = mat.NewDense(horizon, nLoc, nil)
	}

	pressure := make([]float64, nLoc)
	coupled := make([]float64, nLoc)

	for t := 0; t < horizon; t++ {
		if cfg.KeepTrajectory {
			for i := 0; i < nLoc; i++ {
				trajS.Set(t, i, st.s[i])
				trajE.Set(t, i, st.e[i])
				trajI.Set(t, i, st.i[i])
				trajR.Set(t, i, st.r[i])
			}
		}

		// Baseline infectious pressure per location.
		tc := cfg.clampTpt(t)
		for i := 0; i < nLoc; i++ {
			eta := cfg.Offset[tc]
			row := cfg.xRow(i, t)
			for j, b := range beta {
				eta += row[j] * b
			}
			pressure[i] = math.Exp(eta) * st.i[i] / st.n[i]
		}

		// Spatial coupling through the base and lagged contact matrices.
		copy(coupled, pressure)
		k := 0
		for _, dm := range cfg.DistanceList {
			addScaledMatVec(coupled, rho0(rho, k), dm, pressure)
			k++
		}
		if len(cfg.TDistanceList) > 0 {
			for _, tdm := range cfg.TDistanceList[tc] {
				addScaledMatVec(coupled, rho0(rho, k), tdm, pressure)
				k++
			}
		}

		for i := 0; i < nLoc; i++ {
			pSE := 1 - math.Exp(-coupled[i])
			if math.IsNaN(pSE) || pSE < 0 {
				return &Result{Distance: math.NaN(), Degenerate: true}, nil
			}

			eNew := binomial(st.s[i], pSE, rnd)
			iNew := st.drawEI(i, rnd)
			rNew := st.drawIR(i, rnd)

			var sNew float64
			if cfg.hasReinfection() {
				etaRS := 0.0
				for j, b := range betaRS {
					etaRS += cfg.XRS.At(tc, j) * b
				}
				pRS := 1 - math.Exp(-math.Exp(etaRS))
				sNew = binomial(st.r[i], pRS, rnd)
			}

			st.advance(i, eNew, iNew, rNew, sNew)

			iStar.Set(t, i, iNew)
			rStar.Set(t, i, rNew)

			score := iNew
			if cfg.Compartment == model.CompartmentRStar {
				score = rNew
			}
			reported.Set(t, i, report(score, phi0(cfg.Phi, i), rnd))

			if st.degenerate(i) {
				return &Result{Distance: math.NaN(), Degenerate: true}, nil
			}
		}
	}

	res := &Result{Distance: distance(cfg, reported)}
	if cfg.KeepTrajectory {
		res.S, res.E, res.I, res.R = trajS, trajE, trajI, trajR
		res.IStar, res.RStar = iStar, rStar
	}
	return res, nil
}

// distance is the Euclidean summary statistic over non-missing cells of
// the observed window, on cumulative counts when configured.
func distance(cfg *Config, reported *mat.Dense) float64 {
	cumSim := make([]float64, cfg.NLoc)
	cumObs := make([]float64, cfg.NLoc)
	var ss float64
	for t := 0; t < cfg.NTpt; t++ {
		for i := 0; i < cfg.NLoc; i++ {
			simV := reported.At(t, i)
			if cfg.Cumulative {
				cumSim[i] += simV
				simV = cumSim[i]
			}
			if cfg.missing(t, i) {
				continue
			}
			obsV := cfg.Y.At(t, i)
			if cfg.Cumulative {
				cumObs[i] += obsV
				obsV = cumObs[i]
			}
			d := simV - obsV
			ss += d * d
		}
	}
	return math.Sqrt(ss)
}

// addScaledMatVec accumulates dst += w * (m · v).
func addScaledMatVec(dst []float64, w float64, m *mat.Dense, v []float64) {
	if w == 0 {
		return
	}
	n := len(dst)
	for i := 0; i < n; i++ {
		var acc float64
		row := m.RawRowView(i)
		for j := 0; j < n; j++ {
			acc += row[j] * v[j]
		}
		dst[i] += w * acc
	}
}

// rho0 reads rho[k], treating a missing spatial block (single-location
// models) as zero coupling.
func rho0(rho []float64, k int) float64 {
	if k >= len(rho) {
		return 0
	}
	return rho[k]
}

func phi0(phi []float64, i int) float64 {
	if i >= len(phi) {
		return 0
	}
	return phi[i]
}

// binomial draws Binomial(n, p) with the edge cases pinned down so worker
// streams stay aligned across platforms.
func binomial(n, p float64, rnd *rand.Rand) float64 {
	n = math.Floor(n)
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	return distuv.Binomial{N: n, P: p, Src: rnd}.Rand()
}

// report applies negative-binomial reporting noise (Gamma-Poisson mixture
// with dispersion phi) to a simulated count. Non-positive phi or a zero
// count passes through unchanged.
func report(mu, phi float64, rnd *rand.Rand) float64 {
	if phi <= 0 || mu <= 0 {
		return mu
	}
	lambda := distuv.Gamma{Alpha: phi, Beta: phi / mu, Src: rnd}.Rand()
	return distuv.Poisson{Lambda: lambda, Src: rnd}.Rand()
}
