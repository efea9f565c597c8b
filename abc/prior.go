package abc

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/josh-tomiyama/ABSEIR/model"
)

// rhoRetryBudget bounds the whole-block redraws used to satisfy the
// simplex constraint sum(rho) <= 1. Exhausting it keeps the last draw and
// logs a degeneracy warning; it is not fatal.
const rhoRetryBudget = 100

// GenerateParamsPrior draws nParticles i.i.d. particle vectors from the
// joint prior, as rows of an nParticles x NParams matrix laid out
// [beta | betaRS | rho | trans]. Draws consume the orchestrator's base
// stream, so two orchestrators built from identical components and seeds
// produce bit-identical output.
func (m *Model) GenerateParamsPrior(nParticles int) *mat.Dense {
	l := m.layout
	out := mat.NewDense(nParticles, l.NParams(), nil)

	// Regression block: Normal(mean_j, 1/precision_j) per column.
	for i := 0; i < nParticles; i++ {
		for j := 0; j < l.NBeta; j++ {
			d := distuv.Normal{
				Mu:    m.exposure.BetaPriorMean[j],
				Sigma: 1 / m.exposure.BetaPriorPrecision[j],
				Src:   m.base,
			}
			out.Set(i, j, d.Rand())
		}
	}

	// Transition block: Gamma draws straight from the marginal hyperprior
	// columns. The Weibull transition distributions built at construction
	// are deliberately not consulted here; only the density evaluator
	// delegates to them.
	transOff := l.NBeta + l.NBetaRS + l.NRho
	switch m.transitions.Mode {
	case model.TransitionExponential:
		ei := distuv.Gamma{Alpha: m.transitions.EIParams.At(0, 0), Beta: m.transitions.EIParams.At(1, 0), Src: m.base}
		ir := distuv.Gamma{Alpha: m.transitions.IRParams.At(0, 0), Beta: m.transitions.IRParams.At(1, 0), Src: m.base}
		for i := 0; i < nParticles; i++ {
			out.Set(i, transOff, ei.Rand())
			out.Set(i, transOff+1, ir.Rand())
		}
	case model.TransitionWeibull:
		eiShape := distuv.Gamma{Alpha: m.transitions.EIParams.At(0, 0), Beta: m.transitions.EIParams.At(1, 0), Src: m.base}
		eiScale := distuv.Gamma{Alpha: m.transitions.EIParams.At(2, 0), Beta: m.transitions.EIParams.At(3, 0), Src: m.base}
		irShape := distuv.Gamma{Alpha: m.transitions.IRParams.At(0, 0), Beta: m.transitions.IRParams.At(1, 0), Src: m.base}
		irScale := distuv.Gamma{Alpha: m.transitions.IRParams.At(2, 0), Beta: m.transitions.IRParams.At(3, 0), Src: m.base}
		for i := 0; i < nParticles; i++ {
			out.Set(i, transOff, eiShape.Rand())
			out.Set(i, transOff+1, eiScale.Rand())
			out.Set(i, transOff+2, irShape.Rand())
			out.Set(i, transOff+3, irScale.Rand())
		}
	}

	// Reinfection block, present only when enabled.
	for i := 0; i < nParticles && l.NBetaRS > 0; i++ {
		for j := 0; j < l.NBetaRS; j++ {
			d := distuv.Normal{
				Mu:    m.reinfection.BetaPriorMean[j],
				Sigma: 1 / m.reinfection.BetaPriorPrecision[j],
				Src:   m.base,
			}
			out.Set(i, l.NBeta+j, d.Rand())
		}
	}

	// Spatial block: per-entry Gamma draws, whole block redrawn until the
	// simplex constraint holds or the retry budget runs out.
	if l.NRho > 0 {
		rhoDist := distuv.Gamma{
			Alpha: m.distance.SpatialPrior[0],
			Beta:  m.distance.SpatialPrior[1],
			Src:   m.base,
		}
		rhoOff := l.NBeta + l.NBetaRS
		for i := 0; i < nParticles; i++ {
			total := 2.0
			for itr := 0; total > 1 && itr < rhoRetryBudget; itr++ {
				total = 0
				for j := 0; j < l.NRho; j++ {
					v := rhoDist.Rand()
					out.Set(i, rhoOff+j, v)
					total += v
				}
			}
			if total > 1 {
				log.Printf("abc: valid rho draw not obtained for particle %d after %d attempts", i, rhoRetryBudget)
			}
		}
	}

	return out
}

// EvalPrior evaluates the unnormalized joint prior density of one particle
// vector. The vector's ordering must exactly match GenerateParamsPrior's
// layout; that contract also binds the workers' parameter consumption.
func (m *Model) EvalPrior(v []float64) (float64, error) {
	l := m.layout
	if len(v) != l.NParams() {
		return 0, fmt.Errorf("abc: parameter vector has length %d, layout requires %d", len(v), l.NParams())
	}

	prior := 1.0
	idx := 0

	for j := 0; j < l.NBeta; j++ {
		d := distuv.Normal{Mu: m.exposure.BetaPriorMean[j], Sigma: 1 / m.exposure.BetaPriorPrecision[j]}
		prior *= d.Prob(v[idx])
		idx++
	}

	for j := 0; j < l.NBetaRS; j++ {
		d := distuv.Normal{Mu: m.reinfection.BetaPriorMean[j], Sigma: 1 / m.reinfection.BetaPriorPrecision[j]}
		prior *= d.Prob(v[idx])
		idx++
	}

	if l.NRho > 0 {
		rhoDist := distuv.Beta{Alpha: m.distance.SpatialPrior[0], Beta: m.distance.SpatialPrior[1]}
		var constr float64
		for j := 0; j < l.NRho; j++ {
			constr += v[idx]
			prior *= rhoDist.Prob(v[idx])
			idx++
		}
		if constr > 1 {
			return 0, nil
		}
	}

	switch m.transitions.Mode {
	case model.TransitionExponential:
		ei := distuv.Gamma{Alpha: m.transitions.EIParams.At(0, 0), Beta: m.transitions.EIParams.At(1, 0)}
		ir := distuv.Gamma{Alpha: m.transitions.IRParams.At(0, 0), Beta: m.transitions.IRParams.At(1, 0)}
		prior *= ei.Prob(v[idx])
		prior *= ir.Prob(v[idx+1])
	case model.TransitionWeibull:
		p, err := m.eiDist.EvalParamPrior(v[idx : idx+2])
		if err != nil {
			return 0, err
		}
		prior *= p
		p, err = m.irDist.EvalParamPrior(v[idx+2 : idx+4])
		if err != nil {
			return 0, err
		}
		prior *= p
	}

	return prior, nil
}
