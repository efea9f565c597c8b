// Package sim implements the discrete-time stochastic spatial SEIR
// simulator executed by worker-pool jobs, and the summary statistic that
// scores a simulated trajectory against observed incidence.
package sim

// Layout describes the fixed particle parameter layout
// [beta | betaRS | rho | trans]. It is the binding contract shared by the
// prior sampler, the prior density evaluator, and parameter consumption
// inside the simulator: all three compute offsets from the same counts.
type Layout struct {
	NBeta   int
	NBetaRS int
	NRho    int
	NTrans  int
}

// NParams returns the total particle length.
func (l Layout) NParams() int { return l.NBeta + l.NBetaRS + l.NRho + l.NTrans }

// Beta returns the regression block of v.
func (l Layout) Beta(v []float64) []float64 { return v[:l.NBeta] }

// BetaRS returns the reinfection block of v (empty when disabled).
func (l Layout) BetaRS(v []float64) []float64 { return v[l.NBeta : l.NBeta+l.NBetaRS] }

// Rho returns the spatial autocorrelation block of v (empty for a single
// location).
func (l Layout) Rho(v []float64) []float64 {
	return v[l.NBeta+l.NBetaRS : l.NBeta+l.NBetaRS+l.NRho]
}

// Trans returns the transition hyperparameter block of v.
func (l Layout) Trans(v []float64) []float64 { return v[l.NBeta+l.NBetaRS+l.NRho:] }
