// Package abc implements the calibration orchestrator: it validates the
// model-definition components against each other, owns the particle
// matrix and the base random stream, and coordinates the worker pool that
// scores particles against observed incidence via Approximate Bayesian
// Computation.
package abc

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/cache"
	"github.com/josh-tomiyama/ABSEIR/model"
	"github.com/josh-tomiyama/ABSEIR/monitoring"
	"github.com/josh-tomiyama/ABSEIR/pool"
	"github.com/josh-tomiyama/ABSEIR/results"
	"github.com/josh-tomiyama/ABSEIR/rng"
	"github.com/josh-tomiyama/ABSEIR/sampling"
	"github.com/josh-tomiyama/ABSEIR/sim"
	"github.com/josh-tomiyama/ABSEIR/transition"
)

// Model is the calibration orchestrator. It holds validated component
// snapshots, the particle matrix for the current generation, and the
// worker pool bound to the shared read-only simulation inputs.
//
// A Model is not safe for concurrent use; parallelism lives inside the
// worker pool.
type Model struct {
	data        *model.DataModel
	exposure    *model.ExposureModel
	reinfection *model.ReinfectionModel
	distance    *model.DistanceModel
	transitions *model.TransitionPriors
	inits       *model.InitialValueContainer
	control     sampling.Control // copied; cannot dangle

	eiDist *transition.Weibull
	irDist *transition.Weibull

	layout sim.Layout
	shared *sim.Config
	pool   *pool.Pool
	base   *rand.Rand

	params      *mat.Dense
	initialized bool
	calls       int

	// Optional hooks, all nil-safe; set before Sample.
	Monitor *monitoring.Monitor
	Store   *results.Store
	Cache   *cache.Cache
}

// New validates the seven model components against each other and, on
// success, builds the base random stream and the worker pool. Every
// failure is a *model.ConfigurationError naming the mismatched dimension,
// raised before any pool allocation. The components are passed in fixed
// order; role discriminants detect handles passed out of order.
func New(dataC, exposureC, reinfectionC, distanceC, transitionsC, initsC, controlC model.Component) (*Model, error) {
	data, ok := dataC.(*model.DataModel)
	if !ok {
		return nil, orderErr(model.DataComponent, dataC)
	}
	exposure, ok := exposureC.(*model.ExposureModel)
	if !ok {
		return nil, orderErr(model.ExposureComponent, exposureC)
	}
	reinfection, ok := reinfectionC.(*model.ReinfectionModel)
	if !ok {
		return nil, orderErr(model.ReinfectionComponent, reinfectionC)
	}
	distance, ok := distanceC.(*model.DistanceModel)
	if !ok {
		return nil, orderErr(model.DistanceComponent, distanceC)
	}
	transitions, ok := transitionsC.(*model.TransitionPriors)
	if !ok {
		return nil, orderErr(model.TransitionComponent, transitionsC)
	}
	inits, ok := initsC.(*model.InitialValueContainer)
	if !ok {
		return nil, orderErr(model.InitialValueComponent, initsC)
	}
	control, ok := controlC.(*sampling.Control)
	if !ok {
		return nil, orderErr(model.ControlComponent, controlC)
	}

	if data.NLoc != exposure.NLoc {
		return nil, model.ConfigErrorf("dataModel/exposureModel",
			"models imply different numbers of locations: %d, %d", data.NLoc, exposure.NLoc)
	}
	if data.NTpt != exposure.NTpt {
		return nil, model.ConfigErrorf("dataModel/exposureModel",
			"models imply different numbers of time points: %d, %d", data.NTpt, exposure.NTpt)
	}
	if data.NLoc != distance.NLoc {
		return nil, model.ConfigErrorf("dataModel/distanceModel",
			"models imply different numbers of locations: %d, %d", data.NLoc, distance.NLoc)
	}
	if len(distance.TDistanceList) != data.NTpt {
		return nil, model.ConfigErrorf("dataModel/distanceModel",
			"lagged contact matrix lists cover %d time points but the data model has %d",
			len(distance.TDistanceList), data.NTpt)
	}
	nLagged := distance.NLagged()
	for t, list := range distance.TDistanceList {
		if len(list) != nLagged {
			return nil, model.ConfigErrorf("distanceModel",
				"differing numbers of lagged contact matrices across time points: %d at time point 0, %d at %d",
				nLagged, len(list), t)
		}
	}
	if data.NLoc != inits.NLoc() {
		return nil, model.ConfigErrorf("dataModel/initialValueContainer",
			"initial compartment vectors have length %d but the data model has %d locations",
			inits.NLoc(), data.NLoc)
	}
	if reinfection.Mode != model.ReinfectionDisabled {
		rows, _ := reinfection.XRS.Dims()
		if rows != data.NTpt {
			return nil, model.ConfigErrorf("dataModel/reinfectionModel",
				"reinfection covariates have %d rows but the data model has %d time points",
				rows, data.NTpt)
		}
	}
	switch transitions.Mode {
	case model.TransitionExponential, model.TransitionWeibull, model.TransitionPathSpecific:
	default:
		return nil, model.ConfigErrorf("transitionPriors", "invalid transition mode: %q", transitions.Mode)
	}

	m := &Model{
		data:        data,
		exposure:    exposure,
		reinfection: reinfection,
		distance:    distance,
		transitions: transitions,
		inits:       inits,
		control:     *control,
	}

	if transitions.Mode == model.TransitionWeibull {
		var err error
		if m.eiDist, err = transition.NewWeibull(column(transitions.EIParams, 0)); err != nil {
			return nil, model.ConfigErrorf("transitionPriors", "E_to_I hyperparameters: %v", err)
		}
		if m.irDist, err = transition.NewWeibull(column(transitions.IRParams, 0)); err != nil {
			return nil, model.ConfigErrorf("transitionPriors", "I_to_R hyperparameters: %v", err)
		}
	} else {
		m.eiDist = transition.NewInert()
		m.irDist = transition.NewInert()
	}

	m.layout = m.computeLayout()
	m.base = rng.NewExpanded(uint64(m.control.RandomSeed))

	m.shared = &sim.Config{
		Layout:         m.layout,
		S0:             inits.S0,
		E0:             inits.E0,
		I0:             inits.I0,
		R0:             inits.R0,
		Y:              data.Y,
		NAMask:         data.NAMask,
		Phi:            data.Phi,
		Compartment:    data.Compartment,
		Cumulative:     data.Cumulative,
		X:              exposure.X,
		Offset:         exposure.Offset,
		DistanceList:   distance.DistanceList,
		TDistanceList:  distance.TDistanceList,
		TransitionMode: transitions.Mode,
		EIParams:       transitions.EIParams,
		IRParams:       transitions.IRParams,
		InfMean:        transitions.InfMean,
		NTpt:           data.NTpt,
		NLoc:           data.NLoc,
		Width:          m.control.SimulationWidth,
	}
	if m.hasReinfection() {
		m.shared.XRS = reinfection.XRS
	}

	p, err := pool.New(m.shared, m.control.CPUCores, m.control.M, uint64(m.control.RandomSeed))
	if err != nil {
		return nil, err
	}
	m.pool = p
	return m, nil
}

func orderErr(want model.ComponentType, got model.Component) *model.ConfigurationError {
	gotName := "nil"
	if got != nil {
		gotName = got.ComponentType().String()
	}
	return model.ConfigErrorf("spatialSEIRModel",
		"model components were not provided in the correct order: expected %s, got %s",
		want, gotName)
}

// hasReinfection reports whether the betaRS block participates in the
// layout; the first reinfection prior precision is the switch.
func (m *Model) hasReinfection() bool { return m.reinfection.Enabled() }

// hasSpatial reports whether rho parameters are estimated; single-location
// models carry no spatial block.
func (m *Model) hasSpatial() bool { return m.data.NLoc > 1 }

func (m *Model) computeLayout() sim.Layout {
	l := sim.Layout{
		NBeta:  m.exposure.NBeta,
		NTrans: m.transitions.NTrans(),
	}
	if m.hasReinfection() {
		l.NBetaRS = m.reinfection.NBetaRS
	}
	if m.hasSpatial() {
		l.NRho = len(m.distance.DistanceList) + m.distance.NLagged()
	}
	return l
}

// NParams returns the particle vector length implied by the validated
// components. The prior sampler, the density evaluator and SetParameters
// all derive their layout from this same computation.
func (m *Model) NParams() int { return m.layout.NParams() }

// Layout exposes the particle layout for collaborators that consume raw
// parameter vectors.
func (m *Model) Layout() sim.Layout { return m.layout }

// Control returns a copy of the validated run-control block.
func (m *Model) Control() sampling.Control { return m.control }

// Initialized reports whether a particle matrix has been set.
func (m *Model) Initialized() bool { return m.initialized }

// column extracts column j of a dense matrix.
func column(d *mat.Dense, j int) []float64 {
	r, _ := d.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = d.At(i, j)
	}
	return out
}
