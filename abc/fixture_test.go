package abc

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/model"
	"github.com/josh-tomiyama/ABSEIR/sampling"
)

// fixture bundles one valid component set: 3 locations, 10 time points,
// intercept-plus-trend exposure design, one base and one lagged contact
// matrix, no reinfection, exponential sojourn times. The implied layout is
// [beta(2) | rho(2) | trans(2)], six parameters.
type fixture struct {
	data        *model.DataModel
	exposure    *model.ExposureModel
	reinfection *model.ReinfectionModel
	distance    *model.DistanceModel
	transitions *model.TransitionPriors
	inits       *model.InitialValueContainer
	control     *sampling.Control
}

const (
	fixNTpt = 10
	fixNLoc = 3
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	y := mat.NewDense(fixNTpt, fixNLoc, []float64{
		1, 0, 0,
		2, 1, 0,
		4, 2, 1,
		6, 3, 2,
		7, 5, 3,
		5, 4, 3,
		4, 3, 2,
		2, 2, 1,
		1, 1, 1,
		1, 0, 0,
	})
	data, err := model.NewDataModel(y, nil, nil, model.CompartmentIStar, false)
	if err != nil {
		t.Fatalf("data model: %v", err)
	}

	x := mat.NewDense(fixNLoc*fixNTpt, 2, nil)
	for loc := 0; loc < fixNLoc; loc++ {
		for tp := 0; tp < fixNTpt; tp++ {
			x.Set(loc*fixNTpt+tp, 0, 1)
			x.Set(loc*fixNTpt+tp, 1, float64(tp)/fixNTpt)
		}
	}
	exposure, err := model.NewExposureModel(x, make([]float64, fixNTpt),
		[]float64{-1, 0}, []float64{1, 1}, fixNLoc, fixNTpt)
	if err != nil {
		t.Fatalf("exposure model: %v", err)
	}

	base := mat.NewDense(fixNLoc, fixNLoc, []float64{
		0, 1, 0,
		1, 0, 1,
		0, 1, 0,
	})
	lagged := make([][]*mat.Dense, fixNTpt)
	for tp := range lagged {
		lagged[tp] = []*mat.Dense{mat.NewDense(fixNLoc, fixNLoc, []float64{
			0, 0, 1,
			0, 0, 0,
			1, 0, 0,
		})}
	}
	distance, err := model.NewDistanceModel([]*mat.Dense{base}, lagged, [2]float64{1, 1}, fixNTpt)
	if err != nil {
		t.Fatalf("distance model: %v", err)
	}

	transitions, err := model.NewTransitionPriors(model.TransitionExponential,
		mat.NewDense(4, 1, []float64{2.3, 10, 1, 1}),
		mat.NewDense(4, 1, []float64{2.3, 10, 1, 1}), 0)
	if err != nil {
		t.Fatalf("transition priors: %v", err)
	}

	inits, err := model.NewInitialValueContainer(
		[]float64{500, 400, 300},
		[]float64{2, 1, 1},
		[]float64{1, 1, 0},
		[]float64{0, 0, 0})
	if err != nil {
		t.Fatalf("initial values: %v", err)
	}

	// width, seed, cores, algorithm, batchSize, epochs, maxBatches,
	// multivariate, m
	control, err := sampling.New([]int{0, 42, 2, 1, 20, 1, 3, 0, 2}, []float64{0.25, 0.9, 0})
	if err != nil {
		t.Fatalf("sampling control: %v", err)
	}

	return &fixture{
		data:        data,
		exposure:    exposure,
		reinfection: model.NewDisabledReinfectionModel(),
		distance:    distance,
		transitions: transitions,
		inits:       inits,
		control:     control,
	}
}

// weibullModel swaps the transition priors to weibull mode and builds.
func (f *fixture) weibullModel(t *testing.T) *Model {
	t.Helper()
	var err error
	f.transitions, err = model.NewTransitionPriors(model.TransitionWeibull,
		mat.NewDense(4, 1, []float64{4, 2, 10, 2}),
		mat.NewDense(4, 1, []float64{4, 2, 14, 2}), 0)
	if err != nil {
		t.Fatalf("transition priors: %v", err)
	}
	return f.build(t)
}

func (f *fixture) build(t *testing.T) *Model {
	t.Helper()
	m, err := New(f.data, f.exposure, f.reinfection, f.distance, f.transitions, f.inits, f.control)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}
