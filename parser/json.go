// Package parser handles JSON import/export of model-definition
// documents: one document carries all seven components of a calibration
// (observed data, covariates, spatial structure, transition priors,
// initial compartments and run control).
package parser

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/model"
	"github.com/josh-tomiyama/ABSEIR/sampling"
)

// Components bundles the validated model components parsed from one
// document, ready to hand to the orchestrator in fixed order.
type Components struct {
	Data        *model.DataModel
	Exposure    *model.ExposureModel
	Reinfection *model.ReinfectionModel
	Distance    *model.DistanceModel
	Transitions *model.TransitionPriors
	Initial     *model.InitialValueContainer
	Control     *sampling.Control
}

// Document is the raw JSON shape. Matrices are row-major nested arrays.
type Document struct {
	Data struct {
		Y           [][]float64 `json:"y"`
		NAMask      [][]float64 `json:"naMask,omitempty"`
		Phi         []float64   `json:"phi,omitempty"`
		Compartment string      `json:"compartment"`
		Cumulative  bool        `json:"cumulative"`
	} `json:"dataModel"`

	Exposure struct {
		X         [][]float64 `json:"x"`
		Offset    []float64   `json:"offset"`
		PriorMean []float64   `json:"priorMean"`
		PriorPrec []float64   `json:"priorPrecision"`
		NLoc      int         `json:"nLoc"`
		NTpt      int         `json:"nTpt"`
	} `json:"exposureModel"`

	Reinfection *struct {
		Mode      int         `json:"mode"`
		XRS       [][]float64 `json:"xRS,omitempty"`
		PriorMean []float64   `json:"priorMean,omitempty"`
		PriorPrec []float64   `json:"priorPrecision,omitempty"`
	} `json:"reinfectionModel,omitempty"`

	Distance struct {
		Base         [][][]float64   `json:"base"`
		Lagged       [][][][]float64 `json:"lagged,omitempty"`
		SpatialPrior [2]float64      `json:"spatialPrior"`
	} `json:"distanceModel"`

	Transitions struct {
		Mode     string      `json:"mode"`
		EIParams [][]float64 `json:"eiParams"`
		IRParams [][]float64 `json:"irParams"`
		InfMean  float64     `json:"infMean,omitempty"`
	} `json:"transitionPriors"`

	Initial struct {
		S0 []float64 `json:"s0"`
		E0 []float64 `json:"e0"`
		I0 []float64 `json:"i0"`
		R0 []float64 `json:"r0"`
	} `json:"initialValues"`

	Control struct {
		IntegerParams []int     `json:"integerParams"`
		NumericParams []float64 `json:"numericParams"`
	} `json:"samplingControl"`
}

// FromJSON parses and validates a model-definition document.
func FromJSON(data []byte) (*Components, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	y, err := dense(doc.Data.Y, "dataModel.y")
	if err != nil {
		return nil, err
	}
	var naMask *mat.Dense
	if len(doc.Data.NAMask) > 0 {
		if naMask, err = dense(doc.Data.NAMask, "dataModel.naMask"); err != nil {
			return nil, err
		}
	}
	dataModel, err := model.NewDataModel(y, naMask, doc.Data.Phi, doc.Data.Compartment, doc.Data.Cumulative)
	if err != nil {
		return nil, err
	}

	x, err := dense(doc.Exposure.X, "exposureModel.x")
	if err != nil {
		return nil, err
	}
	exposure, err := model.NewExposureModel(x, doc.Exposure.Offset,
		doc.Exposure.PriorMean, doc.Exposure.PriorPrec, doc.Exposure.NLoc, doc.Exposure.NTpt)
	if err != nil {
		return nil, err
	}

	reinfection := model.NewDisabledReinfectionModel()
	if doc.Reinfection != nil {
		var xrs *mat.Dense
		if len(doc.Reinfection.XRS) > 0 {
			if xrs, err = dense(doc.Reinfection.XRS, "reinfectionModel.xRS"); err != nil {
				return nil, err
			}
		}
		reinfection, err = model.NewReinfectionModel(doc.Reinfection.Mode, xrs,
			doc.Reinfection.PriorMean, doc.Reinfection.PriorPrec)
		if err != nil {
			return nil, err
		}
	}

	base := make([]*mat.Dense, len(doc.Distance.Base))
	for i, b := range doc.Distance.Base {
		if base[i], err = dense(b, fmt.Sprintf("distanceModel.base[%d]", i)); err != nil {
			return nil, err
		}
	}
	var lagged [][]*mat.Dense
	for t, list := range doc.Distance.Lagged {
		row := make([]*mat.Dense, len(list))
		for l, mRaw := range list {
			if row[l], err = dense(mRaw, fmt.Sprintf("distanceModel.lagged[%d][%d]", t, l)); err != nil {
				return nil, err
			}
		}
		lagged = append(lagged, row)
	}
	distance, err := model.NewDistanceModel(base, lagged, doc.Distance.SpatialPrior, dataModel.NTpt)
	if err != nil {
		return nil, err
	}

	ei, err := dense(doc.Transitions.EIParams, "transitionPriors.eiParams")
	if err != nil {
		return nil, err
	}
	ir, err := dense(doc.Transitions.IRParams, "transitionPriors.irParams")
	if err != nil {
		return nil, err
	}
	transitions, err := model.NewTransitionPriors(doc.Transitions.Mode, ei, ir, doc.Transitions.InfMean)
	if err != nil {
		return nil, err
	}

	initial, err := model.NewInitialValueContainer(doc.Initial.S0, doc.Initial.E0, doc.Initial.I0, doc.Initial.R0)
	if err != nil {
		return nil, err
	}

	control, err := sampling.New(doc.Control.IntegerParams, doc.Control.NumericParams)
	if err != nil {
		return nil, err
	}

	return &Components{
		Data:        dataModel,
		Exposure:    exposure,
		Reinfection: reinfection,
		Distance:    distance,
		Transitions: transitions,
		Initial:     initial,
		Control:     control,
	}, nil
}

// ToJSON serializes validated components back into a document, the
// inverse of FromJSON up to omitted optional blocks.
func ToJSON(c *Components) ([]byte, error) {
	var doc Document

	doc.Data.Y = rows(c.Data.Y)
	if c.Data.NAMask != nil {
		doc.Data.NAMask = rows(c.Data.NAMask)
	}
	doc.Data.Phi = c.Data.Phi
	doc.Data.Compartment = c.Data.Compartment
	doc.Data.Cumulative = c.Data.Cumulative

	doc.Exposure.X = rows(c.Exposure.X)
	doc.Exposure.Offset = c.Exposure.Offset
	doc.Exposure.PriorMean = c.Exposure.BetaPriorMean
	doc.Exposure.PriorPrec = c.Exposure.BetaPriorPrecision
	doc.Exposure.NLoc = c.Exposure.NLoc
	doc.Exposure.NTpt = c.Exposure.NTpt

	if c.Reinfection != nil && c.Reinfection.Mode != model.ReinfectionDisabled {
		doc.Reinfection = &struct {
			Mode      int         `json:"mode"`
			XRS       [][]float64 `json:"xRS,omitempty"`
			PriorMean []float64   `json:"priorMean,omitempty"`
			PriorPrec []float64   `json:"priorPrecision,omitempty"`
		}{
			Mode:      c.Reinfection.Mode,
			XRS:       rows(c.Reinfection.XRS),
			PriorMean: c.Reinfection.BetaPriorMean,
			PriorPrec: c.Reinfection.BetaPriorPrecision,
		}
	}

	doc.Distance.Base = make([][][]float64, len(c.Distance.DistanceList))
	for i, b := range c.Distance.DistanceList {
		doc.Distance.Base[i] = rows(b)
	}
	if !c.Distance.TDMEmpty {
		doc.Distance.Lagged = make([][][][]float64, len(c.Distance.TDistanceList))
		for t, list := range c.Distance.TDistanceList {
			doc.Distance.Lagged[t] = make([][][]float64, len(list))
			for l, m := range list {
				doc.Distance.Lagged[t][l] = rows(m)
			}
		}
	}
	doc.Distance.SpatialPrior = c.Distance.SpatialPrior

	doc.Transitions.Mode = c.Transitions.Mode
	doc.Transitions.EIParams = rows(c.Transitions.EIParams)
	doc.Transitions.IRParams = rows(c.Transitions.IRParams)
	doc.Transitions.InfMean = c.Transitions.InfMean

	doc.Initial.S0 = c.Initial.S0
	doc.Initial.E0 = c.Initial.E0
	doc.Initial.I0 = c.Initial.I0
	doc.Initial.R0 = c.Initial.R0

	ctl := c.Control
	mvp := 0
	if ctl.MultivariatePerturbation {
		mvp = 1
	}
	doc.Control.IntegerParams = []int{
		ctl.SimulationWidth, ctl.RandomSeed, ctl.CPUCores, int(ctl.Algorithm),
		ctl.BatchSize, ctl.Epochs, ctl.MaxBatches, mvp, ctl.M,
	}
	doc.Control.NumericParams = []float64{ctl.AcceptFraction, ctl.Shrinkage, ctl.TargetEps}

	return json.MarshalIndent(&doc, "", "  ")
}

// rows converts a matrix into a row-major nested array.
func rows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		copy(out[i], m.RawRowView(i))
	}
	return out
}

// dense converts a row-major nested array into a matrix, checking ragged
// input.
func dense(rows [][]float64, name string) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s must be a non-empty matrix", name)
	}
	nCols := len(rows[0])
	flat := make([]float64, 0, len(rows)*nCols)
	for i, row := range rows {
		if len(row) != nCols {
			return nil, fmt.Errorf("%s row %d has %d entries, expected %d", name, i, len(row), nCols)
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), nCols, flat), nil
}
