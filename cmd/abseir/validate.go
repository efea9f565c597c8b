package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/josh-tomiyama/ABSEIR/abc"
	"github.com/josh-tomiyama/ABSEIR/parser"
)

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: abseir validate <model.json>

Parse a model-definition document, cross-validate its components, and
report the implied particle layout.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("model file required")
	}

	m, comps, err := buildModel(fs.Arg(0))
	if err != nil {
		return err
	}

	l := m.Layout()
	fmt.Printf("Model OK: %d locations, %d time points\n", comps.Data.NLoc, comps.Data.NTpt)
	fmt.Printf("Particle layout: beta=%d betaRS=%d rho=%d trans=%d (nParams=%d)\n",
		l.NBeta, l.NBetaRS, l.NRho, l.NTrans, m.NParams())
	fmt.Printf("Algorithm: %s, batch size %d, max batches %d\n",
		comps.Control.Algorithm, comps.Control.BatchSize, comps.Control.MaxBatches)
	return nil
}

// buildModel loads a document and constructs the orchestrator from it.
func buildModel(path string) (*abc.Model, *parser.Components, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading model file: %w", err)
	}
	comps, err := parser.FromJSON(data)
	if err != nil {
		return nil, nil, err
	}
	m, err := abc.New(comps.Data, comps.Exposure, comps.Reinfection,
		comps.Distance, comps.Transitions, comps.Initial, comps.Control)
	if err != nil {
		return nil, nil, err
	}
	return m, comps, nil
}
