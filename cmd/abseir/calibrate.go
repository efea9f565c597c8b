package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/josh-tomiyama/ABSEIR/cache"
	"github.com/josh-tomiyama/ABSEIR/monitoring"
	"github.com/josh-tomiyama/ABSEIR/results"
)

func calibrate(args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	keep := fs.Int("keep", 0, "Number of particles to keep (default: accept_fraction of the batch budget)")
	db := fs.String("db", "", "SQLite database for persisting the run (optional)")
	output := fs.String("output", "", "Output JSON file for the result summary (default: stdout)")
	quiet := fs.Bool("quiet", false, "Suppress per-batch progress on stderr")
	cacheSize := fs.Int("cache", 0, "Memoize particle scores, bounded to this many entries (0 disables)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: abseir calibrate <model.json> [options]

Run the configured ABC calibration against the observed data and report
the accepted particle population.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("model file required")
	}

	m, _, err := buildModel(fs.Arg(0))
	if err != nil {
		return err
	}

	if !*quiet {
		mon := monitoring.New()
		mon.SetWriter(os.Stderr)
		m.Monitor = mon
	}
	if *db != "" {
		store, err := results.Open(*db)
		if err != nil {
			return err
		}
		defer store.Close()
		m.Store = store
	}
	if *cacheSize > 0 {
		m.Cache = cache.New(*cacheSize)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := m.Sample(ctx, *keep)
	if err != nil {
		return err
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	db := fs.String("db", "abseir.db", "SQLite database to list")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: abseir runs [-db file]\n\nList persisted calibration runs.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := results.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.ListRuns()
	if err != nil {
		return err
	}
	for _, r := range list {
		fmt.Printf("%s  %-22s seed=%-8d nParams=%-4d %s  %s\n",
			r.ID, r.Algorithm, r.Seed, r.NParams, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
