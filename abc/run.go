package abc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/cache"
	"github.com/josh-tomiyama/ABSEIR/model"
	"github.com/josh-tomiyama/ABSEIR/monitoring"
	"github.com/josh-tomiyama/ABSEIR/pool"
	"github.com/josh-tomiyama/ABSEIR/results"
	"github.com/josh-tomiyama/ABSEIR/sampling"
)

var (
	// ErrNotInitialized is returned when a batch is requested before any
	// particle matrix has been set or drawn.
	ErrNotInitialized = errors.New("abc: no particle matrix set")

	// ErrAlgorithmUnavailable is returned by Sample for algorithms whose
	// acceptance and resampling rules are not wired into this engine.
	// Selecting them in the run-control block is valid configuration;
	// running them is not yet supported.
	ErrAlgorithmUnavailable = errors.New("abc: acceptance rule for this algorithm is not available")
)

// SetParameters replaces the current particle matrix. A matrix whose
// column count disagrees with the component-implied layout is rejected and
// leaves both the stored matrix and the initialized flag untouched.
func (m *Model) SetParameters(params *mat.Dense) error {
	if params == nil {
		return model.ConfigErrorf("spatialSEIRModel", "particle matrix is required")
	}
	_, cols := params.Dims()
	if cols != m.layout.NParams() {
		return model.ConfigErrorf("spatialSEIRModel",
			"number of supplied parameters (%d) does not match model specification (%d)",
			cols, m.layout.NParams())
	}
	m.params = mat.DenseCopyOf(params)
	m.initialized = true
	return nil
}

// Parameters returns a copy of the current particle matrix, or nil when
// uninitialized.
func (m *Model) Parameters() *mat.Dense {
	if !m.initialized {
		return nil
	}
	return mat.DenseCopyOf(m.params)
}

// RunSimulation dispatches one batch of particles to the worker pool and
// blocks until every row is scored. The dispatch counter is incremented
// first, so repeated generations draw disjoint random streams. Passing a
// nil matrix scores the stored particle matrix.
func (m *Model) RunSimulation(ctx context.Context, params *mat.Dense) (*pool.Batch, error) {
	if params == nil {
		if !m.initialized {
			return nil, ErrNotInitialized
		}
		params = m.params
	}
	m.calls++
	if m.Cache == nil {
		return m.pool.RunBatch(ctx, params, m.calls)
	}
	return m.runCached(ctx, params, m.calls)
}

// runCached serves memoized rows from the cache and dispatches only the
// misses. Cached rows keep the replicate statistics of the batch that
// first scored them.
func (m *Model) runCached(ctx context.Context, params *mat.Dense, call int) (*pool.Batch, error) {
	n, cols := params.Dims()
	batch := &pool.Batch{
		Stats:   mat.NewDense(n, m.pool.M(), nil),
		Index:   make([]int, n),
		Invalid: make([]bool, n),
	}

	var missRows []int
	for i := 0; i < n; i++ {
		batch.Index[i] = i
		if entry, ok := m.Cache.Get(params.RawRowView(i)); ok {
			batch.Stats.SetRow(i, entry.Stats)
			batch.Invalid[i] = entry.Invalid
		} else {
			missRows = append(missRows, i)
		}
	}
	if len(missRows) == 0 {
		return batch, nil
	}

	miss := mat.NewDense(len(missRows), cols, nil)
	for k, i := range missRows {
		miss.SetRow(k, params.RawRowView(i))
	}
	scored, err := m.pool.RunBatch(ctx, miss, call)
	if err != nil {
		return nil, err
	}
	for k, i := range missRows {
		row := rowOf(scored.Stats, k)
		batch.Stats.SetRow(i, row)
		batch.Invalid[i] = scored.Invalid[k]
		m.Cache.Put(params.RawRowView(i), cache.Entry{Stats: row, Invalid: scored.Invalid[k]})
	}
	return batch, nil
}

// Result summarizes an accepted particle population.
type Result struct {
	// Particles holds the accepted parameter vectors, best first.
	Particles *mat.Dense `json:"-"`
	// Distances holds each accepted particle's mean replicate distance.
	Distances []float64 `json:"distances"`
	// Epsilon is the largest accepted distance.
	Epsilon float64 `json:"epsilon"`
	// Batches is the number of batches dispatched.
	Batches int `json:"batches"`
	// Evaluated counts all scored particles, accepted or not.
	Evaluated int `json:"evaluated"`
	// Degenerate counts rows invalidated by broken trajectories.
	Degenerate int `json:"degenerate"`
}

// Sample runs the calibration loop for the configured algorithm: draw
// particles from the prior, score each against the observed data through
// the worker pool, and keep the best. It stops early once nKeep particles
// score at or below the target epsilon, and otherwise runs the full batch
// budget. The accepted population becomes the model's particle matrix.
//
// Only BasicABC is runnable; the sequential algorithms validate in the
// control block but their reweighting rules are not part of this engine
// (see ErrAlgorithmUnavailable).
func (m *Model) Sample(ctx context.Context, nKeep int) (*Result, error) {
	if m.control.Algorithm != sampling.BasicABC {
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmUnavailable, m.control.Algorithm)
	}
	if nKeep <= 0 {
		nKeep = int(math.Ceil(m.control.AcceptFraction * float64(m.control.BatchSize*m.control.MaxBatches)))
		if nKeep < 1 {
			nKeep = 1
		}
	}

	h, finish := m.beginRun()
	defer finish()

	var (
		kept       []scoredParticle
		degenerate int
		evaluated  int
		batches    int
	)
	for b := 0; b < m.control.MaxBatches; b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		params := m.GenerateParamsPrior(m.control.BatchSize)
		batch, err := m.RunSimulation(ctx, params)
		if err != nil {
			return nil, err
		}
		batches++

		accepted := 0
		invalid := 0
		for i := 0; i < m.control.BatchSize; i++ {
			evaluated++
			if batch.Invalid[i] {
				invalid++
				degenerate++
				continue
			}
			d := meanDistance(batch.Stats, i)
			kept = append(kept, scoredParticle{params: rowOf(params, i), distance: d})
			if d <= m.control.TargetEps {
				accepted++
			}
		}
		kept = truncate(kept, nKeep)

		m.recordBatch(h, b, kept, accepted, invalid, time.Since(start))

		if len(kept) >= nKeep && kept[len(kept)-1].distance <= m.control.TargetEps {
			break
		}
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("abc: no valid particles scored in %d batches", batches)
	}
	if len(kept) > nKeep {
		kept = kept[:nKeep]
	}

	out := mat.NewDense(len(kept), m.layout.NParams(), nil)
	dists := make([]float64, len(kept))
	for i, sp := range kept {
		out.SetRow(i, sp.params)
		dists[i] = sp.distance
	}
	if err := m.SetParameters(out); err != nil {
		return nil, err
	}

	res := &Result{
		Particles:  out,
		Distances:  dists,
		Epsilon:    dists[len(dists)-1],
		Batches:    batches,
		Evaluated:  evaluated,
		Degenerate: degenerate,
	}
	m.saveResult(h, res)
	return res, nil
}

type scoredParticle struct {
	params   []float64
	distance float64
}

// truncate sorts by distance ascending and keeps at most n entries.
func truncate(sp []scoredParticle, n int) []scoredParticle {
	sort.SliceStable(sp, func(i, j int) bool { return sp[i].distance < sp[j].distance })
	if len(sp) > n {
		sp = sp[:n]
	}
	return sp
}

// meanDistance averages the replicate distances of one result row.
func meanDistance(stats *mat.Dense, row int) float64 {
	_, m := stats.Dims()
	var sum float64
	for j := 0; j < m; j++ {
		sum += stats.At(row, j)
	}
	return sum / float64(m)
}

func rowOf(d *mat.Dense, i int) []float64 {
	return append([]float64(nil), d.RawRowView(i)...)
}

// runHandle tracks an optional persistent run record across the
// calibration loop.
type runHandle struct {
	run  *results.Run
	done bool
}

// beginRun opens an optional persistent run record. The returned finish
// marks the run failed unless saveResult completed it first.
func (m *Model) beginRun() (*runHandle, func()) {
	h := &runHandle{}
	if m.Store == nil {
		return h, func() {}
	}
	run := results.NewRun(m.control.RandomSeed, m.control.Algorithm.String(), m.layout.NParams())
	if err := m.Store.CreateRun(run); err != nil {
		// Persistence is best-effort; calibration proceeds without it.
		return h, func() {}
	}
	h.run = &run
	return h, func() {
		if !h.done {
			h.done = true
			_ = m.Store.FinishRun(run.ID, results.StatusFailed, "calibration did not complete")
		}
	}
}

func (m *Model) recordBatch(h *runHandle, b int, kept []scoredParticle, accepted, invalid int, dur time.Duration) {
	var best, eps float64 = math.NaN(), math.NaN()
	if len(kept) > 0 {
		best = kept[0].distance
		eps = kept[len(kept)-1].distance
	}
	if m.Monitor != nil {
		m.Monitor.RecordBatch(monitoring.BatchStats{
			Batch:        b,
			BestDistance: best,
			Epsilon:      eps,
			Accepted:     accepted,
			Invalid:      invalid,
			Duration:     dur,
		})
	}
	if m.Store != nil && h.run != nil {
		_ = m.Store.RecordBatch(h.run.ID, results.BatchRecord{
			Batch:      b,
			Epsilon:    eps,
			Accepted:   accepted,
			Invalid:    invalid,
			DurationMS: dur.Milliseconds(),
		})
	}
}

func (m *Model) saveResult(h *runHandle, res *Result) {
	if m.Store == nil || h.run == nil {
		return
	}
	h.done = true
	_ = m.Store.SaveParticles(h.run.ID, res.Particles, res.Distances)
	_ = m.Store.FinishRun(h.run.ID, results.StatusComplete, "")
}
