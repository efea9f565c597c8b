// Package pool executes one stochastic simulation per particle across a
// bounded set of workers. A pool is built once, bound to the shared
// read-only model arrays, and reused for every batch of a calibration;
// only each particle's parameter vector and each worker's private random
// substream are mutable per job.
package pool

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/josh-tomiyama/ABSEIR/rng"
	"github.com/josh-tomiyama/ABSEIR/sim"
)

// Batch collects the results of one dispatch: an N x M matrix of replicate
// summary statistics, an index array mapping result rows back to particle
// rows (identity by construction, kept explicit so downstream logic never
// depends on completion order), and per-row validity.
type Batch struct {
	// Stats holds M replicate distances per particle row.
	Stats *mat.Dense
	// Index maps result row -> source particle row.
	Index []int
	// Invalid marks rows where any replicate produced a degenerate
	// trajectory. The batch as a whole still completes.
	Invalid []bool
	// Trajectories holds per-particle, per-replicate results when the
	// shared config retains them; nil otherwise.
	Trajectories [][]*sim.Result
}

// Pool is a reusable batch executor.
type Pool struct {
	cfg      *sim.Config
	workers  int
	m        int
	baseSeed uint64
}

// New builds a pool bound to the shared simulation inputs. workers is
// clamped to at least one; running single-threaded is a supported
// degradation and only warns.
func New(cfg *sim.Config, workers, m int, baseSeed uint64) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pool: shared simulation config is required")
	}
	if m <= 0 {
		return nil, fmt.Errorf("pool: replicate count must be positive, got %d", m)
	}
	if workers <= 1 {
		if workers < 1 {
			workers = 1
		}
		log.Printf("pool: running single-threaded (%d worker)", workers)
	}
	return &Pool{cfg: cfg, workers: workers, m: m, baseSeed: baseSeed}, nil
}

// M returns the summary-statistic width per particle.
func (p *Pool) M() int { return p.m }

// RunBatch runs one simulation batch: one job per particle row, fanned out
// across the pool's workers, with a full-batch barrier before returning.
// call must be the orchestrator's current dispatch counter; together with
// the base seed and particle index it fixes every replicate's random
// stream, so identical inputs reproduce bit-identical statistics.
//
// Jobs already started are never cancelled mid-simulation; ctx is only
// consulted between job pickups, and a cancelled batch returns the
// context error with no partial results.
func (p *Pool) RunBatch(ctx context.Context, params *mat.Dense, call int) (*Batch, error) {
	if params == nil {
		return nil, fmt.Errorf("pool: particle matrix is required")
	}
	n, cols := params.Dims()
	if cols != p.cfg.Layout.NParams() {
		return nil, fmt.Errorf("pool: particle matrix has %d columns, layout requires %d",
			cols, p.cfg.Layout.NParams())
	}

	batch := &Batch{
		Stats:   mat.NewDense(n, p.m, nil),
		Index:   make([]int, n),
		Invalid: make([]bool, n),
	}
	if p.cfg.KeepTrajectory {
		batch.Trajectories = make([][]*sim.Result, n)
	}

	jobs := make(chan int)
	errOnce := make(chan error, 1)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := p.runParticle(batch, params.RawRowView(idx), idx, call); err != nil {
					select {
					case errOnce <- err:
					default:
					}
					return
				}
			}
		}()
	}

dispatch:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errOnce:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return batch, nil
}

// runParticle scores one particle: M replicate simulations on disjoint
// substreams, results written at the particle's dispatch index.
func (p *Pool) runParticle(batch *Batch, row []float64, idx, call int) error {
	batch.Index[idx] = idx
	var traj []*sim.Result
	if batch.Trajectories != nil {
		traj = make([]*sim.Result, p.m)
	}
	for rep := 0; rep < p.m; rep++ {
		rnd := rng.Substream(p.baseSeed, idx*p.m+rep, call)
		res, err := sim.Run(p.cfg, row, rnd)
		if err != nil {
			return fmt.Errorf("particle %d replicate %d: %w", idx, rep, err)
		}
		batch.Stats.Set(idx, rep, res.Distance)
		if res.Degenerate {
			batch.Invalid[idx] = true
		}
		if traj != nil {
			traj[rep] = res
		}
	}
	if traj != nil {
		batch.Trajectories[idx] = traj
	}
	return nil
}
