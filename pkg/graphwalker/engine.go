package graphwalker

// engine.go implements the engine loop from spec.md §4.6: seed walks,
// then repeatedly ask the scheduler for the next resident shard, load
// it, freshen its spilled walks, step every parked walk in parallel
// across worker threads, drain it, and spill every other dirty shard,
// until no walk remains live.
//
// © 2025 graphwalker authors. MIT License.

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/outcore/graphwalker/internal/intervals"
	"github.com/outcore/graphwalker/internal/scheduler"
	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/visitstore"
	"github.com/outcore/graphwalker/internal/walker"
	"github.com/outcore/graphwalker/internal/walkpool"
)

// Engine wires together the shard store, walk pool, walker kernel and
// scheduler described throughout spec.md §4, driven by one
// ApplicationHook.
type Engine struct {
	cfg *config

	hook      ApplicationHook
	intervals []shardstore.Interval
	store     *shardstore.Store
	pool      *walkpool.Pool
	kernel    *walker.Kernel
	sched     *scheduler.FairScheduler
	obs       *engineObserver
	visits    visitstore.Store

	threadRNGs []*rand.Rand

	stop chan struct{}
}

// New constructs an Engine. The intervals file at cfg.file+".intervals"
// must already exist (spec.md §6); use cmd/graphwalker-shard to produce
// one alongside the shard files for a fresh graph.
func New(hook ApplicationHook, opts ...Option) (*Engine, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if hook == nil {
		return nil, newErr(ConfigInvalid, nil, "an ApplicationHook is required")
	}

	ivs, err := intervals.Load(cfg.file + ".intervals")
	if err != nil {
		return nil, wrapIO(IntervalCorrupt, err, "loading intervals file")
	}
	if got := intervals.N(ivs); got != cfg.nvertices {
		return nil, newErr(ConfigInvalid, nil, "intervals file covers %d vertices, nvertices configured as %d", got, cfg.nvertices)
	}

	metrics := newMetricsSink(cfg.registry)
	obs := newEngineObserver(cfg.logger, metrics)

	// The visit-count store is owned by the engine so semi_external and
	// counter_width (spec.md §6) actually govern where and how counters
	// are persisted, rather than being config knobs a hook could silently
	// ignore by opening its own store.
	visits, err := visitstore.Open(cfg.file+".visits", cfg.nvertices, cfg.counterWidth, cfg.semiExternal)
	if err != nil {
		return nil, wrapIO(VisitStoreIoError, err, "opening visit-count store")
	}
	if binder, ok := hook.(VisitStoreBinder); ok {
		binder.BindVisitStore(visits)
	}

	store := shardstore.New(cfg.file, ivs,
		shardstore.WithObserver(obs),
		shardstore.WithRetries(cfg.shardRetries, cfg.shardBackoff))
	pool := walkpool.New(cfg.codec, len(ivs), cfg.execThreads, cfg.file, obs)
	kernel := walker.New(cfg.codec, cfg.maxHops, store, len(ivs))
	sched := scheduler.NewFair(scheduler.New(pool, cfg.minStepProb, cfg.rng(), obs), len(ivs))

	threadRNGs := make([]*rand.Rand, cfg.execThreads)
	for t := range threadRNGs {
		// Each thread's RNG is seeded deterministically from the
		// configured base seed and its own index; since a walk's
		// owning thread is fixed by construction (pwalks[t][*] is only
		// ever written by thread t), this reproduces the same
		// trajectory for the same seed and the same thread count. A
		// different thread count gives each walk a different stream, so
		// visit counts are not identical across thread counts.
		threadRNGs[t] = rand.New(rand.NewPCG(cfg.rngSeed1, cfg.rngSeed2+uint64(t)+1))
	}

	return &Engine{
		cfg:        cfg,
		hook:       hook,
		intervals:  ivs,
		store:      store,
		pool:       pool,
		kernel:     kernel,
		sched:      sched,
		obs:        obs,
		visits:     visits,
		threadRNGs: threadRNGs,
		stop:       make(chan struct{}),
	}, nil
}

// VisitStore returns the engine-managed visit-count store, opened under
// New according to the WithCounterWidth and WithSemiExternal options.
// Application hooks that implement VisitStoreBinder never need to call
// this directly; it exists for callers that read the result after Run
// returns (e.g. apps/pagerank.Scores).
func (e *Engine) VisitStore() visitstore.Store { return e.visits }

// Close releases the engine's visit-count store. Call once after Run
// returns and any final reads of VisitStore have completed.
func (e *Engine) Close() error {
	return e.visits.Close()
}

// Stop requests cooperative shutdown: the engine finishes the interval
// in flight, spills the entire pool to disk, and returns from Run
// without losing any walk state (spec.md §5 "Cancellation & timeouts").
func (e *Engine) Stop() {
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

func (e *Engine) stopRequested() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// Run drives the engine loop to completion: seeding walks, then
// repeatedly making the scheduler's chosen shard resident and stepping
// every parked walk until no walk remains live or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	e.hook.SeedWalks(e.pool, e.cfg.nvertices, e.intervals)
	e.obs.log.Info("walks seeded", zap.Uint64("total_live", e.pool.TotalLive()))

	for e.walksOutstanding() {
		if e.stopRequested() || ctx.Err() != nil {
			return e.spillAll()
		}

		p, ok := e.sched.Pick()
		if !ok {
			break
		}
		e.obs.metrics.incInterval()

		iv := e.store.Interval(p)
		view, err := e.store.Load(p)
		if err != nil {
			return wrapIO(ShardIoError, err, "loading shard for interval")
		}

		if err := e.pool.Freshen(p); err != nil {
			e.store.Release(view)
			return wrapIO(SpillIoError, err, "freshening shard before interval")
		}

		e.hook.BeforeInterval(p, iv.Lo, iv.Hi)

		if err := e.stepShard(ctx, p, view); err != nil {
			e.store.Release(view)
			return err
		}

		e.pool.ClearShard(p)
		e.hook.AfterInterval(p, iv.Lo, iv.Hi)

		for q := 0; q < e.store.NumShards(); q++ {
			if q == p {
				continue
			}
			if err := e.pool.Spill(q); err != nil {
				e.store.Release(view)
				return wrapIO(SpillIoError, err, "spilling shard after interval")
			}
		}

		e.store.Release(view)
		e.obs.metrics.setWalksLive(e.pool.TotalLive())
	}

	return nil
}

// walksOutstanding reports whether the engine loop should keep running.
// With the default tail of 0 this is exactly TotalLive() > 0. A nonzero
// tail (spec.md §6 "tail") tolerates ending the run once no more than
// that fraction of every walk ever seeded remains live, so a handful of
// pathologically long walks can't hold up the whole batch.
func (e *Engine) walksOutstanding() bool {
	live := e.pool.TotalLive()
	if live == 0 {
		return false
	}
	if e.cfg.tail <= 0 {
		return true
	}
	threshold := uint64(float64(e.pool.SeededTotal()) * e.cfg.tail)
	return live > threshold
}

// stepShard advances every walk currently parked for shard p, one
// goroutine per worker thread, each owning its own bucket row so no
// synchronization is needed beyond the errgroup barrier at the end
// (spec.md §4.6 "in parallel over threads t").
func (e *Engine) stepShard(ctx context.Context, p int, view *shardstore.ShardView) error {
	g, _ := errgroup.WithContext(ctx)
	for t := 0; t < e.cfg.execThreads; t++ {
		t := t
		g.Go(func() error {
			rng := e.threadRNGs[t]
			for _, w := range e.pool.Bucket(t, p) {
				if err := e.kernel.Step(w, view, t, e.pool, e.hook, e.hook.ContinuationPolicy, rng); err != nil {
					return wrapIO(CodecOverflow, err, "stepping walk")
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// spillAll is the full-spill-on-stop path: every shard's in-memory
// buckets are written to disk regardless of dirty state, guaranteeing no
// walk state is lost on a cooperative stop.
func (e *Engine) spillAll() error {
	for p := 0; p < e.store.NumShards(); p++ {
		e.pool.MarkDirty(p)
		if err := e.pool.Spill(p); err != nil {
			return wrapIO(SpillIoError, err, "spilling shard on stop")
		}
	}
	return nil
}
