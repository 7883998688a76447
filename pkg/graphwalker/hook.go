package graphwalker

// hook.go exposes the application capability set from spec.md §4.7 as a
// single interface passed by reference into the engine, the "language
// neutral rewrite" of the original's inheritance-based hook (spec.md
// §REDESIGN FLAGS: "Polymorphic application hook"). No virtual-call hot
// path is needed: the hook fires once per visit and once per interval
// boundary, never per instruction.
//
// © 2025 graphwalker authors. MIT License.

import (
	"math/rand/v2"

	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/visitstore"
	"github.com/outcore/graphwalker/internal/walkpool"
)

// ApplicationHook is the capability set an estimator (PageRank,
// personalized PageRank, SimRank, ...) implements to drive the engine.
type ApplicationHook interface {
	// SeedWalks populates the initial walk population. Called once
	// before the engine loop starts.
	SeedWalks(pool *walkpool.Pool, n uint32, intervals []shardstore.Interval)

	// OnVisit records a visit to vertex during hop hop of the walk that
	// started at source, on worker thread threadID. Implementations
	// should use a per-thread accumulator (see BeforeInterval) rather
	// than a shared counter, since this fires from every worker thread
	// concurrently within an interval.
	OnVisit(source, vertex, hop uint32, threadID int)

	// BeforeInterval is called once, on the coordinator, as shard p
	// with range [lo, hi] becomes resident. Implementations allocate
	// per-thread accumulators sized hi-lo+1 here.
	BeforeInterval(p int, lo, hi uint32)

	// AfterInterval is called once, on the coordinator, after every
	// worker has finished stepping shard p's walks. Implementations
	// merge their per-thread accumulators into persistent storage here.
	AfterInterval(p int, lo, hi uint32)

	// ContinuationPolicy decides, for a vertex of out-degree deg, how
	// the walk should continue. The core treats this as a black box;
	// its signature matches walker.Policy exactly so a hook's method
	// value can be passed straight through to the kernel.
	ContinuationPolicy(deg uint32, rng *rand.Rand) (cont bool, idx uint32)
}

// VisitStoreBinder is implemented by hooks that persist visit counts into
// the engine-managed store (visitstore.Width and semi_external residency
// both come from the Engine's own configuration, spec.md §6) rather than
// opening and owning a store of their own. New calls BindVisitStore once,
// before SeedWalks, for any hook implementing it.
type VisitStoreBinder interface {
	BindVisitStore(store visitstore.Store)
}
