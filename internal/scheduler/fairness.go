package scheduler

import "math"

// fairness.go backstops the probabilistic min-step/max-walk mix with a
// hard anti-starvation guarantee (spec.md §8 S5: "no shard is deferred
// for more than 1/α × P consecutive interval picks with high
// probability"). The probabilistic mix alone only gives that bound in
// expectation; a ring of per-shard staleness counters, scanned by an
// advancing hand, turns it into a guarantee every run satisfies exactly —
// the same ring-plus-hand shape a CLOCK-Pro cache eviction sweep uses,
// repurposed here to find the most overdue shard instead of the coldest
// entry.
type ringNode struct {
	shard      int
	sincePick  int
	next, prev *ringNode
}

// Fairness tracks how many consecutive picks have passed since each
// shard was last made resident and force-selects the most overdue shard
// once it crosses the starvation bound.
type Fairness struct {
	nodes []*ringNode
	hand  *ringNode
	bound int
}

// NewFairness builds a fairness ring over numShards shards. bound is the
// starvation threshold ceil(1/alpha) * numShards from spec.md §8; alpha
// <= 0 disables the backstop entirely (Due never fires), since a
// zero-probability min-step policy has no statistical bound to enforce.
func NewFairness(numShards int, alpha float64) *Fairness {
	f := &Fairness{nodes: make([]*ringNode, numShards)}
	if alpha > 0 {
		f.bound = int(math.Ceil(1/alpha)) * numShards
	}
	if numShards == 0 {
		return f
	}
	for i := 0; i < numShards; i++ {
		f.nodes[i] = &ringNode{shard: i}
	}
	for i := 0; i < numShards; i++ {
		next := f.nodes[(i+1)%numShards]
		f.nodes[i].next = next
		next.prev = f.nodes[i]
	}
	f.hand = f.nodes[0]
	return f
}

// Record advances every shard's staleness counter by one pick, except
// picked, which resets to zero. Call once per completed interval.
func (f *Fairness) Record(picked int) {
	for _, n := range f.nodes {
		if n.shard == picked {
			n.sincePick = 0
		} else {
			n.sincePick++
		}
	}
}

// Due reports the first shard (scanning from the hand) whose staleness
// has reached the starvation bound and for which hasWalks reports true,
// advancing the hand past it so repeated calls within the same tick
// don't return the same shard twice. hasWalks may be nil to disable the
// filter. ok is false if the backstop is disabled or no qualifying shard
// is currently starved, in which case the caller should fall back to
// Scheduler.Pick.
//
// A shard can be starved yet empty of walks (every walk drained out of
// it between ticks); forcing a load/spill cycle on it would waste a full
// interval on nothing. hasWalks lets the caller skip those and keep
// scanning, rather than resetting progress toward the bound for a shard
// that isn't actually overdue for work.
func (f *Fairness) Due(hasWalks func(shard int) bool) (shard int, ok bool) {
	if f.bound <= 0 || f.hand == nil {
		return 0, false
	}
	start := f.hand
	n := start
	for {
		if n.sincePick >= f.bound && (hasWalks == nil || hasWalks(n.shard)) {
			f.hand = n.next
			return n.shard, true
		}
		n = n.next
		if n == start {
			return 0, false
		}
	}
}

// Staleness returns shard's current consecutive-picks-since-last-pick
// count.
func (f *Fairness) Staleness(shard int) int {
	if shard < 0 || shard >= len(f.nodes) {
		return 0
	}
	return f.nodes[shard].sincePick
}

// FairScheduler composes a Scheduler with a Fairness backstop: Pick
// consults the fairness ring first and only falls back to the
// probabilistic mix when no shard has crossed the starvation bound.
type FairScheduler struct {
	sched    *Scheduler
	fairness *Fairness
}

// NewFair wraps sched with a starvation backstop built for numShards
// shards at the same alpha sched was constructed with.
func NewFair(sched *Scheduler, numShards int) *FairScheduler {
	return &FairScheduler{sched: sched, fairness: NewFairness(numShards, sched.alpha)}
}

// Pick returns the next shard to make resident, preferring a starved,
// non-empty shard over the scheduler's own policy, and records the
// outcome in the fairness ring either way.
func (fs *FairScheduler) Pick() (shard int, ok bool) {
	if shard, ok = fs.fairness.Due(fs.hasWalks); ok {
		fs.sched.observer.Picked(shard, true)
		fs.fairness.Record(shard)
		fs.reportStaleness()
		return shard, true
	}
	shard, ok = fs.sched.Pick()
	if ok {
		fs.fairness.Record(shard)
		fs.reportStaleness()
	}
	return shard, ok
}

func (fs *FairScheduler) hasWalks(shard int) bool {
	return fs.sched.pool.WalkNum(shard) > 0
}

// reportStaleness pushes every shard's current staleness count through
// the scheduler's observer so a metrics sink can keep a live gauge
// instead of only learning about a shard once it crosses the starvation
// bound.
func (fs *FairScheduler) reportStaleness() {
	for _, n := range fs.fairness.nodes {
		fs.sched.observer.Staleness(n.shard, n.sincePick)
	}
}
