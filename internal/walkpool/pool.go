// Package walkpool is the in-memory-plus-on-disk container of parked
// walks, partitioned first by the shard each walk currently belongs to
// and then by the worker thread that parked it there (spec.md §3, §4.3).
//
// Per-thread buckets instead of one shared queue: contention on a shared
// walk queue dominates at the rates this engine runs at, so each thread
// owns its own write set pwalks[t][*] and cross-shard migrations are
// lock-free because a thread only ever writes to its own row. The
// [t][p] layout also makes the post-interval spill trivially parallel per
// p (spec.md §9).
//
// © 2025 graphwalker authors. MIT License.
package walkpool

import (
	"sync/atomic"

	"github.com/outcore/graphwalker/internal/walkcodec"
)

const noMinStep = ^uint32(0)

// Observer receives pool lifecycle notifications for logging/metrics,
// kept as a small interface so this package stays dependency-free with
// respect to the engine's logging/metrics stack (same pattern as
// shardstore.Observer).
type Observer interface {
	WalksSeeded(p int, n int)
	WalkMoved(pDst int)
	WalkTerminated(p int)
	Spilled(p int, count int)
	Freshened(p int, count int)
}

// NoopObserver discards every notification.
type NoopObserver struct{}

func (NoopObserver) WalksSeeded(int, int)   {}
func (NoopObserver) WalkMoved(int)          {}
func (NoopObserver) WalkTerminated(int)     {}
func (NoopObserver) Spilled(int, int)       {}
func (NoopObserver) Freshened(int, int)     {}

// Pool is the sharded, per-thread-bucketed container of parked walks.
type Pool struct {
	codec      *walkcodec.Codec
	numShards  int
	numThreads int
	basePath   string
	observer   Observer

	// buckets[t*numShards+p] is pwalks[t][p]: the append-only sequence of
	// walks currently assigned to shard p, placed there by thread t.
	// Written only by thread t (or the single coordinator goroutine
	// between intervals, during Seed/Freshen/ClearShard); read by the
	// coordinator and by thread t's own kernel loop. No locking needed —
	// see the package doc.
	buckets [][]uint64

	walknum []atomic.Int64
	minstep []atomic.Uint32
	dirty   []atomic.Bool
	seeded  atomic.Uint64
}

// New constructs an empty pool over numShards shards and numThreads
// worker threads, with spill files rooted at basePath (spec.md §6: the
// base path for all derived files).
func New(codec *walkcodec.Codec, numShards, numThreads int, basePath string, observer Observer) *Pool {
	if observer == nil {
		observer = NoopObserver{}
	}
	p := &Pool{
		codec:      codec,
		numShards:  numShards,
		numThreads: numThreads,
		basePath:   basePath,
		observer:   observer,
		buckets:    make([][]uint64, numThreads*numShards),
		walknum:    make([]atomic.Int64, numShards),
		minstep:    make([]atomic.Uint32, numShards),
		dirty:      make([]atomic.Bool, numShards),
	}
	for i := range p.minstep {
		p.minstep[i].Store(noMinStep)
	}
	return p
}

func (p *Pool) idx(t, shard int) int { return t*p.numShards + shard }

// Bucket returns the walks currently parked for shard p by thread t. The
// returned slice must be treated as read-only by callers other than
// thread t itself; it is invalidated by the next ClearShard(p) or Spill(p).
func (p *Pool) Bucket(t, shard int) []uint64 {
	return p.buckets[p.idx(t, shard)]
}

// NumThreads returns the configured worker thread count.
func (p *Pool) NumThreads() int { return p.numThreads }

// NumShards returns the configured shard count.
func (p *Pool) NumShards() int { return p.numShards }

// Seed appends a freshly created walk to thread t's bucket for shard p
// and accounts for it in walknum. Called by the application hook's
// SeedWalks during engine start (spec.md §4.7).
func (p *Pool) Seed(shard, t int, w uint64) {
	idx := p.idx(t, shard)
	p.buckets[idx] = append(p.buckets[idx], w)
	p.walknum[shard].Add(1)
	p.seeded.Add(1)
	_, _, hop := p.codec.Decode(w)
	p.lowerMinStep(shard, hop)
	p.observer.WalksSeeded(shard, 1)
}

// Move appends a walk to shard pDst's bucket for thread t, rewriting its
// offset field to newOffset first (spec.md §4.3: "append walk (with
// offset rewritten to new_offset)"). It is wait-free: thread t only ever
// touches its own row of buckets, so no lock is needed even though many
// threads call Move concurrently for different (t, pDst) pairs.
func (p *Pool) Move(w uint64, pDst, t int, newOffset uint32) error {
	moved, err := p.codec.WithOffset(w, newOffset)
	if err != nil {
		return err
	}
	idx := p.idx(t, pDst)
	p.buckets[idx] = append(p.buckets[idx], moved)
	p.walknum[pDst].Add(1)
	p.dirty[pDst].Store(true)
	_, _, hop := p.codec.Decode(moved)
	p.lowerMinStep(pDst, hop)
	p.observer.WalkMoved(pDst)
	return nil
}

// Terminate accounts for a walk that will not be re-parked (it reached
// hop==L, hit a zero-degree vertex, or the continuation policy stopped
// it). walknum is decremented so TotalLive reflects only live walks
// (spec.md §3 invariant 4: "sum_p walknum[p] is non-increasing").
func (p *Pool) Terminate(shard int) {
	p.walknum[shard].Add(-1)
	p.observer.WalkTerminated(shard)
}

func (p *Pool) lowerMinStep(shard int, hop uint32) {
	for {
		old := p.minstep[shard].Load()
		if old != noMinStep && old <= hop {
			return
		}
		if p.minstep[shard].CompareAndSwap(old, hop) {
			return
		}
	}
}

// ClearShard drops every thread's in-memory bucket for shard p. Called by
// the engine right after an interval finishes draining shard p (spec.md
// §4.6: "clear pwalks[*][p] // the shard just drained").
func (p *Pool) ClearShard(shard int) {
	for t := 0; t < p.numThreads; t++ {
		p.buckets[p.idx(t, shard)] = nil
	}
	// Every walk that was resident in shard's buckets has now either been
	// moved (carrying its hop into the destination shard's minstep via
	// lowerMinStep) or terminated; nothing remains to make minstep[shard]
	// meaningful until new walks are moved back in. Mirrors the original
	// engine's after_exec_interval resetting minstep to "infinity".
	p.minstep[shard].Store(noMinStep)
}

// MarkDirty forces shard p's dirty flag on regardless of whether a Move
// has touched it, so a subsequent Spill writes its buckets even if they
// only ever received Seed walks. Used by the engine's cooperative-stop
// path, which must persist every live walk to disk even though freshly
// seeded walks that never crossed a shard boundary are not otherwise
// considered dirty (spec.md §5: "On stop, the pool is spilled to disk in
// its entirety").
func (p *Pool) MarkDirty(shard int) {
	p.dirty[shard].Store(true)
}

// TotalLive returns the sum of walknum[p] across all shards. Zero signals
// engine termination (spec.md §4.3).
func (p *Pool) TotalLive() uint64 {
	var total uint64
	for i := range p.walknum {
		v := p.walknum[i].Load()
		if v > 0 {
			total += uint64(v)
		}
	}
	return total
}

// WalkNum returns the current walknum[p] count.
func (p *Pool) WalkNum(shard int) int64 { return p.walknum[shard].Load() }

// SeededTotal returns the lifetime count of walks ever seeded into the
// pool, independent of how many have since terminated. The engine's
// tail-tolerant completion check divides against this to turn a fraction
// into an absolute threshold of outstanding walks.
func (p *Pool) SeededTotal() uint64 { return p.seeded.Load() }

// MinStepShard returns the argmin of minstep[p] over shards that still
// have walks, tie-breaking by ascending shard index. ok is false if no
// shard currently has live walks.
func (p *Pool) MinStepShard() (shard int, ok bool) {
	best := noMinStep
	bestShard := -1
	for i := range p.minstep {
		if p.walknum[i].Load() <= 0 {
			continue
		}
		v := p.minstep[i].Load()
		if v < best {
			best = v
			bestShard = i
		}
	}
	if bestShard < 0 {
		return 0, false
	}
	return bestShard, true
}

// MaxWalkShard returns the argmax of walknum[p] over shards that still
// have walks, tie-breaking by ascending shard index.
func (p *Pool) MaxWalkShard() (shard int, ok bool) {
	var best int64 = -1
	bestShard := -1
	for i := range p.walknum {
		v := p.walknum[i].Load()
		if v > 0 && v > best {
			best = v
			bestShard = i
		}
	}
	if bestShard < 0 {
		return 0, false
	}
	return bestShard, true
}
