package walker

import (
	"math/rand/v2"
	"testing"

	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/walkcodec"
	"github.com/outcore/graphwalker/internal/walkpool"
)

// fakeLocator is a two-shard [0,4]/[5,9] world for kernel tests.
type fakeLocator struct {
	ivs []shardstore.Interval
}

func (f fakeLocator) ShardOf(v uint32) int {
	for i, iv := range f.ivs {
		if v >= iv.Lo && v <= iv.Hi {
			return i
		}
	}
	return -1
}

func (f fakeLocator) Interval(p int) shardstore.Interval { return f.ivs[p] }

// chainView is a ShardView-compatible fixture built directly via the CSR
// arrays shardstore.ShardView exposes as public fields, avoiding any need
// to read a real shard file from disk.
func chainView(p int, lo, hi uint32, neighbors map[uint32][]uint32) *shardstore.ShardView {
	n := int(hi-lo) + 1
	beg := make([]uint64, n+1)
	var csr []uint32
	for i := 0; i < n; i++ {
		beg[i] = uint64(len(csr))
		csr = append(csr, neighbors[lo+uint32(i)]...)
	}
	beg[n] = uint64(len(csr))
	return &shardstore.ShardView{P: p, Lo: lo, Hi: hi, BegPos: beg, Csr: csr}
}

type recordHook struct {
	visits []uint32
}

func (h *recordHook) OnVisit(source, vertex, hop uint32, threadID int) {
	h.visits = append(h.visits, vertex)
}

func alwaysFirst(deg uint32, rng *rand.Rand) (bool, uint32) { return true, 0 }
func neverContinue(deg uint32, rng *rand.Rand) (bool, uint32) { return false, 0 }

func TestStepTerminatesAtZeroDegree(t *testing.T) {
	loc := fakeLocator{ivs: []shardstore.Interval{{Lo: 0, Hi: 4}, {Lo: 5, Hi: 9}}}
	view := chainView(0, 0, 4, map[uint32][]uint32{0: {1}, 1: {}})
	k := New(walkcodec.Default(), 10, loc, 2)
	pool := walkpool.New(walkcodec.Default(), 2, 1, t.TempDir()+"/g", walkpool.NoopObserver{})

	c := walkcodec.Default()
	w, _ := c.Encode(0, 0, 0)
	hook := &recordHook{}

	if err := k.Step(w, view, 0, pool, hook, alwaysFirst, rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatal(err)
	}
	if len(hook.visits) != 2 || hook.visits[0] != 0 || hook.visits[1] != 1 {
		t.Fatalf("visits = %v, want [0 1]", hook.visits)
	}
	if pool.TotalLive() != 0 {
		t.Fatalf("TotalLive() = %d, want 0 (walk terminated at zero-degree vertex)", pool.TotalLive())
	}
}

func TestStepStopsWhenPolicyRefuses(t *testing.T) {
	loc := fakeLocator{ivs: []shardstore.Interval{{Lo: 0, Hi: 4}}}
	view := chainView(0, 0, 4, map[uint32][]uint32{0: {1, 2, 3}})
	k := New(walkcodec.Default(), 10, loc, 1)
	pool := walkpool.New(walkcodec.Default(), 1, 1, t.TempDir()+"/g", walkpool.NoopObserver{})

	c := walkcodec.Default()
	w, _ := c.Encode(7, 0, 0)
	hook := &recordHook{}

	if err := k.Step(w, view, 0, pool, hook, neverContinue, rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatal(err)
	}
	if len(hook.visits) != 1 || hook.visits[0] != 0 {
		t.Fatalf("visits = %v, want [0]", hook.visits)
	}
}

func TestStepStopsAtMaxHops(t *testing.T) {
	loc := fakeLocator{ivs: []shardstore.Interval{{Lo: 0, Hi: 4}}}
	view := chainView(0, 0, 4, map[uint32][]uint32{0: {1}, 1: {2}, 2: {3}, 3: {4}, 4: {0}})
	k := New(walkcodec.Default(), 2, loc, 1) // L=2, so only hop 0 and hop 1 are walked
	pool := walkpool.New(walkcodec.Default(), 1, 1, t.TempDir()+"/g", walkpool.NoopObserver{})

	c := walkcodec.Default()
	w, _ := c.Encode(0, 0, 0)
	hook := &recordHook{}

	if err := k.Step(w, view, 0, pool, hook, alwaysFirst, rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatal(err)
	}
	if len(hook.visits) != 2 {
		t.Fatalf("visits = %v, want len 2 (hop budget exhausted)", hook.visits)
	}
	if pool.TotalLive() != 0 {
		t.Fatalf("walk should have terminated at the hop budget, TotalLive() = %d", pool.TotalLive())
	}
}

func TestStepMovesToDestinationShard(t *testing.T) {
	loc := fakeLocator{ivs: []shardstore.Interval{{Lo: 0, Hi: 4}, {Lo: 5, Hi: 9}}}
	view := chainView(0, 0, 4, map[uint32][]uint32{4: {5}})
	k := New(walkcodec.Default(), 10, loc, 2)
	pool := walkpool.New(walkcodec.Default(), 2, 1, t.TempDir()+"/g", walkpool.NoopObserver{})

	c := walkcodec.Default()
	w, _ := c.Encode(9, 4, 3) // already at vertex 4 (offset 4 within shard 0), hop 3
	hook := &recordHook{}

	if err := k.Step(w, view, 0, pool, hook, alwaysFirst, rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatal(err)
	}
	if len(hook.visits) != 1 || hook.visits[0] != 4 {
		t.Fatalf("visits = %v, want [4]", hook.visits)
	}
	if got := pool.WalkNum(1); got != 1 {
		t.Fatalf("WalkNum(1) = %d, want 1 (walk moved into shard 1)", got)
	}
	bucket := pool.Bucket(0, 1)
	if len(bucket) != 1 {
		t.Fatalf("bucket(0,1) len = %d, want 1", len(bucket))
	}
	source, offset, hop := c.Decode(bucket[0])
	if source != 9 || offset != 0 || hop != 4 {
		t.Fatalf("moved walk = (source=%d offset=%d hop=%d), want (9,0,4)", source, offset, hop)
	}
}

func TestStepTerminatesWhenDestinationOutOfRange(t *testing.T) {
	loc := fakeLocator{ivs: []shardstore.Interval{{Lo: 0, Hi: 4}}}
	// Vertex 4's only neighbor, 5, lies outside every known interval.
	view := &shardstore.ShardView{
		P: 0, Lo: 0, Hi: 4,
		BegPos: []uint64{0, 0, 0, 0, 0, 1},
		Csr:    []uint32{5},
	}
	k := New(walkcodec.Default(), 10, loc, 1)
	pool := walkpool.New(walkcodec.Default(), 1, 1, t.TempDir()+"/g", walkpool.NoopObserver{})

	c := walkcodec.Default()
	w, _ := c.Encode(0, 4, 0)
	hook := &recordHook{}

	if err := k.Step(w, view, 0, pool, hook, alwaysFirst, rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatal(err)
	}
	if pool.TotalLive() != 0 {
		t.Fatalf("TotalLive() = %d, want 0 (destination vertex has no owning shard)", pool.TotalLive())
	}
}
