package walkpool

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/outcore/graphwalker/internal/walkcodec"
)

func newTestPool(t *testing.T) (*Pool, string) {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "graph")
	return New(walkcodec.Default(), 4, 2, base, NoopObserver{}), base
}

func TestSeedAndTotalLive(t *testing.T) {
	p, _ := newTestPool(t)
	c := walkcodec.Default()
	for i := 0; i < 10; i++ {
		w, _ := c.Encode(uint32(i), 0, 0)
		p.Seed(0, i%2, w)
	}
	if got := p.TotalLive(); got != 10 {
		t.Fatalf("TotalLive() = %d, want 10", got)
	}
	if shard, ok := p.MaxWalkShard(); !ok || shard != 0 {
		t.Fatalf("MaxWalkShard() = (%d,%v), want (0,true)", shard, ok)
	}
}

func TestMoveIsWaitFreePerThread(t *testing.T) {
	p, _ := newTestPool(t)
	c := walkcodec.Default()
	w, _ := c.Encode(1, 0, 0)
	p.Seed(0, 0, w)

	if err := p.Move(w, 1, 0, 5); err != nil {
		t.Fatal(err)
	}
	if got := p.WalkNum(1); got != 1 {
		t.Fatalf("WalkNum(1) = %d, want 1", got)
	}
	bucket := p.Bucket(0, 1)
	if len(bucket) != 1 {
		t.Fatalf("bucket len = %d, want 1", len(bucket))
	}
	_, offset, _ := c.Decode(bucket[0])
	if offset != 5 {
		t.Fatalf("offset = %d, want 5", offset)
	}
}

func TestSpillFreshenRoundTrip(t *testing.T) {
	p, _ := newTestPool(t)
	c := walkcodec.Default()

	var want []uint64
	for i := 0; i < 20; i++ {
		w, _ := c.Encode(uint32(i), uint32(i), uint32(i%5))
		p.Seed(2, i%p.NumThreads(), w)
		want = append(want, w)
	}

	// Seeded walks do not make a shard dirty, and Spill skips clean shards.
	p.MarkDirty(2)
	if err := p.Spill(2); err != nil {
		t.Fatal(err)
	}
	for t2 := 0; t2 < p.NumThreads(); t2++ {
		if len(p.Bucket(t2, 2)) != 0 {
			t.Fatalf("bucket (%d,2) not cleared after spill", t2)
		}
	}

	if err := p.Freshen(2); err != nil {
		t.Fatal(err)
	}

	var got []uint64
	for t2 := 0; t2 < p.NumThreads(); t2++ {
		got = append(got, p.Bucket(t2, 2)...)
	}
	if len(got) != len(want) {
		t.Fatalf("freshen returned %d walks, want %d", len(got), len(want))
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("multiset mismatch at %d: got %x want %x", i, got[i], want[i])
		}
	}
	if got := p.WalkNum(2); got != int64(len(want)) {
		t.Fatalf("WalkNum(2) after freshen = %d, want %d", got, len(want))
	}
}

func TestSpillNoopWhenNotDirty(t *testing.T) {
	p, base := newTestPool(t)
	if err := p.Spill(0); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(spillPath(base, 0)); !os.IsNotExist(err) {
		t.Fatal("spill file should not be created when shard isn't dirty")
	}
}

func TestFreshenMissingFileIsEmpty(t *testing.T) {
	p, _ := newTestPool(t)
	if err := p.Freshen(3); err != nil {
		t.Fatal(err)
	}
	if got := p.WalkNum(3); got != 0 {
		t.Fatalf("WalkNum(3) = %d, want 0", got)
	}
}

func TestMinStepShardTieBreakAscending(t *testing.T) {
	p, _ := newTestPool(t)
	c := walkcodec.Default()
	w0, _ := c.Encode(0, 0, 3)
	w1, _ := c.Encode(0, 0, 3)
	p.Seed(2, 0, w0)
	p.Seed(1, 0, w1)

	shard, ok := p.MinStepShard()
	if !ok || shard != 1 {
		t.Fatalf("MinStepShard() = (%d,%v), want (1,true)", shard, ok)
	}
}

func TestTerminateDecrementsWalkNum(t *testing.T) {
	p, _ := newTestPool(t)
	c := walkcodec.Default()
	w, _ := c.Encode(0, 0, 0)
	p.Seed(0, 0, w)
	p.Terminate(0)
	if got := p.WalkNum(0); got != 0 {
		t.Fatalf("WalkNum(0) = %d, want 0", got)
	}
	if got := p.TotalLive(); got != 0 {
		t.Fatalf("TotalLive() = %d, want 0", got)
	}
}
