package shardstore

import (
	"path/filepath"
	"testing"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "graph")
	neighbors := [][]uint32{
		{1, 2},
		{2},
		{},
	}
	if err := WriteShardFile(base, 0, neighbors); err != nil {
		t.Fatal(err)
	}

	store := New(base, []Interval{{Lo: 0, Hi: 2}})
	view, err := store.Load(0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Release(view)

	if got := view.Degree(0); got != 2 {
		t.Fatalf("Degree(0) = %d, want 2", got)
	}
	if got := view.Neighbor(0, 0); got != 1 {
		t.Fatalf("Neighbor(0,0) = %d, want 1", got)
	}
	if got := view.Neighbor(0, 1); got != 2 {
		t.Fatalf("Neighbor(0,1) = %d, want 2", got)
	}
	if got := view.Degree(2); got != 0 {
		t.Fatalf("Degree(2) = %d, want 0", got)
	}
	if !view.Contains(1) || view.Contains(3) {
		t.Fatal("Contains() boundary check failed")
	}
}

func TestLoadMissingFileRetriesThenFails(t *testing.T) {
	base := filepath.Join(t.TempDir(), "graph")
	store := New(base, []Interval{{Lo: 0, Hi: 2}}, WithRetries(1, 0))
	if _, err := store.Load(0); err == nil {
		t.Fatal("Load() on a missing shard file should fail")
	}
}

func TestShardOf(t *testing.T) {
	store := New("", []Interval{{Lo: 0, Hi: 4}, {Lo: 5, Hi: 9}})
	cases := map[uint32]int{0: 0, 4: 0, 5: 1, 9: 1}
	for v, want := range cases {
		if got := store.ShardOf(v); got != want {
			t.Fatalf("ShardOf(%d) = %d, want %d", v, got, want)
		}
	}
	if got := store.ShardOf(10); got != -1 {
		t.Fatalf("ShardOf(10) = %d, want -1", got)
	}
}
