//go:build goexperiment.arenas
// +build goexperiment.arenas

// Package arena wraps Go's experimental `arena` package and hides its
// verbose low-level API behind the tiny, stable surface graphwalker needs:
// bump-allocate a CSR's beg_pos/csr buffers outside the GC heap, then free
// the whole thing in O(1) when a shard is released.
//
// Concurrency
// -----------
// arena.Arena is not thread-safe. In graphwalker the shard store only ever
// allocates into an arena while building a ShardView on the coordinator,
// before handing read-only slices to worker threads — allocation and
// worker access never overlap, so no locking is added here.
//
// ⚠️  DISCLAIMER  Using arenas bypasses the garbage collector; objects
// allocated inside must never be retained after Free(). In graphwalker
// this is enforced by ShardStore: a ShardView's slices are only valid
// between Load and the matching Release, and the walker kernel never
// stores a pointer into a ShardView across interval boundaries.
//
// © 2025 graphwalker authors. MIT License.
package arena

import (
	"arena" // standard library experimental package
)

// Arena is a thin new-type wrapper that prevents external packages from
// depending directly on arena.Arena, giving us the freedom to switch
// allocators if the experimental package's API ever changes.
type Arena struct{ ar *arena.Arena }

// New constructs an empty arena ready for allocations.
func New() *Arena {
	return &Arena{ar: arena.NewArena()}
}

// Free releases all memory allocated in the arena. After the call, any
// slice previously returned from MakeSlice becomes invalid.
func (a *Arena) Free() {
	a.ar.Free()
}

// MakeUint32Slice allocates a []uint32 of length n inside the arena. Used
// for a shard's csr destination array.
func MakeUint32Slice(a *Arena, n int) []uint32 {
	return arena.MakeSlice[uint32](a.ar, n, n)
}

// MakeUint64Slice allocates a []uint64 of length n inside the arena. Used
// for a shard's beg_pos prefix-sum array.
func MakeUint64Slice(a *Arena, n int) []uint64 {
	return arena.MakeSlice[uint64](a.ar, n, n)
}
