// Package intervals parses and validates the intervals file (spec.md §6):
// plain text, one line per shard, each line the inclusive upper bound
// hi_p of shard p; lo_p is derived as hi_{p-1}+1 with lo_0 = 0.
//
// © 2025 graphwalker authors. MIT License.
package intervals

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/outcore/graphwalker/internal/shardstore"
)

// ErrCorrupt is the sentinel wrapped by every parse/validation failure.
// pkg/graphwalker maps it to the IntervalCorrupt error kind.
var ErrCorrupt = errors.New("intervals: malformed intervals file")

// Load reads and validates the intervals file at path, returning the
// parsed [lo,hi] ranges. Validates the invariants from spec.md §3:
// intervals are sorted, disjoint, cover [0, N), lo_0 = 0.
func Load(path string) ([]shardstore.Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads intervals from r in the same text format as Load.
func Parse(r io.Reader) ([]shardstore.Interval, error) {
	sc := bufio.NewScanner(r)
	var out []shardstore.Interval
	var lo uint32
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		hi64, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, lineNo, err)
		}
		hi := uint32(hi64)
		if len(out) > 0 && hi < lo {
			return nil, fmt.Errorf("%w: line %d: hi %d precedes lo %d", ErrCorrupt, lineNo, hi, lo)
		}
		out = append(out, shardstore.Interval{Lo: lo, Hi: hi})
		lo = hi + 1
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no intervals found", ErrCorrupt)
	}
	if out[0].Lo != 0 {
		return nil, fmt.Errorf("%w: lo_0 = %d, want 0", ErrCorrupt, out[0].Lo)
	}
	// lo_p is always derived as hi_{p-1}+1 above, so sortedness,
	// disjointness and coverage of [0, N) (spec.md §3 invariant, §8
	// property 2) follow by construction from the hi<lo check in the
	// loop; nothing further to validate here.
	return out, nil
}

// N returns the vertex count implied by the interval partition
// (hi_{P-1} + 1, spec.md §4's num_vertices()).
func N(ivs []shardstore.Interval) uint32 {
	if len(ivs) == 0 {
		return 0
	}
	return ivs[len(ivs)-1].Hi + 1
}

// Partition computes a fresh interval partition over [0, n) so that each
// shard's serialized size stays within budgetBytes, given a per-vertex
// cost of out-degree * 4 bytes + 4-byte degree header (a single vertex
// larger than the budget still gets a shard of its own).
// This is used by cmd/graphwalker-shard, the external sharder reference
// implementation; the core engine never partitions — it only consumes an
// already-written intervals file (spec.md §1: "partitioning is fixed at
// engine construction").
func Partition(n uint32, degree func(v uint32) int, budgetBytes int64) []shardstore.Interval {
	if n == 0 {
		return nil
	}
	var out []shardstore.Interval
	var lo uint32
	var acc int64
	for v := uint32(0); v < n; v++ {
		cost := int64(4 + degree(v)*4)
		if acc+cost > budgetBytes && v > lo {
			out = append(out, shardstore.Interval{Lo: lo, Hi: v - 1})
			lo = v
			acc = 0
		}
		acc += cost
	}
	out = append(out, shardstore.Interval{Lo: lo, Hi: n - 1})
	return out
}

// Write serializes intervals to w in the text format Load/Parse expect.
func Write(w io.Writer, ivs []shardstore.Interval) error {
	bw := bufio.NewWriter(w)
	for _, iv := range ivs {
		if _, err := fmt.Fprintln(bw, iv.Hi); err != nil {
			return err
		}
	}
	return bw.Flush()
}
