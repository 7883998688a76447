package main

// graphgen.go generates a deterministic synthetic directed edge-list for
// feeding into cmd/graphwalker-shard or the test scenarios in spec.md §8.
// It emits "src dst" lines, one edge per line, so it can be piped straight
// into graphwalker-shard's -edges flag.
//
// Usage:
//
//	go run ./tools/graphgen -n 100000 -dist=zipf -seed=42 -out edges.txt
//
// Flags:
//
//	-n       number of vertices (default 10000)
//	-avgdeg  average out-degree (default 8)
//	-dist    destination-selection distribution: "uniform" or "zipf"
//	-zipfs   Zipf s parameter (>1), only used when -dist=zipf (default 1.2)
//	-zipfv   Zipf v parameter (>0), only used when -dist=zipf (default 1.0)
//	-seed    PRNG seed (default current time)
//	-out     output file (default stdout)
//
// A sibling key-stream generator exists for flat benchmarking datasets;
// this one instead needs two correlated columns (src, dst) and a degree
// distribution, so the body differs, but the flag-and-buffered-writer
// shape is the same.
//
// © 2025 graphwalker authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	var (
		n       = flag.Uint64("n", 10_000, "number of vertices")
		avgDeg  = flag.Int("avgdeg", 8, "average out-degree per vertex")
		dist    = flag.String("dist", "uniform", "destination distribution: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>0)")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	nv := *n
	if nv == 0 {
		fmt.Fprintln(os.Stderr, "graphgen: -n must be > 0")
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(*seedVal))

	var dest func() uint64
	switch *dist {
	case "uniform":
		dest = func() uint64 { return uint64(rnd.Int63n(int64(nv))) }
	case "zipf":
		if *zipfS <= 1.0 || *zipfV <= 0 {
			fmt.Fprintln(os.Stderr, "graphgen: zipfs must be >1 and zipfv >0")
			os.Exit(1)
		}
		z := rand.NewZipf(rnd, *zipfS, *zipfV, nv-1)
		dest = z.Uint64
	default:
		fmt.Fprintln(os.Stderr, "graphgen: unknown dist:", *dist)
		os.Exit(1)
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "graphgen: cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for src := uint64(0); src < nv; src++ {
		deg := *avgDeg
		if deg <= 0 {
			continue
		}
		for i := 0; i < deg; i++ {
			dst := dest()
			if dst == src {
				dst = (dst + 1) % nv
			}
			fmt.Fprintf(w, "%d %d\n", src, dst)
		}
	}
}
