// Command graphwalker-shard is the external collaborator spec.md
// deliberately scopes out of the core engine: it reads a plain "src dst"
// edge-list text file, partitions vertices into size-bounded intervals,
// and writes the shard files plus the intervals file the engine consumes
// (spec.md §6 "External Interfaces"). The engine itself never links this
// package; it only ever opens the files this command produces.
//
// Usage:
//
//	graphwalker-shard -edges edges.txt -nvertices 100000 -shardsize 65536 -out graph
//
// © 2025 graphwalker authors. MIT License.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/outcore/graphwalker/internal/intervals"
	"github.com/outcore/graphwalker/internal/shardstore"
)

func main() {
	var (
		edgesPath = flag.String("edges", "", "path to a 'src dst' edge-list text file (required)")
		n         = flag.Uint64("nvertices", 0, "total vertex count (required)")
		shardKB   = flag.Int64("shardsize", 64*1024, "target shard size in KB")
		out       = flag.String("out", "graph", "base path for the shard and intervals files")
	)
	flag.Parse()

	if *edgesPath == "" || *n == 0 {
		fmt.Fprintln(os.Stderr, "graphwalker-shard: -edges and -nvertices are required")
		os.Exit(2)
	}

	if err := run(*edgesPath, uint32(*n), *shardKB, *out); err != nil {
		fmt.Fprintln(os.Stderr, "graphwalker-shard:", err)
		os.Exit(1)
	}
}

func run(edgesPath string, n uint32, shardKB int64, out string) error {
	adj := make([][]uint32, n)
	if err := readEdges(edgesPath, adj); err != nil {
		return fmt.Errorf("reading edges: %w", err)
	}

	degree := func(v uint32) int { return len(adj[v]) }
	ivs := intervals.Partition(n, degree, shardKB*1024)

	for p, iv := range ivs {
		if err := shardstore.WriteShardFile(out, p, adj[iv.Lo:iv.Hi+1]); err != nil {
			return fmt.Errorf("writing shard %d: %w", p, err)
		}
	}

	f, err := os.Create(out + ".intervals")
	if err != nil {
		return fmt.Errorf("creating intervals file: %w", err)
	}
	defer f.Close()
	if err := intervals.Write(f, ivs); err != nil {
		return fmt.Errorf("writing intervals file: %w", err)
	}

	fmt.Printf("graphwalker-shard: wrote %d shards covering %d vertices to %s.*\n", len(ivs), n, out)
	return nil
}

// readEdges parses "src dst" lines (whitespace-separated, '#'-prefixed
// comments and blank lines skipped) and appends each edge into adj,
// keyed by source vertex.
func readEdges(path string, adj [][]uint32) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n := uint32(len(adj))
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("line %d: want 'src dst', got %q", lineNo, line)
		}
		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: bad src: %w", lineNo, err)
		}
		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: bad dst: %w", lineNo, err)
		}
		if uint32(src) >= n || uint32(dst) >= n {
			return fmt.Errorf("line %d: vertex id out of range [0,%d)", lineNo, n)
		}
		adj[src] = append(adj[src], uint32(dst))
	}
	return sc.Err()
}
