package shardstore

// shardfile.go decodes the external shard file format (spec.md §6): for
// each vertex v in [lo_p, hi_p] ascending, a little-endian u32 out-degree
// d followed by d little-endian u32 destination ids. This is the bit-exact
// wire format produced by the external sharder (cmd/graphwalker-shard in
// this repo) and consumed here.

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/outcore/graphwalker/internal/arena"
)

// decodeInto reads a shard file for [lo, hi] (inclusive) from r and fills
// beg_pos/csr buffers allocated from ar. n is hi-lo+1, the vertex count of
// the shard.
func decodeInto(r io.Reader, ar *arena.Arena, n int) (begPos []uint64, csr []uint32, err error) {
	br := bufio.NewReaderSize(r, 1<<20)

	degrees := make([]uint32, n)
	var total uint64
	var adj []byte // every vertex's destination ids, in file order
	hdr := make([]byte, 4)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(br, hdr); err != nil {
			return nil, nil, fmt.Errorf("shardstore: reading degree of vertex %d: %w", i, err)
		}
		d := binary.LittleEndian.Uint32(hdr)
		degrees[i] = d
		total += uint64(d)
		start := len(adj)
		adj = append(adj, make([]byte, int(d)*4)...)
		if _, err := io.ReadFull(br, adj[start:]); err != nil {
			return nil, nil, fmt.Errorf("shardstore: reading adjacency of vertex %d: %w", i, err)
		}
	}
	// The second pass decodes the destination ids collected above.
	br = bufio.NewReader(bytes.NewReader(adj))

	begPos = arena.MakeUint64Slice(ar, n+1)
	csr = arena.MakeUint32Slice(ar, int(total))

	var pos uint64
	buf := make([]byte, 0, 1<<20)
	for i := 0; i < n; i++ {
		begPos[i] = pos
		d := int(degrees[i])
		need := d * 4
		if cap(buf) < need {
			buf = make([]byte, need)
		}
		buf = buf[:need]
		if need > 0 {
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, nil, fmt.Errorf("shardstore: reading adjacency of vertex %d: %w", i, err)
			}
		}
		for j := 0; j < d; j++ {
			csr[int(pos)+j] = binary.LittleEndian.Uint32(buf[j*4:])
		}
		pos += uint64(d)
	}
	begPos[n] = pos
	return begPos, csr, nil
}

// openShardFile opens the shard file for interval p under base path file,
// e.g. "<file>.p.shard".
func shardFilePath(base string, p int) string {
	return fmt.Sprintf("%s.%d.shard", base, p)
}

func openShardFile(base string, p int) (*os.File, error) {
	return os.Open(shardFilePath(base, p))
}
