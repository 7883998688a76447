package shardstore

// shardwriter.go writes the external shard file format decodeInto reads
// back: used by cmd/graphwalker-shard (the reference sharder) and by
// tests that need a real on-disk fixture instead of an in-memory
// ShardView.

import (
	"bufio"
	"encoding/binary"
	"os"
)

// WriteShardFile writes shard p's CSR to "<base>.<p>.shard". neighbors[i]
// holds vertex (lo+i)'s out-neighbors, for i in [0, len(neighbors)).
func WriteShardFile(base string, p int, neighbors [][]uint32) error {
	f, err := os.Create(shardFilePath(base, p))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	var hdr [4]byte
	for _, adj := range neighbors {
		binary.LittleEndian.PutUint32(hdr[:], uint32(len(adj)))
		if _, err := bw.Write(hdr[:]); err != nil {
			f.Close()
			return err
		}
		for _, dst := range adj {
			binary.LittleEndian.PutUint32(hdr[:], dst)
			if _, err := bw.Write(hdr[:]); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
