// Package sharding assigns logical blocks to per-rank .vsld shards
// using rendezvous (highest random weight) hashing, so block
// placement is stable across runs without a central directory.
// Promoted from an indirect dependency of arx-os-arxos/services/
// tile-server/go.mod (dgryski/go-rendezvous) to direct use.
package sharding

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"

	"github.com/vistle-sys/vistle/internal/chunkfile"
	"github.com/vistle-sys/vistle/internal/verrors"
)

// Ring assigns integer block ids to one of a fixed set of ranks.
type Ring struct {
	rv    *rendezvous.Rendezvous
	ranks []int
}

func hashNode(s string) uint64 {
	return xxhash.Sum64String(s)
}

// NewRing builds a rendezvous-hash ring over the given ranks
// (typically 0..numRanks-1).
func NewRing(ranks []int) *Ring {
	nodes := make([]string, len(ranks))
	for i, r := range ranks {
		nodes[i] = strconv.Itoa(r)
	}
	return &Ring{
		rv:    rendezvous.New(nodes, hashNode),
		ranks: append([]int(nil), ranks...),
	}
}

// RankFor returns the rank that owns the given block id.
func (r *Ring) RankFor(block int) int {
	node := r.rv.Lookup(strconv.Itoa(block))
	rank, _ := strconv.Atoi(node)
	return rank
}

// CollectiveOpen opens base's per-rank shards base.0.vsld .. base.(numRanks-1).vsld
// as one unit. It mirrors the original's collective read, which reduces
// each rank's open result across the group with a minimum: any single
// rank failing to open its shard aborts the whole read rather than
// returning a partial set. On failure every file already opened is
// closed before the error is returned; on success the caller owns
// closing every returned file.
func CollectiveOpen(base string, numRanks int) ([]*os.File, error) {
	files := make([]*os.File, 0, numRanks)
	for rank := 0; rank < numRanks; rank++ {
		f, err := os.Open(chunkfile.RankFileName(base, rank))
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, verrors.Wrap(verrors.NotFound, "sharding", "CollectiveOpen",
				fmt.Sprintf("rank %d failed to open its shard, aborting collective read", rank), err)
		}
		files = append(files, f)
	}
	return files, nil
}
