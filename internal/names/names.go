// Package names mints globally-unique array/object names and provides
// the fast, content-addressed hashing used for cache and lookup keys.
package names

import (
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Generator mints names of the form "<creatorID>:<counter>" as described
// in spec.md §4.1: the counter is per-creator and monotonic for the
// lifetime of the process.
type Generator struct {
	creatorID string
	counter   uint64
}

// NewGenerator returns a name Generator for the given creator id (a
// module instance identifier).
func NewGenerator(creatorID string) *Generator {
	return &Generator{creatorID: creatorID}
}

// Next returns the next unique name for this creator.
func (g *Generator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s:%d", g.creatorID, n)
}

// NewStoreID returns a random identifier suitable for naming a fresh
// shared-memory store instance.
func NewStoreID() string {
	return uuid.NewString()
}

// HashKey produces a fast, non-cryptographic hash of an arbitrary cache
// key built from parts, each part followed by a zero-byte separator.
func HashKey(parts ...string) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write(sep)
	}
	return h.Sum64()
}

var sep = []byte{0}
