// Package resultcache implements the per-(module, input object name)
// derivation cache of spec.md §4.4: at most one concurrent computation
// per key, with the result shared across all subsequent requesters
// until the owning module's cache-mode setting evicts it.
//
// The single-flight-per-key lock generalizes the sync.Mutex-guarded
// map pattern the teacher uses for its in-process query cache
// (arx-os-arxos/internal/cache/cache.go) onto golang.org/x/sync/
// singleflight; hit/miss/eviction accounting follows arx-os-arxos/
// internal/database/spatial_optimizer.go's ristretto-backed QueryCache.
package resultcache

import (
	"sync"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	"github.com/vistle-sys/vistle/internal/vconfig"
	"github.com/vistle-sys/vistle/internal/verrors"
)

// Token is returned by GetOrLock on a miss. It must be passed to
// StoreAndUnlock exactly once to release waiters for the same key.
type Token struct {
	key     string
	result  chan interface{}
	release sync.Once
}

// Cache is one module's result cache.
type Cache struct {
	mode    vconfig.CacheMode
	group   singleflight.Group
	backing *ristretto.Cache

	mu       sync.Mutex
	inFlight map[string]*Token
	kept     map[string]interface{} // KeepUntilExecute entries, outside ristretto's cost eviction
}

// New creates a result cache with the given default eviction policy
// and a ristretto-backed store sized maxCost.
func New(mode vconfig.CacheMode, maxCost int64) (*Cache, error) {
	backing, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, verrors.Wrap(verrors.OutOfSpace, "resultcache", "New", "cannot create backing cache", err)
	}
	return &Cache{mode: mode, backing: backing, inFlight: make(map[string]*Token), kept: make(map[string]interface{})}, nil
}

func (c *Cache) lookupCached(key string) (interface{}, bool) {
	if v, ok := c.kept[key]; ok {
		return v, true
	}
	return c.backing.Get(key)
}

// GetOrLock implements spec.md §4.4. On a hit, value is set and found
// is true, token is nil. On a miss, if no other caller is already
// computing this key, the caller becomes the computing leader: found
// is false and a non-nil token is returned for a later
// StoreAndUnlock. If another caller already holds the key, GetOrLock
// blocks until that caller's StoreAndUnlock, then returns the shared
// result with found=true.
func (c *Cache) GetOrLock(key string) (value interface{}, found bool, token *Token) {
	if v, ok := c.lookupCached(key); ok {
		return v, true, nil
	}

	c.mu.Lock()
	if existing, busy := c.inFlight[key]; busy {
		c.mu.Unlock()
		v, _, _ := c.group.Do(key, func() (interface{}, error) {
			return <-existing.result, nil
		})
		return v, true, nil
	}

	tok := &Token{key: key, result: make(chan interface{}, 1)}
	c.inFlight[key] = tok
	c.mu.Unlock()

	// The leader's own wait on the shared future must not run inline
	// (it would deadlock against the StoreAndUnlock the leader itself
	// issues), so it joins the same singleflight call from a
	// background goroutine purely to keep followers' Do calls shared.
	go func() {
		_, _, _ = c.group.Do(key, func() (interface{}, error) {
			return <-tok.result, nil
		})
	}()

	return nil, false, tok
}

// StoreAndUnlock associates value with token's key, retaining it per
// the cache's mode, and wakes any blocked GetOrLock callers.
func (c *Cache) StoreAndUnlock(token *Token, value interface{}, cost int64) {
	if token == nil {
		return
	}
	token.release.Do(func() {
		c.mu.Lock()
		delete(c.inFlight, token.key)
		c.mu.Unlock()

		switch c.mode {
		case vconfig.Never:
			// Not retained: every caller recomputes.
		case vconfig.EvictImmediately:
			c.backing.SetWithTTL(token.key, value, cost, 0)
			c.backing.Wait()
			c.backing.Del(token.key)
		case vconfig.KeepUntilExecute:
			c.kept[token.key] = value
		default: // EvictLate
			c.backing.Set(token.key, value, cost)
			c.backing.Wait()
		}

		token.result <- value
		close(token.result)
	})
}

// EvictForCreator drops every KeepUntilExecute entry whose key has the
// given prefix, used when internal/pipeline reports a newer generation
// from a creator has arrived and prior derivations are stale (spec.md
// §4.3). Key format ("<creator>:<name>" or similar) is the caller's
// convention, not enforced here.
func (c *Cache) EvictForCreator(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.kept {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.kept, k)
		}
	}
}

// Close releases backing resources.
func (c *Cache) Close() { c.backing.Close() }
