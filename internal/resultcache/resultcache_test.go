package resultcache

import (
	"sync"
	"testing"
	"time"

	"github.com/vistle-sys/vistle/internal/vconfig"
)

func TestGetOrLockMissThenHit(t *testing.T) {
	c, err := New(vconfig.EvictLate, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	_, found, token := c.GetOrLock("k1")
	if found {
		t.Fatalf("first GetOrLock should miss")
	}
	c.StoreAndUnlock(token, "computed", 1)

	v, found, token2 := c.GetOrLock("k1")
	if !found || token2 != nil {
		t.Fatalf("second GetOrLock should hit the cache, got found=%v token=%v", found, token2)
	}
	if v != "computed" {
		t.Fatalf("cached value = %v, want %q", v, "computed")
	}
}

func TestConcurrentCallersShareOneComputation(t *testing.T) {
	c, err := New(vconfig.EvictLate, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	var computeCount int32
	var mu sync.Mutex

	results := make([]interface{}, 4)
	var wg sync.WaitGroup
	var leaderToken *Token
	var leaderOnce sync.Once

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, found, token := c.GetOrLock("shared-key")
			if !found {
				mu.Lock()
				computeCount++
				mu.Unlock()
				leaderOnce.Do(func() { leaderToken = token })
				return
			}
			results[i] = v
		}(i)
	}

	// Give followers time to block on the in-flight key before the
	// leader releases it.
	time.Sleep(30 * time.Millisecond)
	if leaderToken != nil {
		c.StoreAndUnlock(leaderToken, "the-value", 1)
	}
	wg.Wait()

	if computeCount != 1 {
		t.Fatalf("computeCount = %d, want exactly 1 leader computation", computeCount)
	}
}

func TestNeverModeDoesNotRetain(t *testing.T) {
	c, err := New(vconfig.Never, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	_, found, token := c.GetOrLock("k")
	if found {
		t.Fatalf("first GetOrLock should miss")
	}
	c.StoreAndUnlock(token, "v", 1)

	_, found2, token2 := c.GetOrLock("k")
	if found2 || token2 == nil {
		t.Fatalf("Never mode should not retain results across calls")
	}
}

func TestKeepUntilExecuteEvictedByCreatorPrefix(t *testing.T) {
	c, err := New(vconfig.KeepUntilExecute, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	_, _, token := c.GetOrLock("modA:obj1")
	c.StoreAndUnlock(token, "v1", 1)

	_, found, _ := c.GetOrLock("modA:obj1")
	if !found {
		t.Fatalf("expected KeepUntilExecute entry to be retained")
	}

	c.EvictForCreator("modA:")

	_, found2, _ := c.GetOrLock("modA:obj1")
	if found2 {
		t.Fatalf("expected entry to be evicted after EvictForCreator")
	}
}
