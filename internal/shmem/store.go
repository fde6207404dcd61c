// Package shmem implements the process-group-wide shared object store of
// spec.md §4.1: it names, allocates and reference-counts arrays and
// objects so that all local processes (modeled here as goroutines
// sharing one Store) resolve names without copying.
//
// Cross-host sharing is out of scope (spec.md §1); this Store models one
// host's view. "Attach" on a non-owner process waits for a marker file
// the owner creates, using fsnotify, the way the teacher's directory
// watchers wait for filesystem state to settle.
package shmem

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/fsnotify/fsnotify"

	"github.com/vistle-sys/vistle/internal/names"
	"github.com/vistle-sys/vistle/internal/vconfig"
	"github.com/vistle-sys/vistle/internal/verrors"
	"github.com/vistle-sys/vistle/internal/vlog"
)

const abiVersion = 1

type kind int

const (
	kindArray kind = iota
	kindObject
)

type entry struct {
	name      string
	kind      kind
	refCount  int32
	array     *Array
	objTag    string
	objRefs   []string // names this object references; already incremented
	cacheMode vconfig.CacheMode
}

// Store is one process-group-wide shared object store instance.
type Store struct {
	id       string
	baseDir  string
	creator  *names.Generator
	cfg      *vconfig.Config
	isOwner  bool

	mu         sync.RWMutex
	entries    map[string]*entry
	usedBytes  int64
	detached   bool

	pressure *ristretto.Cache
}

// markerFile is the file a store owner writes so attach() can detect the
// store exists, without needing real OS shared memory.
func markerFile(baseDir, id string) string {
	return filepath.Join(baseDir, id+".vistle-store")
}

// CreateOwner creates a new store and marks it as owned by this process.
// baseDir is a directory all local processes can see (e.g. a tmpfs mount).
func CreateOwner(cfg *vconfig.Config, baseDir, creatorID string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, verrors.Wrap(verrors.OutOfSpace, "shmem", "CreateOwner", "cannot create base dir", err)
	}
	s, err := newStore(cfg, baseDir, creatorID, true)
	if err != nil {
		return nil, err
	}
	marker := markerFile(baseDir, s.id)
	if err := os.WriteFile(marker, []byte{byte(abiVersion)}, 0o644); err != nil {
		return nil, verrors.Wrap(verrors.OutOfSpace, "shmem", "CreateOwner", "cannot write store marker", err)
	}
	return s, nil
}

// Attach opens an existing store created by its owner. If the marker is
// not yet present, Attach watches baseDir with fsnotify until it appears
// or cfg.AttachTimeout elapses, at which point it fails with NotFound
// ("StoreMissing" in spec.md §4.1 terms). An ABI byte mismatch in the
// marker is fatal and returned as Incompatible.
func Attach(cfg *vconfig.Config, baseDir, storeID, creatorID string) (*Store, error) {
	marker := markerFile(baseDir, storeID)

	if !waitForMarker(marker, cfg.AttachTimeout) {
		return nil, verrors.New(verrors.NotFound, "shmem", "Attach",
			"store owner has not created store "+storeID)
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		return nil, verrors.Wrap(verrors.NotFound, "shmem", "Attach", "cannot read store marker", err)
	}
	if len(data) == 0 || int(data[0]) != abiVersion {
		return nil, verrors.New(verrors.Incompatible, "shmem", "Attach", "store ABI version mismatch")
	}

	s, err := newStore(cfg, baseDir, creatorID, false)
	if err != nil {
		return nil, err
	}
	s.id = storeID
	return s, nil
}

func waitForMarker(marker string, timeout time.Duration) bool {
	if _, err := os.Stat(marker); err == nil {
		return true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Fall back to a short poll if the watcher cannot be created.
		return pollForMarker(marker, timeout)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(marker)); err != nil {
		return pollForMarker(marker, timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-watcher.Events:
			if !ok {
				return false
			}
			if ev.Name == marker && (ev.Op&(fsnotify.Create|fsnotify.Write) != 0) {
				return true
			}
		case <-watcher.Errors:
			// keep waiting until the timeout
		}
	}
}

func pollForMarker(marker string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func newStore(cfg *vconfig.Config, baseDir, creatorID string, owner bool) (*Store, error) {
	pressure, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     cfg.StoreMaxBytes,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item) {
			vlog.WithField("name", item.Key).Warn("shmem: cache pressure evicted retained-handle tracking entry")
		},
	})
	if err != nil {
		return nil, verrors.Wrap(verrors.OutOfSpace, "shmem", "newStore", "cannot create pressure cache", err)
	}

	return &Store{
		id:       names.NewStoreID(),
		baseDir:  baseDir,
		creator:  names.NewGenerator(creatorID),
		cfg:      cfg,
		isOwner:  owner,
		entries:  make(map[string]*entry),
		pressure: pressure,
	}, nil
}

// ID returns this store instance's identifier.
func (s *Store) ID() string { return s.id }

// AllocateArray allocates a fresh, name-tagged, refcount-1 array.
func (s *Store) AllocateArray(elem ElementType, count int) (*Array, error) {
	size := int64(elem.Size() * count)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return nil, verrors.New(verrors.ConsistencyError, "shmem", "AllocateArray", "store detached")
	}
	if s.usedBytes+size > s.cfg.StoreMaxBytes {
		return nil, verrors.New(verrors.OutOfSpace, "shmem", "AllocateArray", "pool exhausted")
	}

	name := s.creator.Next()
	arr := newArray(name, elem, count)
	s.entries[name] = &entry{name: name, kind: kindArray, refCount: 1, array: arr}
	s.usedBytes += size
	return arr, nil
}

// AllocateObject allocates an object shell of the given type tag,
// referencing the given already-allocated array/object names. Each
// referenced name's refcount is incremented as part of allocation,
// satisfying the invariant that an object only references entities
// whose count it has incremented (spec.md §3).
func (s *Store) AllocateObject(tag string, refs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return "", verrors.New(verrors.ConsistencyError, "shmem", "AllocateObject", "store detached")
	}

	for _, r := range refs {
		e, ok := s.entries[r]
		if !ok {
			return "", verrors.New(verrors.NotFound, "shmem", "AllocateObject", "unknown reference "+r)
		}
		atomic.AddInt32(&e.refCount, 1)
	}

	name := s.creator.Next()
	s.entries[name] = &entry{name: name, kind: kindObject, refCount: 1, objTag: tag, objRefs: append([]string(nil), refs...)}
	return name, nil
}

// AdoptArray inserts an array under an explicit name (as read back from
// an archive), returning the already-resident array unchanged if name
// is already present (the archive loader's dedup-by-name rule, spec.md
// §4.5), or a fresh refcount-1 array otherwise.
func (s *Store) AdoptArray(name string, elem ElementType, data []byte) (*Array, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		atomic.AddInt32(&e.refCount, 1)
		return e.array, nil
	}

	size := int64(len(data))
	if s.usedBytes+size > s.cfg.StoreMaxBytes {
		return nil, verrors.New(verrors.OutOfSpace, "shmem", "AdoptArray", "pool exhausted")
	}
	arr := &Array{name: name, elem: elem, count: len(data) / maxInt(elem.Size(), 1), data: data}
	s.entries[name] = &entry{name: name, kind: kindArray, refCount: 1, array: arr}
	s.usedBytes += size
	return arr, nil
}

// AdoptObject inserts an object shell under an explicit name, mirroring
// AdoptArray for sub-objects read back from an archive.
func (s *Store) AdoptObject(name, tag string, refs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		atomic.AddInt32(&e.refCount, 1)
		return nil
	}
	for _, r := range refs {
		if e, ok := s.entries[r]; ok {
			atomic.AddInt32(&e.refCount, 1)
		}
	}
	s.entries[name] = &entry{name: name, kind: kindObject, refCount: 1, objTag: tag, objRefs: append([]string(nil), refs...)}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Lookup resolves a name without adjusting refcounts.
func (s *Store) Lookup(name string) (array *Array, tag string, isObject bool, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, "", false, false
	}
	if e.kind == kindArray {
		return e.array, "", false, true
	}
	return nil, e.objTag, true, true
}

// ObjectRefs returns the names an object entry references.
func (s *Store) ObjectRefs(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || e.kind != kindObject {
		return nil, false
	}
	return append([]string(nil), e.objRefs...), true
}

// Increment atomically increases name's refcount.
func (s *Store) Increment(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return verrors.New(verrors.NotFound, "shmem", "Increment", name)
	}
	atomic.AddInt32(&e.refCount, 1)
	return nil
}

// Decrement atomically decreases name's refcount. Reaching zero
// recursively decrements referenced entities and removes the entry, so
// a later Decrement of the same name returns NotFound; a count that
// would drop below zero returns ConsistencyError.
func (s *Store) Decrement(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return verrors.New(verrors.NotFound, "shmem", "Decrement", name)
	}
	n := atomic.AddInt32(&e.refCount, -1)
	if n < 0 {
		s.mu.Unlock()
		return verrors.New(verrors.ConsistencyError, "shmem", "Decrement", "refcount underflow for "+name)
	}
	destroyed := n == 0
	if destroyed {
		delete(s.entries, name)
		if e.kind == kindArray {
			s.usedBytes -= int64(e.array.ByteSize())
		}
	}
	s.mu.Unlock()

	if !destroyed {
		return nil
	}

	s.pressure.Del(name)

	if e.kind == kindObject {
		for _, r := range e.objRefs {
			if err := s.Decrement(r); err != nil {
				vlog.WithError(err).WithField("name", r).Warn("shmem: error decrementing referenced entity during destruction")
			}
		}
	}
	return nil
}

// SetCacheMode tags name with a retention policy and, for EvictLate and
// KeepUntilExecute, registers it with the pressure cache so the store
// can warn the producer ahead of a hard OutOfSpace. Never-mode entries
// are not registered and are thus never proactively evicted or warned
// about; refcount>0 entries are never evicted regardless of mode.
func (s *Store) SetCacheMode(name string, mode vconfig.CacheMode) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return verrors.New(verrors.NotFound, "shmem", "SetCacheMode", name)
	}
	e.cacheMode = mode
	var cost int64
	if e.kind == kindArray {
		cost = int64(e.array.ByteSize())
	}
	s.mu.Unlock()

	switch mode {
	case vconfig.EvictLate, vconfig.KeepUntilExecute:
		s.pressure.Set(name, struct{}{}, cost)
	case vconfig.Never:
		s.pressure.Del(name)
	}
	return nil
}

// Stats summarizes store occupancy for the debug API and metrics.
type Stats struct {
	EntryCount int
	UsedBytes  int64
	MaxBytes   int64
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{EntryCount: len(s.entries), UsedBytes: s.usedBytes, MaxBytes: s.cfg.StoreMaxBytes}
}

// Detach releases this process's view of the store. It does not affect
// stored content — destruction remains purely refcount-driven.
func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
	s.pressure.Close()
}
