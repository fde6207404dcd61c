// Package objtype implements the closed, type-safe object model of
// spec.md §4.2 on top of the untyped name/refcount substrate in
// internal/shmem. It generalizes the teacher's ArxObject — a single
// flat struct carrying identity, geometry and free-form properties —
// into a closed set of typed grid/field/geometry shells, each with its
// own referenced-array schema, behind one registry and one state
// machine.
package objtype

import (
	"fmt"
	"sync"

	"github.com/vistle-sys/vistle/internal/shmem"
	"github.com/vistle-sys/vistle/internal/verrors"
)

// State is the object lifecycle of spec.md §4.2: Empty → Filled →
// Finalized → Published. No transition is reversible.
type State int

const (
	StateEmpty State = iota
	StateFilled
	StateFinalized
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateFilled:
		return "Filled"
	case StateFinalized:
		return "Finalized"
	case StatePublished:
		return "Published"
	default:
		return "Unknown"
	}
}

// Object is the interface every concrete subtype shell satisfies.
type Object interface {
	Name() string
	Tag() Tag
	State() State
	Metadata() Metadata
	Attributes() *Attributes
	// Refs returns the names of arrays/sub-objects this object
	// references, in role order.
	Refs() []string
}

// Base is embedded by every concrete object subtype; it implements the
// common identity, metadata, attribute and state-machine behavior so
// each subtype only needs to add its typed ref accessors.
type Base struct {
	name  string
	tag   Tag
	meta  Metadata
	attrs Attributes
	state State
	refs  []string
	store *shmem.Store
}

func newBase(store *shmem.Store, name string, tag Tag, meta Metadata, refs []string) Base {
	return Base{name: name, tag: tag, meta: meta, attrs: NewAttributes(), state: StateFilled, refs: refs, store: store}
}

func (b *Base) Name() string    { return b.name }
func (b *Base) Tag() Tag        { return b.tag }
func (b *Base) State() State    { return b.state }
func (b *Base) Metadata() Metadata { return b.meta }
func (b *Base) Refs() []string  { return append([]string(nil), b.refs...) }

// Attributes returns a pointer to the live attribute map. Mutating it
// after Finalize is a programming error caught by SetAttribute.
func (b *Base) Attributes() *Attributes { return &b.attrs }

// SetAttribute adds an attribute; only legal while Filled (spec.md
// §4.2: "only Filled→Finalized adds attributes").
func (b *Base) SetAttribute(key, value string) error {
	if b.state != StateFilled {
		return verrors.New(verrors.ConsistencyError, "objtype", "SetAttribute",
			fmt.Sprintf("cannot set attribute on object in state %s", b.state))
	}
	b.attrs.Set(key, value)
	return nil
}

// SetMetadata overwrites the metadata record; only legal while Filled.
func (b *Base) SetMetadata(md Metadata) error {
	if b.state != StateFilled {
		return verrors.New(verrors.ConsistencyError, "objtype", "SetMetadata",
			fmt.Sprintf("cannot modify metadata on object in state %s", b.state))
	}
	b.meta = md
	return nil
}

// Finalize transitions Filled→Finalized. After this call, metadata is
// immutable and no further attributes may be added.
func (b *Base) Finalize() error {
	if b.state != StateFilled {
		return verrors.New(verrors.ConsistencyError, "objtype", "Finalize",
			fmt.Sprintf("cannot finalize object in state %s", b.state))
	}
	b.state = StateFinalized
	return nil
}

// Publish transitions Finalized→Published, making the object visible
// to other modules (spec.md §4.2).
func (b *Base) Publish() error {
	if b.state != StateFinalized {
		return verrors.New(verrors.ConsistencyError, "objtype", "Publish",
			fmt.Sprintf("cannot publish object in state %s", b.state))
	}
	b.state = StatePublished
	return nil
}

// Destroy decrements this object's own shmem entry, tearing down a
// not-yet-Finalized shell (spec.md §4.3 cancellation: "partial objects
// are torn down by refcount decrement").
func (b *Base) Destroy() error {
	return b.store.Decrement(b.name)
}

// typeInfo is the registry entry per spec.md §4.2: "a static registry
// maps each type tag to a factory ... a loader ... and a list of
// referenced-array roles."
type typeInfo struct {
	tag     Tag
	roles   []Role
	factory func(store *shmem.Store, name string, meta Metadata, refs []string) Object
}

var (
	registryMu sync.RWMutex
	registry   = map[Tag]typeInfo{}
)

func register(info typeInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[info.tag] = info
}

// Roles returns the referenced-array roles registered for tag.
func Roles(tag Tag) ([]Role, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[tag]
	if !ok {
		return nil, false
	}
	return append([]Role(nil), info.roles...), true
}

// Construct allocates a shell of the given tag in store, referencing
// refs (already-allocated array/object names, in role order for the
// tag) and incrementing each of their refcounts, per spec.md §4.2.
func Construct(store *shmem.Store, tag Tag, meta Metadata, refs []string) (Object, error) {
	registryMu.RLock()
	info, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, verrors.New(verrors.SchemaMismatch, "objtype", "Construct", "unknown type tag "+string(tag))
	}
	if len(info.roles) != len(refs) {
		return nil, verrors.New(verrors.SchemaMismatch, "objtype", "Construct",
			fmt.Sprintf("%s expects %d references, got %d", tag, len(info.roles), len(refs)))
	}

	name, err := store.AllocateObject(string(tag), refs)
	if err != nil {
		return nil, err
	}
	return info.factory(store, name, meta, refs), nil
}

// Reconstruct wraps an already-adopted shmem entry (name, tag, refs all
// already resident, as the archive loader leaves them via
// shmem.Store.AdoptObject) in its typed shell, without Construct's
// arity check or a fresh AllocateObject call. Used only by
// internal/archive, which knows the stored reference count is already
// correct for the tag (including variable-arity tags like Vec).
func Reconstruct(store *shmem.Store, tag Tag, name string, meta Metadata, refs []string) (Object, error) {
	registryMu.RLock()
	info, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, verrors.New(verrors.SchemaMismatch, "objtype", "Reconstruct", "unknown type tag "+string(tag))
	}
	return info.factory(store, name, meta, refs), nil
}

// Downcast returns obj re-typed as T if its tag matches, or the zero
// value and false otherwise (spec.md §4.2 `downcast<T>`).
func Downcast[T Object](obj Object) (T, bool) {
	t, ok := obj.(T)
	return t, ok
}

// copier is implemented by subtypes that carry extra scalar state
// beyond their referenced arrays (e.g. Uniform's min/max/divisions,
// Vec's mapping tag), so Clone can preserve it.
type copier interface {
	copyWithMeta(store *shmem.Store, name string, meta Metadata) Object
}

// Clone produces a new object sharing the same referenced arrays but
// with its own fresh metadata, used when the same data flows to
// multiple ports tagged with different block/timestep values (spec.md
// §4.2). The clone starts Filled regardless of the source's state.
func Clone(store *shmem.Store, obj Object, meta Metadata) (Object, error) {
	refs := obj.Refs()
	name, err := store.AllocateObject(string(obj.Tag()), refs)
	if err != nil {
		return nil, err
	}

	if c, ok := obj.(copier); ok {
		return c.copyWithMeta(store, name, meta), nil
	}

	registryMu.RLock()
	info, ok := registry[obj.Tag()]
	registryMu.RUnlock()
	if !ok {
		return nil, verrors.New(verrors.SchemaMismatch, "objtype", "Clone", "unknown type tag "+string(obj.Tag()))
	}
	return info.factory(store, name, meta, refs), nil
}
