package objtype

import "github.com/vistle-sys/vistle/internal/shmem"

// UniformGrid stores (min, max, divisions) per axis; vertex and cell
// coordinates are computed on demand, never stored (spec.md §4.2).
type UniformGrid struct {
	Base
	Min       [3]float64
	Max       [3]float64
	Divisions [3]int
}

// NewUniformGrid constructs a Uniform grid shell. It references no
// arrays.
func NewUniformGrid(store *shmem.Store, meta Metadata, min, max [3]float64, divisions [3]int) (*UniformGrid, error) {
	name, err := store.AllocateObject(string(TagUniform), nil)
	if err != nil {
		return nil, err
	}
	return &UniformGrid{Base: newBase(store, name, TagUniform, meta, nil), Min: min, Max: max, Divisions: divisions}, nil
}

// Coordinate returns the computed coordinate of grid index idx along
// axis (0=x, 1=y, 2=z).
func (g *UniformGrid) Coordinate(axis, idx int) float64 {
	n := g.Divisions[axis]
	if n <= 1 {
		if idx <= 0 {
			return g.Min[axis]
		}
		return g.Max[axis]
	}
	frac := float64(idx) / float64(n-1)
	return g.Min[axis] + frac*(g.Max[axis]-g.Min[axis])
}

func (g *UniformGrid) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &UniformGrid{Base: newBase(store, name, TagUniform, meta, nil), Min: g.Min, Max: g.Max, Divisions: g.Divisions}
}

// RectilinearGrid references one coordinate array per axis (spec.md
// §4.2).
type RectilinearGrid struct {
	Base
}

// NewRectilinearGrid constructs a Rectilinear grid referencing the
// given per-axis coordinate array names in x,y,z order.
func NewRectilinearGrid(store *shmem.Store, meta Metadata, xArr, yArr, zArr string) (*RectilinearGrid, error) {
	refs := []string{xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagRectilinear), refs)
	if err != nil {
		return nil, err
	}
	return &RectilinearGrid{Base: newBase(store, name, TagRectilinear, meta, refs)}, nil
}

func (g *RectilinearGrid) XArray() string { return g.refs[0] }
func (g *RectilinearGrid) YArray() string { return g.refs[1] }
func (g *RectilinearGrid) ZArray() string { return g.refs[2] }

func (g *RectilinearGrid) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &RectilinearGrid{Base: newBase(store, name, TagRectilinear, meta, g.refs)}
}

// StructuredGrid references three coordinate arrays indexed i,j,k with
// i varying fastest when linearized (spec.md §4.2).
type StructuredGrid struct {
	Base
	Dims [3]int
}

// NewStructuredGrid constructs a Structured grid referencing the given
// x,y,z coordinate array names, each of length Dims[0]*Dims[1]*Dims[2].
func NewStructuredGrid(store *shmem.Store, meta Metadata, dims [3]int, xArr, yArr, zArr string) (*StructuredGrid, error) {
	refs := []string{xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagStructured), refs)
	if err != nil {
		return nil, err
	}
	return &StructuredGrid{Base: newBase(store, name, TagStructured, meta, refs), Dims: dims}, nil
}

func (g *StructuredGrid) XArray() string { return g.refs[0] }
func (g *StructuredGrid) YArray() string { return g.refs[1] }
func (g *StructuredGrid) ZArray() string { return g.refs[2] }

// LinearIndex converts a (i,j,k) grid index into a flat array offset
// with i varying fastest.
func (g *StructuredGrid) LinearIndex(i, j, k int) int {
	return i + g.Dims[0]*(j+g.Dims[1]*k)
}

func (g *StructuredGrid) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &StructuredGrid{Base: newBase(store, name, TagStructured, meta, g.refs), Dims: g.Dims}
}

// UnstructuredGrid references element-offsets, connectivity,
// type-per-element and coordinate arrays (spec.md §4.2). Polyhedron
// cells use a face-stream connectivity encoding: a face-size count
// followed by that many vertex indices, repeated per face.
type UnstructuredGrid struct {
	Base
	ghostFlags string // optional, per-element; "" if absent
}

// NewUnstructuredGrid constructs an Unstructured grid referencing
// element-offsets, connectivity, type-per-element, and x/y/z coordinate
// array names, in that order.
func NewUnstructuredGrid(store *shmem.Store, meta Metadata, elementOffsets, connectivity, elementTypes, xArr, yArr, zArr string) (*UnstructuredGrid, error) {
	refs := []string{elementOffsets, connectivity, elementTypes, xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagUnstructured), refs)
	if err != nil {
		return nil, err
	}
	return &UnstructuredGrid{Base: newBase(store, name, TagUnstructured, meta, refs)}, nil
}

func (g *UnstructuredGrid) ElementOffsetsArray() string { return g.refs[0] }
func (g *UnstructuredGrid) ConnectivityArray() string    { return g.refs[1] }
func (g *UnstructuredGrid) ElementTypesArray() string    { return g.refs[2] }
func (g *UnstructuredGrid) XArray() string               { return g.refs[3] }
func (g *UnstructuredGrid) YArray() string               { return g.refs[4] }
func (g *UnstructuredGrid) ZArray() string               { return g.refs[5] }

func (g *UnstructuredGrid) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	clone := &UnstructuredGrid{Base: newBase(store, name, TagUnstructured, meta, g.refs)}
	if g.ghostFlags != "" {
		_ = store.Increment(g.ghostFlags)
		clone.ghostFlags = g.ghostFlags
	}
	return clone
}

// SetGhostFlags attaches an optional per-element ghost-cell flag array
// (one byte per element, nonzero meaning "ghost"). Ghost cells remain
// valid for read/query operations but are excluded by
// OwnedElementCount, per the resolution of the source's open question
// on ghost semantics.
func (g *UnstructuredGrid) SetGhostFlags(name string) error {
	if err := g.store.Increment(name); err != nil {
		return err
	}
	g.ghostFlags = name
	return nil
}

// GhostFlagsArray returns the ghost-flag array name, or "" if none was
// set — all elements are then owned.
func (g *UnstructuredGrid) GhostFlagsArray() string { return g.ghostFlags }

// OwnedElementCount returns the number of zero (non-ghost) entries in
// ghostFlags. When the grid has no ghost-flag array set, every entry of
// ghostFlags counts as owned and ghostFlags.Len() is returned. A nil
// ghostFlags yields 0, since the function has no other source for the
// element count.
func (g *UnstructuredGrid) OwnedElementCount(ghostFlags *shmem.Array) int {
	if g.ghostFlags == "" || ghostFlags == nil {
		if ghostFlags != nil {
			return ghostFlags.Len()
		}
		return 0
	}
	owned := 0
	for i := 0; i < ghostFlags.Len(); i++ {
		if ghostFlags.Byte(i) == 0 {
			owned++
		}
	}
	return owned
}

func init() {
	register(typeInfo{
		tag: TagUniform,
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &UniformGrid{Base: newBase(store, name, TagUniform, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagRectilinear,
		roles: []Role{RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &RectilinearGrid{Base: newBase(store, name, TagRectilinear, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagStructured,
		roles: []Role{RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &StructuredGrid{Base: newBase(store, name, TagStructured, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagUnstructured,
		roles: []Role{RoleElementOffset, RoleConnectivity, RoleElementType, RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &UnstructuredGrid{Base: newBase(store, name, TagUnstructured, meta, refs)}
		},
	})
}
