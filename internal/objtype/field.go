package objtype

import "github.com/vistle-sys/vistle/internal/shmem"

// Vec is a field referencing one to three component arrays, a grid
// object, and a mapping tag (spec.md §4.2).
type Vec struct {
	Base
	Mapping Mapping
}

// NewVec constructs a Vec field. components must have length 1-3;
// grid is the name of the grid object this field is defined over.
func NewVec(store *shmem.Store, meta Metadata, grid string, components []string, mapping Mapping) (*Vec, error) {
	if len(components) < 1 || len(components) > 3 {
		panic("objtype: Vec requires 1 to 3 component arrays")
	}
	refs := append([]string{grid}, components...)
	name, err := store.AllocateObject(string(TagVec), refs)
	if err != nil {
		return nil, err
	}
	return &Vec{Base: newBase(store, name, TagVec, meta, refs), Mapping: mapping}, nil
}

func (v *Vec) GridObject() string    { return v.refs[0] }
func (v *Vec) Components() []string  { return v.refs[1:] }
func (v *Vec) Dimension() int        { return len(v.refs) - 1 }

func (v *Vec) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Vec{Base: newBase(store, name, TagVec, meta, v.refs), Mapping: v.Mapping}
}

// Texture1D references a color table and per-vertex coordinates into
// it (spec.md §4.2).
type Texture1D struct{ Base }

func NewTexture1D(store *shmem.Store, meta Metadata, colorTable, texCoords string) (*Texture1D, error) {
	refs := []string{colorTable, texCoords}
	name, err := store.AllocateObject(string(TagTexture1D), refs)
	if err != nil {
		return nil, err
	}
	return &Texture1D{Base: newBase(store, name, TagTexture1D, meta, refs)}, nil
}
func (t *Texture1D) ColorTableArray() string { return t.refs[0] }
func (t *Texture1D) TexCoordsArray() string  { return t.refs[1] }
func (t *Texture1D) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Texture1D{Base: newBase(store, name, TagTexture1D, meta, t.refs)}
}

// Placeholder carries only metadata; it stands in for an object that
// exists on another rank, so local ranks can know of its existence
// without holding its data (spec.md §4.2).
type Placeholder struct{ Base }

func NewPlaceholder(store *shmem.Store, meta Metadata) (*Placeholder, error) {
	name, err := store.AllocateObject(string(TagPlaceholder), nil)
	if err != nil {
		return nil, err
	}
	return &Placeholder{Base: newBase(store, name, TagPlaceholder, meta, nil)}, nil
}
func (p *Placeholder) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Placeholder{Base: newBase(store, name, TagPlaceholder, meta, nil)}
}

func init() {
	register(typeInfo{
		tag:   TagTexture1D,
		roles: []Role{RoleColorTable, RoleTexCoords},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Texture1D{Base: newBase(store, name, TagTexture1D, meta, refs)}
		},
	})
	register(typeInfo{
		tag: TagPlaceholder,
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Placeholder{Base: newBase(store, name, TagPlaceholder, meta, refs)}
		},
	})
	// Vec is variable-arity (1-3 components plus a grid); it is not
	// constructed via the fixed-role Construct path, only via NewVec
	// and via the archive loader which knows the stored arity.
	register(typeInfo{
		tag: TagVec,
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Vec{Base: newBase(store, name, TagVec, meta, refs), Mapping: MappingUnspecified}
		},
	})
}
