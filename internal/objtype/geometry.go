package objtype

import "github.com/vistle-sys/vistle/internal/shmem"

// Points is the simplest indexed-coordinate schema: one element per
// coordinate triple, no connectivity.
type Points struct{ Base }

func NewPoints(store *shmem.Store, meta Metadata, xArr, yArr, zArr string) (*Points, error) {
	refs := []string{xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagPoints), refs)
	if err != nil {
		return nil, err
	}
	return &Points{Base: newBase(store, name, TagPoints, meta, refs)}, nil
}
func (p *Points) XArray() string { return p.refs[0] }
func (p *Points) YArray() string { return p.refs[1] }
func (p *Points) ZArray() string { return p.refs[2] }
func (p *Points) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Points{Base: newBase(store, name, TagPoints, meta, p.refs)}
}

// Spheres is Points plus a per-point radius array.
type Spheres struct{ Base }

func NewSpheres(store *shmem.Store, meta Metadata, xArr, yArr, zArr, radiusArr string) (*Spheres, error) {
	refs := []string{xArr, yArr, zArr, radiusArr}
	name, err := store.AllocateObject(string(TagSpheres), refs)
	if err != nil {
		return nil, err
	}
	return &Spheres{Base: newBase(store, name, TagSpheres, meta, refs)}, nil
}
func (s *Spheres) XArray() string      { return s.refs[0] }
func (s *Spheres) YArray() string      { return s.refs[1] }
func (s *Spheres) ZArray() string      { return s.refs[2] }
func (s *Spheres) RadiusArray() string { return s.refs[3] }
func (s *Spheres) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Spheres{Base: newBase(store, name, TagSpheres, meta, s.refs)}
}

// Triangles references a fixed-stride-3 connectivity array plus
// coordinates: each 3 consecutive connectivity entries form one
// triangle.
type Triangles struct{ Base }

func NewTriangles(store *shmem.Store, meta Metadata, connectivity, xArr, yArr, zArr string) (*Triangles, error) {
	refs := []string{connectivity, xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagTriangles), refs)
	if err != nil {
		return nil, err
	}
	return &Triangles{Base: newBase(store, name, TagTriangles, meta, refs)}, nil
}
func (t *Triangles) ConnectivityArray() string { return t.refs[0] }
func (t *Triangles) XArray() string            { return t.refs[1] }
func (t *Triangles) YArray() string            { return t.refs[2] }
func (t *Triangles) ZArray() string            { return t.refs[3] }
func (t *Triangles) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Triangles{Base: newBase(store, name, TagTriangles, meta, t.refs)}
}

// Quads is Triangles with fixed stride 4.
type Quads struct{ Base }

func NewQuads(store *shmem.Store, meta Metadata, connectivity, xArr, yArr, zArr string) (*Quads, error) {
	refs := []string{connectivity, xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagQuads), refs)
	if err != nil {
		return nil, err
	}
	return &Quads{Base: newBase(store, name, TagQuads, meta, refs)}, nil
}
func (q *Quads) ConnectivityArray() string { return q.refs[0] }
func (q *Quads) XArray() string            { return q.refs[1] }
func (q *Quads) YArray() string            { return q.refs[2] }
func (q *Quads) ZArray() string            { return q.refs[3] }
func (q *Quads) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Quads{Base: newBase(store, name, TagQuads, meta, q.refs)}
}

// Polygons references variable-length faces via element-offsets plus
// connectivity, and coordinates.
type Polygons struct{ Base }

func NewPolygons(store *shmem.Store, meta Metadata, elementOffsets, connectivity, xArr, yArr, zArr string) (*Polygons, error) {
	refs := []string{elementOffsets, connectivity, xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagPolygons), refs)
	if err != nil {
		return nil, err
	}
	return &Polygons{Base: newBase(store, name, TagPolygons, meta, refs)}, nil
}
func (p *Polygons) ElementOffsetsArray() string { return p.refs[0] }
func (p *Polygons) ConnectivityArray() string   { return p.refs[1] }
func (p *Polygons) XArray() string              { return p.refs[2] }
func (p *Polygons) YArray() string              { return p.refs[3] }
func (p *Polygons) ZArray() string              { return p.refs[4] }
func (p *Polygons) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Polygons{Base: newBase(store, name, TagPolygons, meta, p.refs)}
}

// Lines is Polygons-shaped (variable-length via element-offsets), but
// each element is an open polyline rather than a closed face. A zero-
// corner Lines object is valid and carries zero elements (spec.md §8).
type Lines struct{ Base }

func NewLines(store *shmem.Store, meta Metadata, elementOffsets, connectivity, xArr, yArr, zArr string) (*Lines, error) {
	refs := []string{elementOffsets, connectivity, xArr, yArr, zArr}
	name, err := store.AllocateObject(string(TagLines), refs)
	if err != nil {
		return nil, err
	}
	return &Lines{Base: newBase(store, name, TagLines, meta, refs)}, nil
}
func (l *Lines) ElementOffsetsArray() string { return l.refs[0] }
func (l *Lines) ConnectivityArray() string   { return l.refs[1] }
func (l *Lines) XArray() string              { return l.refs[2] }
func (l *Lines) YArray() string              { return l.refs[3] }
func (l *Lines) ZArray() string              { return l.refs[4] }
func (l *Lines) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Lines{Base: newBase(store, name, TagLines, meta, l.refs)}
}

// Tubes is Lines plus a per-vertex radius array, for swept-circle
// rendering of polylines.
type Tubes struct{ Base }

func NewTubes(store *shmem.Store, meta Metadata, elementOffsets, connectivity, xArr, yArr, zArr, radiusArr string) (*Tubes, error) {
	refs := []string{elementOffsets, connectivity, xArr, yArr, zArr, radiusArr}
	name, err := store.AllocateObject(string(TagTubes), refs)
	if err != nil {
		return nil, err
	}
	return &Tubes{Base: newBase(store, name, TagTubes, meta, refs)}, nil
}
func (t *Tubes) ElementOffsetsArray() string { return t.refs[0] }
func (t *Tubes) ConnectivityArray() string   { return t.refs[1] }
func (t *Tubes) XArray() string              { return t.refs[2] }
func (t *Tubes) YArray() string              { return t.refs[3] }
func (t *Tubes) ZArray() string              { return t.refs[4] }
func (t *Tubes) RadiusArray() string         { return t.refs[5] }
func (t *Tubes) copyWithMeta(store *shmem.Store, name string, meta Metadata) Object {
	return &Tubes{Base: newBase(store, name, TagTubes, meta, t.refs)}
}

func init() {
	register(typeInfo{
		tag:   TagPoints,
		roles: []Role{RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Points{Base: newBase(store, name, TagPoints, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagSpheres,
		roles: []Role{RoleCoordX, RoleCoordY, RoleCoordZ, RoleRadius},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Spheres{Base: newBase(store, name, TagSpheres, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagTriangles,
		roles: []Role{RoleConnectivity, RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Triangles{Base: newBase(store, name, TagTriangles, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagQuads,
		roles: []Role{RoleConnectivity, RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Quads{Base: newBase(store, name, TagQuads, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagPolygons,
		roles: []Role{RoleElementOffset, RoleConnectivity, RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Polygons{Base: newBase(store, name, TagPolygons, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagLines,
		roles: []Role{RoleElementOffset, RoleConnectivity, RoleCoordX, RoleCoordY, RoleCoordZ},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Lines{Base: newBase(store, name, TagLines, meta, refs)}
		},
	})
	register(typeInfo{
		tag:   TagTubes,
		roles: []Role{RoleElementOffset, RoleConnectivity, RoleCoordX, RoleCoordY, RoleCoordZ, RoleRadius},
		factory: func(store *shmem.Store, name string, meta Metadata, refs []string) Object {
			return &Tubes{Base: newBase(store, name, TagTubes, meta, refs)}
		},
	})
}
