// Package archive implements the deep-copy save/load protocol of
// spec.md §4.5 on top of internal/shmem and internal/objtype: walking
// an object's reference graph once per distinct name, compressing each
// array/sub-object payload with a chosen internal/codec, and on load
// reconstituting names exactly as archived so that two fields sharing
// one grid still share one grid handle after a round trip.
//
// It is grounded directly on the original's module/general/Cache/
// Cache.cpp, which drives the same walk-and-serialize-object-graph
// shape this package generalizes into a typed, name-addressed form.
package archive

import (
	"bytes"
	"encoding/gob"

	"github.com/vistle-sys/vistle/internal/chunkfile"
	"github.com/vistle-sys/vistle/internal/codec"
	"github.com/vistle-sys/vistle/internal/objtype"
	"github.com/vistle-sys/vistle/internal/shmem"
	"github.com/vistle-sys/vistle/internal/verrors"
)

// Record is the gob-encoded envelope carried by the root archive entry
// and, with Metadata/Attrs left zero, by every sub-object directory
// entry (sub-objects only need a type tag and references to be
// re-attached; their own metadata belongs to whichever object held
// them as the root of its own archive).
type Record struct {
	Name       string
	Tag        objtype.Tag
	Metadata   objtype.Metadata
	State      objtype.State
	AttrKeys   []string
	AttrValues map[string]string
	Refs       []string
}

// Save walks root's reference graph with a visited-set keyed by name
// (spec.md §4.5 step 1), emitting one DirectoryEntry per distinct array
// or sub-object it reaches, and returns a separate Record describing
// root itself as the archive's entry point.
func Save(store *shmem.Store, root objtype.Object, mode codec.Mode, speedHint int) (Record, []chunkfile.DirectoryEntry, error) {
	c, err := codec.Get(mode)
	if err != nil {
		return Record{}, nil, err
	}

	visited := make(map[string]bool)
	var dir []chunkfile.DirectoryEntry

	var walk func(name string) error
	walk = func(name string) error {
		if visited[name] {
			return nil
		}
		visited[name] = true

		arr, tag, isObject, found := store.Lookup(name)
		if !found {
			return verrors.New(verrors.NotFound, "archive", "Save", "dangling reference "+name)
		}

		if !isObject {
			entry, err := arrayEntry(name, arr, mode, c, speedHint)
			if err != nil {
				return err
			}
			dir = append(dir, entry)
			return nil
		}

		refs, _ := store.ObjectRefs(name)
		for _, r := range refs {
			if err := walk(r); err != nil {
				return err
			}
		}
		entry, err := objectEntry(name, objtype.Tag(tag), refs, mode, c, speedHint)
		if err != nil {
			return err
		}
		dir = append(dir, entry)
		return nil
	}

	for _, r := range root.Refs() {
		if err := walk(r); err != nil {
			return Record{}, nil, err
		}
	}

	rootRecord := Record{
		Name:       root.Name(),
		Tag:        root.Tag(),
		Metadata:   root.Metadata(),
		State:      root.State(),
		AttrKeys:   root.Attributes().Keys(),
		AttrValues: attrValueMap(root.Attributes()),
		Refs:       root.Refs(),
	}
	return rootRecord, dir, nil
}

func attrValueMap(a *objtype.Attributes) map[string]string {
	out := make(map[string]string, a.Len())
	for _, k := range a.Keys() {
		v, _ := a.Get(k)
		out[k] = v
	}
	return out
}

func arrayEntry(name string, arr *shmem.Array, mode codec.Mode, c codec.Codec, speedHint int) (chunkfile.DirectoryEntry, error) {
	raw := arr.Bytes()
	compressed, err := c.Compress(raw, speedHint)
	if err != nil {
		return chunkfile.DirectoryEntry{}, verrors.Wrap(verrors.DecompressionFailed, "archive", "Save", "compress array "+name, err)
	}
	return chunkfile.DirectoryEntry{
		Name:             name,
		IsArray:          true,
		ElementTypeCode:  int(arr.ElementType()),
		UncompressedSize: uint64(len(raw)),
		CompressionMode:  mode,
		CompressedBytes:  compressed,
	}, nil
}

func objectEntry(name string, tag objtype.Tag, refs []string, mode codec.Mode, c codec.Codec, speedHint int) (chunkfile.DirectoryEntry, error) {
	rec := Record{Name: name, Tag: tag, Refs: refs}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return chunkfile.DirectoryEntry{}, verrors.Wrap(verrors.Corrupt, "archive", "Save", "encode object record "+name, err)
	}
	raw := buf.Bytes()
	compressed, err := c.Compress(raw, speedHint)
	if err != nil {
		return chunkfile.DirectoryEntry{}, verrors.Wrap(verrors.DecompressionFailed, "archive", "Save", "compress object record "+name, err)
	}
	return chunkfile.DirectoryEntry{
		Name:             name,
		IsArray:          false,
		UncompressedSize: uint64(len(raw)),
		CompressionMode:  mode,
		CompressedBytes:  compressed,
	}, nil
}

// Load reconstitutes root and every entity it (transitively)
// references, adopting each directory entry under its original name
// (internal/shmem.Store.AdoptArray/AdoptObject's dedup-by-name rule) so
// that two reloaded fields which shared one grid before archival share
// the same grid handle afterward.
func Load(store *shmem.Store, root Record, dir []chunkfile.DirectoryEntry) (objtype.Object, error) {
	index := make(map[string]chunkfile.DirectoryEntry, len(dir))
	for _, e := range dir {
		index[e.Name] = e
	}

	resolved := make(map[string]bool, len(dir))
	var resolve func(name string) error
	resolve = func(name string) error {
		if resolved[name] {
			return nil
		}
		entry, ok := index[name]
		if !ok {
			return verrors.New(verrors.NotFound, "archive", "Load", "directory missing entry "+name)
		}

		c, err := codec.Get(entry.CompressionMode)
		if err != nil {
			return err
		}
		raw, err := c.Decompress(entry.CompressedBytes, int(entry.UncompressedSize))
		if err != nil {
			return verrors.Wrap(verrors.DecompressionFailed, "archive", "Load", "decompress "+name, err)
		}

		if entry.IsArray {
			if _, err := store.AdoptArray(name, shmem.ElementType(entry.ElementTypeCode), raw); err != nil {
				return err
			}
			resolved[name] = true
			return nil
		}

		var rec Record
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
			return verrors.Wrap(verrors.Corrupt, "archive", "Load", "decode object record "+name, err)
		}
		for _, r := range rec.Refs {
			if err := resolve(r); err != nil {
				return err
			}
		}
		if err := store.AdoptObject(name, string(rec.Tag), rec.Refs); err != nil {
			return err
		}
		resolved[name] = true
		return nil
	}

	for _, r := range root.Refs {
		if err := resolve(r); err != nil {
			return nil, err
		}
	}

	if err := store.AdoptObject(root.Name, string(root.Tag), root.Refs); err != nil {
		return nil, err
	}
	obj, err := objtype.Reconstruct(store, root.Tag, root.Name, root.Metadata, root.Refs)
	if err != nil {
		return nil, err
	}

	if err := restoreAttributes(obj, root); err != nil {
		return nil, err
	}
	if err := restoreState(obj, root.State); err != nil {
		return nil, err
	}
	return obj, nil
}

type attributeSetter interface {
	SetAttribute(key, value string) error
}

func restoreAttributes(obj objtype.Object, root Record) error {
	setter, ok := obj.(attributeSetter)
	if !ok {
		return nil
	}
	for _, k := range root.AttrKeys {
		if err := setter.SetAttribute(k, root.AttrValues[k]); err != nil {
			return err
		}
	}
	return nil
}

type stateAdvancer interface {
	Finalize() error
	Publish() error
}

func restoreState(obj objtype.Object, want objtype.State) error {
	if want == objtype.StateEmpty || want == objtype.StateFilled {
		return nil
	}
	adv, ok := obj.(stateAdvancer)
	if !ok {
		return nil
	}
	if err := adv.Finalize(); err != nil {
		return err
	}
	if want == objtype.StateFinalized {
		return nil
	}
	return adv.Publish()
}
