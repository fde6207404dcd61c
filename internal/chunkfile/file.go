package chunkfile

import (
	"bytes"
	"encoding/gob"
	"io"
	"sort"
)

// Writer sequences Directory/PortObject/Archive chunks into a .vsld
// file, mirroring vistle_file.h's write order: the archive directory
// first, then one PortObject chunk per published timestep/block.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteDirectoryEntry gob-encodes e and frames it as a ChunkArchive.
// The original encodes a fixed-layout SubArchiveDirectoryEntry; Go has
// no ABI-stable struct layout to exploit that trick with, so the
// payload is a self-describing gob record instead.
func (w *Writer) WriteDirectoryEntry(e DirectoryEntry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}
	return WriteChunk(w.w, ChunkArchive, buf.Bytes())
}

// WritePortObject frames h as a ChunkPortObject.
func (w *Writer) WritePortObject(h PortObjectHeader) error {
	var buf bytes.Buffer
	if err := WritePortObjectHeader(&buf, h); err != nil {
		return err
	}
	return WriteChunk(w.w, ChunkPortObject, buf.Bytes())
}

// WriteDirectoryMarker writes the empty sentinel chunk the original
// emits between the archive directory and the stream of port objects.
func (w *Writer) WriteDirectoryMarker() error {
	return WriteChunk(w.w, ChunkDirectory, nil)
}

// Reader scans a .vsld file chunk by chunk.
type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Next reads the next chunk and returns its type along with a decoded
// value: a DirectoryEntry for ChunkArchive, a PortObjectHeader for
// ChunkPortObject, or nil for ChunkDirectory. It returns io.EOF once
// the stream is exhausted, matching bufio/io reader conventions.
func (r *Reader) Next() (ChunkType, interface{}, error) {
	h, err := ReadChunkHeader(r.r)
	if err != nil {
		if err == io.EOF {
			return ChunkInvalid, nil, io.EOF
		}
		return ChunkInvalid, nil, err
	}
	payload := make([]byte, h.Size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return ChunkInvalid, nil, err
	}
	if _, err := ReadChunkFooter(r.r); err != nil {
		return ChunkInvalid, nil, err
	}

	switch h.Type {
	case ChunkArchive:
		var e DirectoryEntry
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&e); err != nil {
			return ChunkInvalid, nil, err
		}
		return ChunkArchive, e, nil
	case ChunkPortObject:
		po, err := ReadPortObjectHeader(bytes.NewReader(payload))
		if err != nil {
			return ChunkInvalid, nil, err
		}
		return ChunkPortObject, po, nil
	case ChunkDirectory:
		return ChunkDirectory, nil, nil
	default:
		return h.Type, payload, nil
	}
}

// FilteredReader wraps a Reader and applies a TimestepFilter to
// PortObject chunks as they stream by: PortObjects whose timestep
// fails the filter are skipped (no array materialization, per
// spec.md:185), and surviving ones have their timestep rewritten when
// the filter's Renumber flag is set.
type FilteredReader struct {
	r      *Reader
	filter TimestepFilter
}

// NewFilteredReader builds a FilteredReader over r.
func NewFilteredReader(r *Reader, filter TimestepFilter) *FilteredReader {
	return &FilteredReader{r: r, filter: filter}
}

// Next returns the next chunk that survives the filter, renumbering
// PortObject timesteps in place when the filter asks for it. Archive
// and Directory chunks pass through unfiltered.
func (f *FilteredReader) Next() (ChunkType, interface{}, error) {
	for {
		typ, val, err := f.r.Next()
		if err != nil {
			return typ, val, err
		}
		if typ != ChunkPortObject {
			return typ, val, nil
		}
		po := val.(PortObjectHeader)
		if !f.filter.Includes(int(po.Timestep)) {
			continue
		}
		newT, _ := f.filter.Renumbered(int(po.Timestep), -1)
		po.Timestep = int32(newT)
		return ChunkPortObject, po, nil
	}
}

// ReorderReader replays a .vsld file's PortObjects grouped by timestep
// then by port, per spec.md:186's reorder mode: the reader first scans
// all PortObjects, builds per-port x per-timestep lists, then replays
// them in canonical order. Archive and Directory chunks are returned
// first, in on-disk order, exactly as scanned, since reordering only
// applies to the PortObject stream.
type ReorderReader struct {
	chunks []reorderedChunk
	pos    int
}

type reorderedChunk struct {
	typ ChunkType
	val interface{}
}

// NewReorderReader scans all of r's chunks up front and returns a
// reader that replays them with PortObjects regrouped by
// (timestep, port) in ascending order.
func NewReorderReader(r *Reader) (*ReorderReader, error) {
	var leading []reorderedChunk
	var portObjects []PortObjectHeader
	for {
		typ, val, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if typ == ChunkPortObject {
			portObjects = append(portObjects, val.(PortObjectHeader))
			continue
		}
		leading = append(leading, reorderedChunk{typ: typ, val: val})
	}

	sort.SliceStable(portObjects, func(i, j int) bool {
		a, b := portObjects[i], portObjects[j]
		if a.Timestep != b.Timestep {
			return a.Timestep < b.Timestep
		}
		return a.Port < b.Port
	})

	chunks := leading
	for _, po := range portObjects {
		chunks = append(chunks, reorderedChunk{typ: ChunkPortObject, val: po})
	}
	return &ReorderReader{chunks: chunks}, nil
}

// Next returns the chunks in reordered sequence, then io.EOF.
func (r *ReorderReader) Next() (ChunkType, interface{}, error) {
	if r.pos >= len(r.chunks) {
		return ChunkInvalid, nil, io.EOF
	}
	c := r.chunks[r.pos]
	r.pos++
	return c.typ, c.val, nil
}
