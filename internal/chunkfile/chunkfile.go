// Package chunkfile implements the chunked .vsld archive file format of
// spec.md §4.6, bit-exact with the original's
// module/general/Cache/vistle_file.h: a 20-byte ChunkHeader
// ("Vistle" magic, type byte, version, size), the chunk payload, and a
// 16-byte ChunkFooter ("vistle" magic, type byte, size) for
// backward-seekable scanning.
package chunkfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vistle-sys/vistle/internal/codec"
	"github.com/vistle-sys/vistle/internal/verrors"
)

// ChunkType is the closed chunk-kind enumeration of vistle_file.h.
type ChunkType byte

const (
	ChunkInvalid ChunkType = iota
	ChunkDirectory
	ChunkPortObject
	ChunkArchive
)

func (t ChunkType) String() string {
	switch t {
	case ChunkDirectory:
		return "Directory"
	case ChunkPortObject:
		return "PortObject"
	case ChunkArchive:
		return "Archive"
	default:
		return "Invalid"
	}
}

const (
	headerMagic  = "Vistle\x00"
	footerMagic  = "vistle\x00"
	magicLen     = 7
	headerSize   = magicLen + 1 + 4 + 8 // 20 bytes
	footerSize   = 8 + 1 + magicLen     // 16 bytes
	fileVersion  = 1
	shmNameSize  = 32
)

// ChunkHeader precedes every chunk's payload on disk.
type ChunkHeader struct {
	Type    ChunkType
	Version uint32
	Size    uint64
}

// WriteChunkHeader writes the 20-byte header for a chunk of the given
// type and payload size.
func WriteChunkHeader(w io.Writer, typ ChunkType, size uint64) error {
	buf := make([]byte, headerSize)
	copy(buf[0:magicLen], headerMagic)
	buf[magicLen] = byte(typ)
	binary.LittleEndian.PutUint32(buf[magicLen+1:], fileVersion)
	binary.LittleEndian.PutUint64(buf[magicLen+5:], size)
	_, err := w.Write(buf)
	return err
}

// ReadChunkHeader reads and validates a 20-byte ChunkHeader.
func ReadChunkHeader(r io.Reader) (ChunkHeader, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return ChunkHeader{}, err
	}
	if string(buf[0:magicLen]) != headerMagic {
		return ChunkHeader{}, verrors.New(verrors.Corrupt, "chunkfile", "ReadChunkHeader", "bad chunk magic")
	}
	h := ChunkHeader{
		Type:    ChunkType(buf[magicLen]),
		Version: binary.LittleEndian.Uint32(buf[magicLen+1:]),
		Size:    binary.LittleEndian.Uint64(buf[magicLen+5:]),
	}
	if h.Version != fileVersion {
		return ChunkHeader{}, verrors.New(verrors.UnsupportedVersion, "chunkfile", "ReadChunkHeader",
			fmt.Sprintf("chunk version %d not supported (want %d)", h.Version, fileVersion))
	}
	return h, nil
}

// WriteChunkFooter writes the 16-byte trailing footer mirroring the
// header, enabling backward scanning.
func WriteChunkFooter(w io.Writer, h ChunkHeader) error {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(buf[0:], h.Size)
	buf[8] = byte(h.Type)
	copy(buf[9:], footerMagic)
	_, err := w.Write(buf)
	return err
}

// ReadChunkFooter reads and validates a ChunkFooter.
func ReadChunkFooter(r io.Reader) (ChunkHeader, error) {
	buf := make([]byte, footerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return ChunkHeader{}, err
	}
	if string(buf[9:]) != footerMagic {
		return ChunkHeader{}, verrors.New(verrors.Corrupt, "chunkfile", "ReadChunkFooter", "bad chunk footer magic")
	}
	return ChunkHeader{Size: binary.LittleEndian.Uint64(buf[0:]), Type: ChunkType(buf[8])}, nil
}

// WriteChunk frames payload with a header and footer.
func WriteChunk(w io.Writer, typ ChunkType, payload []byte) error {
	if err := WriteChunkHeader(w, typ, uint64(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return WriteChunkFooter(w, ChunkHeader{Type: typ, Size: uint64(len(payload))})
}

// ReadChunk reads a header, its payload, and validates the trailing
// footer matches.
func ReadChunk(r io.Reader) (ChunkHeader, []byte, error) {
	h, err := ReadChunkHeader(r)
	if err != nil {
		return ChunkHeader{}, nil, err
	}
	payload := make([]byte, h.Size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return ChunkHeader{}, nil, err
	}
	footer, err := ReadChunkFooter(r)
	if err != nil {
		return ChunkHeader{}, nil, err
	}
	if footer.Size != h.Size || footer.Type != h.Type {
		return ChunkHeader{}, nil, verrors.New(verrors.Corrupt, "chunkfile", "ReadChunk", "header/footer mismatch")
	}
	return h, payload, nil
}

// SkipChunk advances past a chunk's payload and footer without
// materializing the payload, for scanning past chunk types a reader
// does not understand.
func SkipChunk(r io.ReadSeeker, h ChunkHeader) error {
	if _, err := r.Seek(int64(h.Size), io.SeekCurrent); err != nil {
		return err
	}
	_, err := ReadChunkFooter(r)
	return err
}

// PortObjectHeader precedes a PortObject chunk's serialized payload,
// bit-exact with vistle_file.h's PortObjectHeader.
type PortObjectHeader struct {
	Version  uint32
	Port     int32
	Timestep int32
	Block    int32
	Object   string // shmNameSize-byte fixed field on disk
}

const portObjectHeaderSize = 4 + 4 + 4 + 4 + shmNameSize

// WritePortObjectHeader writes the fixed-size PortObjectHeader.
func WritePortObjectHeader(w io.Writer, h PortObjectHeader) error {
	if len(h.Object) >= shmNameSize {
		return verrors.New(verrors.Corrupt, "chunkfile", "WritePortObjectHeader", "object name too long for shm_name_t field")
	}
	buf := make([]byte, portObjectHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], fileVersion)
	binary.LittleEndian.PutUint32(buf[4:], uint32(h.Port))
	binary.LittleEndian.PutUint32(buf[8:], uint32(h.Timestep))
	binary.LittleEndian.PutUint32(buf[12:], uint32(h.Block))
	copy(buf[16:], h.Object)
	_, err := w.Write(buf)
	return err
}

// ReadPortObjectHeader reads a fixed-size PortObjectHeader.
func ReadPortObjectHeader(r io.Reader) (PortObjectHeader, error) {
	buf := make([]byte, portObjectHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return PortObjectHeader{}, err
	}
	name := buf[16:]
	end := len(name)
	for i, b := range name {
		if b == 0 {
			end = i
			break
		}
	}
	return PortObjectHeader{
		Version:  binary.LittleEndian.Uint32(buf[0:]),
		Port:     int32(binary.LittleEndian.Uint32(buf[4:])),
		Timestep: int32(binary.LittleEndian.Uint32(buf[8:])),
		Block:    int32(binary.LittleEndian.Uint32(buf[12:])),
		Object:   string(name[:end]),
	}, nil
}

// DirectoryEntry is one archive directory record of spec.md §4.5:
// {name, is_array, uncompressed_size, compression_mode, compressed_bytes}.
// ElementTypeCode additionally records an array entry's element type
// (a shmem.ElementType value) so the loader can reconstruct a typed
// Array without this package depending on internal/shmem.
type DirectoryEntry struct {
	Name             string
	IsArray          bool
	ElementTypeCode  int
	UncompressedSize uint64
	CompressionMode  codec.Mode
	CompressedBytes  []byte
}
