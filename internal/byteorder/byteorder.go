// Package byteorder normalizes values to the little-endian on-disk
// representation required at .vsld file boundaries (spec.md §4.6),
// the Go-native analogue of the original's lib/vistle/util/sysdep.h
// host/byte-order detection.
//
// Everywhere else in the core, array payloads travel as raw
// little-endian bytes already (internal/shmem.Array); this package
// exists only for scalar header fields that get composed into Go
// structs and must round-trip through encoding/binary explicitly.
package byteorder

import "encoding/binary"

// LE is the single byte order the on-disk format uses, regardless of
// host architecture.
var LE = binary.LittleEndian

// PutUint32 and PutUint64 are re-exported for call sites that want the
// package name to make the little-endian requirement explicit, rather
// than importing encoding/binary directly.
func PutUint32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutUint64(b []byte, v uint64) { LE.PutUint64(b, v) }
func Uint32(b []byte) uint32       { return LE.Uint32(b) }
func Uint64(b []byte) uint64       { return LE.Uint64(b) }
