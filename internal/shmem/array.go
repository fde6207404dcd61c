package shmem

import (
	"encoding/binary"
	"math"
)

// ElementType is the closed set of array element kinds from spec.md §3:
// scalar byte/integer/float/double, or a short fixed vector thereof.
type ElementType int

const (
	ElemByte ElementType = iota
	ElemInt32
	ElemInt64
	ElemFloat32
	ElemFloat64
	ElemVec3Float32
	ElemVec3Float64
)

// Size returns the per-element size in bytes.
func (e ElementType) Size() int {
	switch e {
	case ElemByte:
		return 1
	case ElemInt32, ElemFloat32:
		return 4
	case ElemInt64, ElemFloat64:
		return 8
	case ElemVec3Float32:
		return 12
	case ElemVec3Float64:
		return 24
	default:
		return 0
	}
}

func (e ElementType) String() string {
	switch e {
	case ElemByte:
		return "Byte"
	case ElemInt32:
		return "Int32"
	case ElemInt64:
		return "Int64"
	case ElemFloat32:
		return "Float32"
	case ElemFloat64:
		return "Float64"
	case ElemVec3Float32:
		return "Vec3Float32"
	case ElemVec3Float64:
		return "Vec3Float64"
	default:
		return "Unknown"
	}
}

// Array is a typed, contiguous buffer of bit-patterns. Elements are
// stored little-endian regardless of host order, which is already the
// on-disk order, so internal/archive writes these bytes unchanged.
type Array struct {
	name  string
	elem  ElementType
	count int
	data  []byte
}

func newArray(name string, elem ElementType, count int) *Array {
	return &Array{name: name, elem: elem, count: count, data: make([]byte, elem.Size()*count)}
}

func (a *Array) Name() string          { return a.name }
func (a *Array) ElementType() ElementType { return a.elem }
func (a *Array) Len() int              { return a.count }
func (a *Array) ByteSize() int         { return len(a.data) }

// Bytes returns the raw backing buffer. Callers must not retain it past
// the array's lifetime.
func (a *Array) Bytes() []byte { return a.data }

// SetBytes overwrites the raw backing buffer; used by the archive loader
// to materialize a decompressed payload directly.
func (a *Array) SetBytes(b []byte) {
	a.data = b
	if a.elem.Size() > 0 {
		a.count = len(b) / a.elem.Size()
	}
}

func (a *Array) Byte(i int) byte { return a.data[i] }
func (a *Array) SetByte(i int, v byte) { a.data[i] = v }

func (a *Array) Int32(i int) int32 {
	return int32(binary.LittleEndian.Uint32(a.data[i*4:]))
}
func (a *Array) SetInt32(i int, v int32) {
	binary.LittleEndian.PutUint32(a.data[i*4:], uint32(v))
}

func (a *Array) Int64(i int) int64 {
	return int64(binary.LittleEndian.Uint64(a.data[i*8:]))
}
func (a *Array) SetInt64(i int, v int64) {
	binary.LittleEndian.PutUint64(a.data[i*8:], uint64(v))
}

func (a *Array) Float32(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(a.data[i*4:]))
}
func (a *Array) SetFloat32(i int, v float32) {
	binary.LittleEndian.PutUint32(a.data[i*4:], math.Float32bits(v))
}

func (a *Array) Float64(i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(a.data[i*8:]))
}
func (a *Array) SetFloat64(i int, v float64) {
	binary.LittleEndian.PutUint64(a.data[i*8:], math.Float64bits(v))
}

// Vec3Float32 returns the i-th 3-vector of float32 components.
func (a *Array) Vec3Float32(i int) [3]float32 {
	off := i * 12
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(a.data[off:])),
		math.Float32frombits(binary.LittleEndian.Uint32(a.data[off+4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(a.data[off+8:])),
	}
}

func (a *Array) SetVec3Float32(i int, v [3]float32) {
	off := i * 12
	binary.LittleEndian.PutUint32(a.data[off:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(a.data[off+4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(a.data[off+8:], math.Float32bits(v[2]))
}
