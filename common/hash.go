package common

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Hasher accumulates descriptor fields into a deterministic 64-bit hash.
// Float fields are folded in via their raw IEEE-754 bit patterns so that
// bit-equal values always produce equal keys; NaN is rejected because it
// would make descriptor equality unsound as a cache key.
type Hasher struct {
	h interface {
		Write(p []byte) (int, error)
		Sum64() uint64
	}
	buf [8]byte
}

// NewHasher creates a Hasher backed by FNV-1a.
//
// Returns:
//   - *Hasher: the new hasher
func NewHasher() *Hasher {
	return &Hasher{h: fnv.New64a()}
}

// WriteBytes folds a raw byte slice, prefixed by its length so adjacent
// variable-length fields cannot alias each other.
//
// Parameters:
//   - p: the bytes to fold in
func (hs *Hasher) WriteBytes(p []byte) {
	hs.WriteUint64(uint64(len(p)))
	hs.h.Write(p)
}

// WriteString folds a string, length-prefixed.
//
// Parameters:
//   - s: the string to fold in
func (hs *Hasher) WriteString(s string) {
	hs.WriteBytes([]byte(s))
}

// WriteUint32 folds a uint32 little-endian.
//
// Parameters:
//   - v: the value to fold in
func (hs *Hasher) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(hs.buf[:4], v)
	hs.h.Write(hs.buf[:4])
}

// WriteUint64 folds a uint64 little-endian.
//
// Parameters:
//   - v: the value to fold in
func (hs *Hasher) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(hs.buf[:8], v)
	hs.h.Write(hs.buf[:8])
}

// WriteBool folds a boolean as a single byte.
//
// Parameters:
//   - v: the value to fold in
func (hs *Hasher) WriteBool(v bool) {
	if v {
		hs.h.Write([]byte{1})
	} else {
		hs.h.Write([]byte{0})
	}
}

// WriteFloat32 folds a float32 via its raw bit pattern. Panics on NaN:
// NaN descriptors must never reach a cache key.
//
// Parameters:
//   - v: the value to fold in
func (hs *Hasher) WriteFloat32(v float32) {
	if v != v {
		panic("common: NaN is not a valid descriptor field")
	}
	hs.WriteUint32(math.Float32bits(v))
}

// WriteFloat32s folds a slice of float32 values, length-prefixed.
//
// Parameters:
//   - vs: the values to fold in
func (hs *Hasher) WriteFloat32s(vs []float32) {
	hs.WriteUint64(uint64(len(vs)))
	for _, v := range vs {
		hs.WriteFloat32(v)
	}
}

// Sum64 returns the accumulated hash.
//
// Returns:
//   - uint64: the 64-bit hash of everything written so far
func (hs *Hasher) Sum64() uint64 {
	return hs.h.Sum64()
}
