package common

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// Transform describes the placement of a single model instance in world
// space: translation, quaternion rotation, and per-axis scale.
type Transform struct {
	// Position is the world-space translation.
	Position [3]float32

	// Rotation is a unit quaternion in (x, y, z, w) order.
	Rotation [4]float32

	// Scale holds the per-axis scale factors.
	Scale [3]float32
}

// IdentityTransform returns a transform at the origin with no rotation and
// unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Offset returns a copy of t translated by delta. Rotation and scale are
// unchanged.
//
// Parameters:
//   - delta: the translation to add
//
// Returns:
//   - Transform: the offset transform
func (t Transform) Offset(delta [3]float32) Transform {
	t.Position[0] += delta[0]
	t.Position[1] += delta[1]
	t.Position[2] += delta[2]
	return t
}

// Matrix builds the column-major 4x4 model matrix for this transform,
// composed as translation * rotation * scale.
//
// Returns:
//   - [16]float32: the model matrix in column-major order
func (t Transform) Matrix() [16]float32 {
	x, y, z, w := t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]

	// Rotation matrix from the (normalized) quaternion.
	lenSq := x*x + y*y + z*z + w*w
	if lenSq > 0 && math32.Abs(lenSq-1) > 1e-6 {
		inv := 1.0 / math32.Sqrt(lenSq)
		x, y, z, w = x*inv, y*inv, z*inv, w*inv
	}

	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	sx, sy, sz := t.Scale[0], t.Scale[1], t.Scale[2]

	var m [16]float32
	m[0] = (1 - 2*(yy+zz)) * sx
	m[1] = 2 * (xy + wz) * sx
	m[2] = 2 * (xz - wy) * sx
	m[3] = 0

	m[4] = 2 * (xy - wz) * sy
	m[5] = (1 - 2*(xx+zz)) * sy
	m[6] = 2 * (yz + wx) * sy
	m[7] = 0

	m[8] = 2 * (xz + wy) * sz
	m[9] = 2 * (yz - wx) * sz
	m[10] = (1 - 2*(xx+yy)) * sz
	m[11] = 0

	m[12] = t.Position[0]
	m[13] = t.Position[1]
	m[14] = t.Position[2]
	m[15] = 1
	return m
}

// MarshalMatrix serializes the transform's model matrix into a 64-byte
// little-endian buffer in column-major order, suitable for the per-instance
// vertex buffer. The byte layout is explicit rather than a raw memory view so
// it is stable across platforms.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (t Transform) MarshalMatrix() []byte {
	m := t.Matrix()
	buf := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// QuaternionFromAxisAngle builds a unit quaternion rotating angle radians
// around the given axis.
//
// Parameters:
//   - axis: the rotation axis (does not need to be normalized)
//   - angle: the rotation angle in radians
//
// Returns:
//   - [4]float32: the quaternion in (x, y, z, w) order
func QuaternionFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	n := Normalize3(axis)
	s := math32.Sin(angle / 2)
	return [4]float32{n[0] * s, n[1] * s, n[2] * s, math32.Cos(angle / 2)}
}
