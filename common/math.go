package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// OpenGLToWGPU is the clip-space correction matrix mapping OpenGL-style
// Z in [-1, 1] to the WebGPU depth range [0, 1]. Column-major: diagonal
// (1, 1, 0.5, 1) with a Z translation of 0.5.
var OpenGLToWGPU = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Perspective creates a right-handed perspective projection matrix with the
// OpenGL clip-space convention (Z in [-1, 1]). Combine with OpenGLToWGPU for
// WebGPU's [0, 1] depth range.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / math32.Tan(fovY/2.0)
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = (far + near) / (near - far)
	out[11] = -1.0
	out[14] = (2 * near * far) / (near - far)
	out[15] = 0.0
}

// Forward computes the unit view direction for the given pitch and yaw:
// (cos(pitch)·cos(yaw), sin(pitch), cos(pitch)·sin(yaw)).
//
// Parameters:
//   - pitch: rotation around the X axis in radians
//   - yaw: rotation around the Y axis in radians
//
// Returns:
//   - [3]float32: the normalized forward vector
func Forward(pitch, yaw float32) [3]float32 {
	cp := math32.Cos(pitch)
	return Normalize3([3]float32{
		cp * math32.Cos(yaw),
		math32.Sin(pitch),
		cp * math32.Sin(yaw),
	})
}

// Normalize3 returns the unit-length copy of v, or v unchanged if its length
// is zero.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - [3]float32: the normalized vector
func Normalize3(v [3]float32) [3]float32 {
	lenSq := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	if lenSq == 0 {
		return v
	}
	inv := 1.0 / math32.Sqrt(lenSq)
	return [3]float32{v[0] * inv, v[1] * inv, v[2] * inv}
}

// Cross3 computes the cross product a × b.
//
// Parameters:
//   - a: left operand
//   - b: right operand
//
// Returns:
//   - [3]float32: the cross product
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// LookTo creates a right-handed view matrix for a camera at eye looking along
// dir with the given up vector. The resulting matrix transforms world
// coordinates to view space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eye: camera position in world space
//   - dir: view direction (does not need to be normalized)
//   - up: up vector defining camera orientation (typically 0,1,0)
func LookTo(out []float32, eye, dir, up [3]float32) {
	f := Normalize3(dir)
	s := Normalize3(Cross3(f, up))
	u := Cross3(s, f)

	out[0], out[4], out[8], out[12] = s[0], s[1], s[2], -(s[0]*eye[0] + s[1]*eye[1] + s[2]*eye[2])
	out[1], out[5], out[9], out[13] = u[0], u[1], u[2], -(u[0]*eye[0] + u[1]*eye[1] + u[2]*eye[2])
	out[2], out[6], out[10], out[14] = -f[0], -f[1], -f[2], f[0]*eye[0]+f[1]*eye[1]+f[2]*eye[2]
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}
