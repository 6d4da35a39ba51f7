package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMul4Identity(t *testing.T) {
	var id, out [16]float32
	Identity(id[:])

	a := [16]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	Mul4(out[:], a[:], id[:])
	assert.Equal(t, a, out)

	Mul4(out[:], id[:], a[:])
	assert.Equal(t, a, out)
}

func TestMul4InPlace(t *testing.T) {
	a := [16]float32{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}
	b := a
	// Writing into an operand must not corrupt the multiplication.
	Mul4(a[:], a[:], b[:])
	assert.Equal(t, float32(4), a[0])
	assert.Equal(t, float32(4), a[10])
	assert.Equal(t, float32(1), a[15])
}

func TestForwardYawPiLooksDownNegativeX(t *testing.T) {
	f := Forward(0, float32(math.Pi))
	assert.InDelta(t, -1, float64(f[0]), 1e-6)
	assert.InDelta(t, 0, float64(f[1]), 1e-6)
	assert.InDelta(t, 0, float64(f[2]), 1e-6)

	// Positive pitch tilts up.
	up := Forward(0.5, float32(math.Pi))
	assert.Greater(t, up[1], float32(0))
}

func TestLookToTransformsEyeToOrigin(t *testing.T) {
	var view [16]float32
	eye := [3]float32{1, 2, 3}
	LookTo(view[:], eye, [3]float32{0, 0, -1}, [3]float32{0, 1, 0})

	// The eye position maps to the view-space origin.
	x := view[0]*eye[0] + view[4]*eye[1] + view[8]*eye[2] + view[12]
	y := view[1]*eye[0] + view[5]*eye[1] + view[9]*eye[2] + view[13]
	z := view[2]*eye[0] + view[6]*eye[1] + view[10]*eye[2] + view[14]
	assert.InDelta(t, 0, float64(x), 1e-5)
	assert.InDelta(t, 0, float64(y), 1e-5)
	assert.InDelta(t, 0, float64(z), 1e-5)
}

func TestPerspectiveDepthRangeAfterCorrection(t *testing.T) {
	var proj, vp [16]float32
	near, far := float32(0.1), float32(100)
	Perspective(proj[:], float32(math.Pi/4), 16.0/9.0, near, far)
	Mul4(vp[:], OpenGLToWGPU[:], proj[:])

	project := func(z float32) float32 {
		clipZ := vp[2]*0 + vp[6]*0 + vp[10]*z + vp[14]
		clipW := vp[3]*0 + vp[7]*0 + vp[11]*z + vp[15]
		return clipZ / clipW
	}

	// A point on the near plane (view-space z = -near) maps to depth 0,
	// the far plane to depth 1.
	assert.InDelta(t, 0, float64(project(-near)), 1e-5)
	assert.InDelta(t, 1, float64(project(-far)), 1e-4)
}

func TestTransformMatrixRoundTrip(t *testing.T) {
	tr := IdentityTransform()
	m := tr.Matrix()

	var id [16]float32
	Identity(id[:])
	for i := range m {
		assert.InDelta(t, float64(id[i]), float64(m[i]), 1e-6)
	}

	moved := tr.Offset([3]float32{1, 2, 3})
	mm := moved.Matrix()
	assert.InDelta(t, 1, float64(mm[12]), 1e-6)
	assert.InDelta(t, 2, float64(mm[13]), 1e-6)
	assert.InDelta(t, 3, float64(mm[14]), 1e-6)

	// Offset by zero is the identity on the transform.
	assert.Equal(t, tr, tr.Offset([3]float32{}))
}

func TestMarshalMatrixIsLittleEndian64Bytes(t *testing.T) {
	data := IdentityTransform().MarshalMatrix()
	require.Len(t, data, 64)

	// First column starts with 1.0 = 0x3F800000 little-endian.
	assert.Equal(t, []byte{0, 0, 0x80, 0x3F}, data[:4])
}

func TestHasherFloatBitDecomposition(t *testing.T) {
	h1 := NewHasher()
	h1.WriteFloat32(1.5)
	h2 := NewHasher()
	h2.WriteFloat32(1.5)
	assert.Equal(t, h1.Sum64(), h2.Sum64())

	h3 := NewHasher()
	h3.WriteFloat32(1.5000001)
	assert.NotEqual(t, h1.Sum64(), h3.Sum64())

	// Signed zero has a distinct bit pattern.
	hPos := NewHasher()
	hPos.WriteFloat32(0)
	hNeg := NewHasher()
	hNeg.WriteFloat32(float32(math.Copysign(0, -1)))
	assert.NotEqual(t, hPos.Sum64(), hNeg.Sum64())
}

func TestHasherRejectsNaN(t *testing.T) {
	h := NewHasher()
	assert.Panics(t, func() { h.WriteFloat32(float32(math.NaN())) })
}

func TestHasherLengthPrefixPreventsAliasing(t *testing.T) {
	h1 := NewHasher()
	h1.WriteString("ab")
	h1.WriteString("c")

	h2 := NewHasher()
	h2.WriteString("a")
	h2.WriteString("bc")

	assert.NotEqual(t, h1.Sum64(), h2.Sum64())
}

func TestFloat16RoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, 2, 65504, 1.0 / 1024, -0.25}
	for _, v := range values {
		got := Float16frombits(Float16bits(v))
		assert.Equal(t, v, got, "value %v", v)
	}

	// Overflow clamps to infinity.
	inf := Float16frombits(Float16bits(1e10))
	assert.True(t, math.IsInf(float64(inf), 1))
}

func TestFloat16Subnormals(t *testing.T) {
	// Smallest positive half subnormal is 2^-24.
	tiny := float32(math.Ldexp(1, -24))
	assert.Equal(t, tiny, Float16frombits(Float16bits(tiny)))
}

func TestQuaternionFromAxisAngle(t *testing.T) {
	// 90° about Y rotates +X to -Z.
	q := QuaternionFromAxisAngle([3]float32{0, 1, 0}, float32(math.Pi/2))
	tr := IdentityTransform()
	tr.Rotation = q
	m := tr.Matrix()

	// Column 0 is the image of the X basis vector.
	assert.InDelta(t, 0, float64(m[0]), 1e-6)
	assert.InDelta(t, 0, float64(m[1]), 1e-6)
	assert.InDelta(t, -1, float64(m[2]), 1e-6)
}
