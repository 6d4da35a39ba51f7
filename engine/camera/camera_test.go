package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readF32(data []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[index*4:]))
}

func TestUniformBytesLayout(t *testing.T) {
	desc := descriptor.DefaultCamera(16.0 / 9.0)
	desc.Position = [3]float32{1, 2, 3}

	data := UniformBytes(desc)
	require.Len(t, data, 80)

	// Floats 16..18 hold the eye position, 19 the gamma.
	assert.Equal(t, float32(1), readF32(data, 16))
	assert.Equal(t, float32(2), readF32(data, 17))
	assert.Equal(t, float32(3), readF32(data, 18))
	assert.InDelta(t, 2.2, float64(readF32(data, 19)), 1e-6)
}

func TestUniformViewProjectionDepthRange(t *testing.T) {
	desc := descriptor.DefaultCamera(1)
	data := UniformBytes(desc)

	var vp [16]float32
	for i := range vp {
		vp[i] = readF32(data, i)
	}

	// The default camera at the origin with yaw π looks down −X; a point
	// on the near plane projects to depth 0, one on the far plane to 1.
	project := func(p [3]float32) float32 {
		z := vp[2]*p[0] + vp[6]*p[1] + vp[10]*p[2] + vp[14]
		w := vp[3]*p[0] + vp[7]*p[1] + vp[11]*p[2] + vp[15]
		return z / w
	}
	assert.InDelta(t, 0, float64(project([3]float32{-desc.Near, 0, 0})), 1e-5)
	assert.InDelta(t, 1, float64(project([3]float32{-desc.Far, 0, 0})), 1e-4)
}

func TestUniformCenterProjectsToOrigin(t *testing.T) {
	desc := descriptor.DefaultCamera(1)
	desc.Position = [3]float32{5, 0, 0}
	data := UniformBytes(desc)

	var vp [16]float32
	for i := range vp {
		vp[i] = readF32(data, i)
	}

	// A point straight ahead of the eye lands on the view axis: x = y = 0.
	fwd := common.Forward(desc.Pitch, desc.Yaw)
	p := [3]float32{
		desc.Position[0] + fwd[0]*10,
		desc.Position[1] + fwd[1]*10,
		desc.Position[2] + fwd[2]*10,
	}
	x := vp[0]*p[0] + vp[4]*p[1] + vp[8]*p[2] + vp[12]
	y := vp[1]*p[0] + vp[5]*p[1] + vp[9]*p[2] + vp[13]
	w := vp[3]*p[0] + vp[7]*p[1] + vp[11]*p[2] + vp[15]
	assert.InDelta(t, 0, float64(x/w), 1e-5)
	assert.InDelta(t, 0, float64(y/w), 1e-5)
}
