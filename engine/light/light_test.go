package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readF32(data []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[index*4:]))
}

func TestPackLightsEmptyYieldsDummyRecord(t *testing.T) {
	data := PackLights(nil)
	require.Len(t, data, 64)
	for _, b := range data {
		assert.Zero(t, b)
	}
}

func TestPackLightsRecordLayout(t *testing.T) {
	spot := descriptor.SpotLight(
		"lamp",
		[3]float32{1, 2, 3},
		[3]float32{0, -1, 0},
		[3]float32{0.5, 0.25, 0.125},
		7, 0.2, 0.4,
	)

	data := PackLights([]descriptor.LightDescriptor{spot})
	require.Len(t, data, 64)

	// vec4(position, 0)
	assert.Equal(t, float32(1), readF32(data, 0))
	assert.Equal(t, float32(3), readF32(data, 2))
	assert.Zero(t, readF32(data, 3))

	// vec4(color, 0)
	assert.Equal(t, float32(0.5), readF32(data, 4))
	assert.Zero(t, readF32(data, 7))

	// vec4(direction, 0)
	assert.Equal(t, float32(-1), readF32(data, 9))

	// vec4(intensity, type id, inner cone, outer cone)
	assert.Equal(t, float32(7), readF32(data, 12))
	assert.Equal(t, float32(2), readF32(data, 13))
	assert.Equal(t, float32(0.2), readF32(data, 14))
	assert.Equal(t, float32(0.4), readF32(data, 15))
}

func TestPackLightsTypeIDs(t *testing.T) {
	lights := []descriptor.LightDescriptor{
		descriptor.PointLight("p", [3]float32{}, [3]float32{1, 1, 1}, 1),
		descriptor.DirectionalLight("d", [3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1),
	}

	data := PackLights(lights)
	require.Len(t, data, 128)
	assert.Equal(t, float32(0), readF32(data, 13))
	assert.Equal(t, float32(1), readF32(data, 16+13))
}
