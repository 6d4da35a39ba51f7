package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readF32(data []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[index*4:]))
}

func TestFactorBytesLayout(t *testing.T) {
	p := &descriptor.PBRMaterialDescriptor{
		AlbedoFactor:    [4]float32{0.1, 0.2, 0.3, 0.4},
		MetallicFactor:  0.5,
		RoughnessFactor: 0.6,
		OcclusionFactor: 0.7,
		EmissiveFactor:  [3]float32{0.8, 0.9, 1.0},
	}

	data := FactorBytes(p)
	require.Len(t, data, FactorUniformSize)

	assert.Equal(t, float32(0.1), readF32(data, 0))
	assert.Equal(t, float32(0.4), readF32(data, 3))
	assert.Equal(t, float32(0.5), readF32(data, 4))
	assert.Equal(t, float32(0.6), readF32(data, 5))
	assert.Equal(t, float32(0.7), readF32(data, 6))
	assert.Zero(t, readF32(data, 7))
	assert.Equal(t, float32(0.8), readF32(data, 8))
	assert.Equal(t, float32(1.0), readF32(data, 10))
	assert.Zero(t, readF32(data, 11))
}

func TestPBRShaderRealizes(t *testing.T) {
	sh, err := shader.New(PBRShaderDescriptor(), "")
	require.NoError(t, err)

	assert.Equal(t, "vs_main", sh.VertexEntryPoint())
	assert.Equal(t, "fs_main", sh.FragmentEntryPoint())
	assert.Empty(t, sh.ComputeEntryPoint())

	groups := sh.LayoutEntries()
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 8)
	assert.Len(t, groups[1], 4)

	// Imports expanded, none left behind.
	assert.NotContains(t, sh.Source(), "#import")
	assert.Contains(t, sh.Source(), "struct CameraUniform")
	assert.Contains(t, sh.Source(), "fn distribution_ggx")
}

func TestSkyboxShaderRealizes(t *testing.T) {
	sh, err := shader.New(SkyboxShaderDescriptor(), "")
	require.NoError(t, err)

	assert.Equal(t, "vs_main", sh.VertexEntryPoint())
	assert.Equal(t, "fs_main", sh.FragmentEntryPoint())

	groups := sh.LayoutEntries()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)

	assert.Contains(t, sh.Source(), "fn inverse_mat4")
}

func TestPBRPipelineDescriptorShape(t *testing.T) {
	desc := PBRPipelineDescriptor()
	assert.True(t, desc.DepthStencil)
	assert.True(t, desc.IncludeVertexLayout)
	assert.True(t, desc.IncludeInstanceLayout)
	assert.True(t, desc.IncludeCameraLayout)
	assert.True(t, desc.IncludeLightLayout)
}

func TestSkyboxPipelineDescriptorShape(t *testing.T) {
	desc := SkyboxPipelineDescriptor()
	assert.False(t, desc.DepthStencil)
	assert.False(t, desc.IncludeVertexLayout)
	assert.False(t, desc.IncludeInstanceLayout)
	assert.True(t, desc.IncludeCameraLayout)
	assert.False(t, desc.IncludeLightLayout)
}

func TestPipelineDescriptorsHashDistinct(t *testing.T) {
	assert.NotEqual(t, PBRPipelineDescriptor().Hash(), SkyboxPipelineDescriptor().Hash())
	// Stable across calls so cache keys hold.
	assert.Equal(t, PBRPipelineDescriptor().Hash(), PBRPipelineDescriptor().Hash())
}
