package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexBufferLayoutMatchesPackedVertex(t *testing.T) {
	layout := vertexBufferLayout()
	assert.Equal(t, uint64(descriptor.VertexStride), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	require.Len(t, layout.Attributes, 5)

	// Offsets walk pos/normal/tangent/bitangent/uv without gaps.
	wantOffsets := []uint64{0, 12, 24, 36, 48}
	for i, attr := range layout.Attributes {
		assert.Equal(t, wantOffsets[i], attr.Offset)
		assert.Equal(t, uint32(i), attr.ShaderLocation)
	}
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout.Attributes[4].Format)
}

func TestInstanceBufferLayoutIsFourVec4Columns(t *testing.T) {
	layout := instanceBufferLayout()
	assert.Equal(t, uint64(64), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layout.StepMode)
	require.Len(t, layout.Attributes, 4)

	for i, attr := range layout.Attributes {
		assert.Equal(t, wgpu.VertexFormatFloat32x4, attr.Format)
		assert.Equal(t, uint64(i*16), attr.Offset)
		assert.Equal(t, uint32(5+i), attr.ShaderLocation)
	}
}

func TestNewRejectsNonFillPolygonMode(t *testing.T) {
	desc := descriptor.DefaultPipeline(descriptor.InlineShader("wire", "fn f() {}", nil))
	desc.PolygonMode = descriptor.PolygonModeLine

	_, err := New(nil, desc, wgpu.TextureFormatBGRA8UnormSrgb, nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill polygon mode")
}

func TestNewRejectsShaderWithoutRenderEntryPoints(t *testing.T) {
	desc := descriptor.DefaultPipeline(descriptor.InlineShader("compute_only", "@compute @workgroup_size(1)\nfn main() {}", nil))

	_, err := New(nil, desc, wgpu.TextureFormatBGRA8UnormSrgb, nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry points")
}
