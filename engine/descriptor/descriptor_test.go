package descriptor

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureHashCoversTexelData(t *testing.T) {
	a := TextureFromBytes([]byte{1, 2, 3, 4}, 1, 1, 0)
	b := TextureFromBytes([]byte{1, 2, 3, 4}, 1, 1, 0)
	c := TextureFromBytes([]byte{1, 2, 3, 5}, 1, 1, 0)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestModelHashIgnoresTransformMapOrder(t *testing.T) {
	mesh := NewMesh([]Vertex{{Position: [3]float32{1, 0, 0}}}, []uint32{0})

	t1 := common.IdentityTransform()
	t2 := common.IdentityTransform().Offset([3]float32{1, 2, 3})

	a := NewModel("crate", mesh, DefaultPBRMaterial())
	a.Transforms = map[uint64]common.Transform{1: t1, 2: t2}

	b := NewModel("crate", mesh, DefaultPBRMaterial())
	b.Transforms = map[uint64]common.Transform{2: t2, 1: t1}

	assert.Equal(t, a.Hash(), b.Hash())

	b.Transforms[2] = t2.Offset([3]float32{0, 0, 1})
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestInstanceBytesPackInAscendingIDOrder(t *testing.T) {
	mesh := NewMesh(nil, nil)
	m := NewModel("crate", mesh)
	m.Transforms = map[uint64]common.Transform{
		7: common.IdentityTransform().Offset([3]float32{7, 0, 0}),
		3: common.IdentityTransform().Offset([3]float32{3, 0, 0}),
	}

	assert.Equal(t, []uint64{3, 7}, m.InstanceIDs())

	data := m.InstanceBytes()
	require.Len(t, data, 128)
	assert.Equal(t, m.Transforms[3].MarshalMatrix(), data[:64])
	assert.Equal(t, m.Transforms[7].MarshalMatrix(), data[64:])
}

func TestMeshDerivesZeroBitangents(t *testing.T) {
	authored := [3]float32{9, 9, 9}
	m := NewMesh([]Vertex{
		{Normal: [3]float32{0, 1, 0}, Tangent: [3]float32{1, 0, 0}},
		{Normal: [3]float32{0, 1, 0}, Tangent: [3]float32{1, 0, 0}, Bitangent: authored},
	}, []uint32{0, 1, 0})

	assert.Equal(t, [3]float32{0, 0, -1}, m.Vertices[0].Bitangent)
	assert.Equal(t, authored, m.Vertices[1].Bitangent)
}

func TestVertexBytesUseFixedStride(t *testing.T) {
	m := NewMesh([]Vertex{
		{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 1, 0}, Tangent: [3]float32{1, 0, 0}, UV: [2]float32{0.5, 0.25}},
		{},
	}, []uint32{0, 1, 0})

	data := m.VertexBytes()
	assert.Len(t, data, 2*VertexStride)

	idx := m.IndexBytes()
	require.Len(t, idx, 12)
	assert.Equal(t, []byte{1, 0, 0, 0}, idx[4:8])
}

func TestMeshBoundingBox(t *testing.T) {
	m := MeshDescriptor{Vertices: []Vertex{
		{Position: [3]float32{-1, 5, 0}},
		{Position: [3]float32{2, -3, 1}},
	}}

	box := m.BoundingBox()
	assert.Equal(t, [3]float32{-1, -3, 0}, box.Min)
	assert.Equal(t, [3]float32{2, 5, 1}, box.Max)

	assert.Equal(t, BoundingBox{}, MeshDescriptor{}.BoundingBox())
}

func TestDefaultCamera(t *testing.T) {
	c := DefaultCamera(16.0 / 9.0)

	assert.Equal(t, DefaultCameraLabel, c.Label)
	assert.Equal(t, [3]float32{0, 0, 0}, c.Position)
	assert.InDelta(t, math.Pi, float64(c.Yaw), 1e-6)
	assert.Zero(t, c.Pitch)
	assert.InDelta(t, 2.2, float64(c.GlobalGamma), 1e-6)

	// Forward is (cos pitch·cos yaw, sin pitch, cos pitch·sin yaw), so
	// yaw π looks down −X.
	fwd := c.Forward()
	assert.InDelta(t, -1, float64(fwd[0]), 1e-6)
	assert.InDelta(t, 0, float64(fwd[1]), 1e-6)
	assert.InDelta(t, 0, float64(fwd[2]), 1e-6)
}

func TestClampPitch(t *testing.T) {
	c := DefaultCamera(1)

	c.Pitch = 2
	c.ClampPitch()
	assert.Equal(t, SafeFracPi2, c.Pitch)

	c.Pitch = -2
	c.ClampPitch()
	assert.Equal(t, -SafeFracPi2, c.Pitch)

	c.Pitch = 0.5
	c.ClampPitch()
	assert.Equal(t, float32(0.5), c.Pitch)
}

func TestNaNDescriptorPanics(t *testing.T) {
	c := DefaultCamera(1)
	c.Yaw = float32(math.NaN())

	assert.Panics(t, func() { c.Hash() })
}

func TestLightTypeIDs(t *testing.T) {
	assert.Equal(t, uint32(0), uint32(LightPoint))
	assert.Equal(t, uint32(1), uint32(LightDirectional))
	assert.Equal(t, uint32(2), uint32(LightSpot))
}

func TestEnvironmentHashExcludesSkyboxDisplayFields(t *testing.T) {
	a := EnvironmentFromFile("studio.hdr", 1024)
	b := a
	b.Skybox = SkyboxSpecular
	b.SkyboxMip = 3

	assert.Equal(t, a.Hash(), b.Hash())

	c := a
	c.FaceSize = 512
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestMaterialVariantsHashDistinctly(t *testing.T) {
	pbr := DefaultPBRMaterial()
	sky := SkyboxMaterial(CubeFromFile("studio.hdr", 512))

	assert.NotEqual(t, pbr.Hash(), sky.Hash())
	assert.Equal(t, pbr.Hash(), DefaultPBRMaterial().Hash())
}

func TestPipelineHashCoversShaderAndState(t *testing.T) {
	sh := InlineShader("pbr", "fn main() {}", nil)
	a := DefaultPipeline(sh)
	b := DefaultPipeline(sh)
	assert.Equal(t, a.Hash(), b.Hash())

	b.DepthStencil = false
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := DefaultPipeline(InlineShader("pbr", "fn main() { return; }", nil))
	assert.NotEqual(t, a.Hash(), c.Hash())
}
