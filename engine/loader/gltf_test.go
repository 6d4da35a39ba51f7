package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBuffer packs positions, UVs and u16 indices for a unit triangle in
// the XY plane into one binary buffer laid out back to back.
func triangleBuffer(t *testing.T, uvs [3][2]float32) (string, int) {
	t.Helper()

	var buf bytes.Buffer
	positions := [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, positions))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uvs))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 2}))

	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return uri, buf.Len()
}

// writeTriangleGLTF writes a single-mesh document: a triangle without
// authored normals or tangents, one material, and the given scene roots and
// node list.
func writeTriangleGLTF(t *testing.T, uvs [3][2]float32, rootsJSON, nodesJSON, materialJSON string) string {
	t.Helper()

	uri, byteLength := triangleBuffer(t, uvs)
	doc := fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": %s}],
		"nodes": %s,
		"meshes": [{
			"name": "tri",
			"primitives": [{
				"attributes": {"POSITION": 0, "TEXCOORD_0": 1},
				"indices": 2,
				"material": 0
			}]
		}],
		"materials": [%s],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC2"},
			{"bufferView": 2, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 24},
			{"buffer": 0, "byteOffset": 60, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": %d}]
	}`, rootsJSON, nodesJSON, materialJSON, uri, byteLength)

	path := filepath.Join(t.TempDir(), "tri.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadModelsGeneratesNormalsAndTangents(t *testing.T) {
	path := writeTriangleGLTF(t,
		[3][2]float32{{0, 0}, {1, 0}, {0, 1}},
		`[0]`,
		`[{"mesh": 0, "translation": [1, 2, 3]}]`,
		`{"name": "plain"}`)

	models, err := NewImporter().LoadModels(path)
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "tri", m.Label)
	require.Len(t, m.Mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, m.Mesh.Indices)

	for _, v := range m.Mesh.Vertices {
		assert.InDelta(t, 0, v.Normal[0], 1e-5)
		assert.InDelta(t, 0, v.Normal[1], 1e-5)
		assert.InDelta(t, 1, v.Normal[2], 1e-5)

		assert.InDelta(t, 1, v.Tangent[0], 1e-5)
		assert.InDelta(t, 0, v.Tangent[1], 1e-5)
		assert.InDelta(t, 0, v.Tangent[2], 1e-5)

		assert.InDelta(t, 0, v.Bitangent[0], 1e-5)
		assert.InDelta(t, 1, v.Bitangent[1], 1e-5)
		assert.InDelta(t, 0, v.Bitangent[2], 1e-5)
	}

	require.Len(t, m.Transforms, 1)
	assert.Equal(t, [3]float32{1, 2, 3}, m.Transforms[0].Position)
}

func TestLoadModelsFlippedUVHandedness(t *testing.T) {
	path := writeTriangleGLTF(t,
		[3][2]float32{{0, 0}, {1, 0}, {0, -1}},
		`[0]`,
		`[{"mesh": 0}]`,
		`{"name": "plain"}`)

	models, err := NewImporter().LoadModels(path)
	require.NoError(t, err)
	require.Len(t, models, 1)

	// The v axis is mirrored, so the bitangent must oppose normal x tangent.
	v := models[0].Mesh.Vertices[0]
	assert.InDelta(t, -1, v.Bitangent[1], 1e-5)
}

func TestLoadModelsSharedMeshBecomesInstances(t *testing.T) {
	path := writeTriangleGLTF(t,
		[3][2]float32{{0, 0}, {1, 0}, {0, 1}},
		`[0, 1]`,
		`[{"mesh": 0, "translation": [5, 0, 0]}, {"mesh": 0, "translation": [-5, 0, 0]}]`,
		`{"name": "plain"}`)

	models, err := NewImporter().LoadModels(path)
	require.NoError(t, err)
	require.Len(t, models, 1)

	transforms := models[0].Transforms
	require.Len(t, transforms, 2)
	assert.Equal(t, [3]float32{5, 0, 0}, transforms[0].Position)
	assert.Equal(t, [3]float32{-5, 0, 0}, transforms[1].Position)
}

func TestLoadModelsChildNodesComposeTransforms(t *testing.T) {
	path := writeTriangleGLTF(t,
		[3][2]float32{{0, 0}, {1, 0}, {0, 1}},
		`[0]`,
		`[{"translation": [10, 0, 0], "children": [1]}, {"mesh": 0, "translation": [0, 2, 0]}]`,
		`{"name": "plain"}`)

	models, err := NewImporter().LoadModels(path)
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.Len(t, models[0].Transforms, 1)
	assert.Equal(t, [3]float32{10, 2, 0}, models[0].Transforms[0].Position)
}

func TestLoadModelsAppliesMaterialFactors(t *testing.T) {
	path := writeTriangleGLTF(t,
		[3][2]float32{{0, 0}, {1, 0}, {0, 1}},
		`[0]`,
		`[{"mesh": 0}]`,
		`{
			"name": "gold",
			"pbrMetallicRoughness": {
				"baseColorFactor": [1, 0.8, 0.3, 1],
				"metallicFactor": 0.9,
				"roughnessFactor": 0.25
			},
			"emissiveFactor": [0.5, 0.5, 0.5]
		}`)

	models, err := NewImporter().LoadModels(path)
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.Len(t, models[0].Materials, 1)

	mat := models[0].Materials[0]
	require.Equal(t, descriptor.MaterialPBR, mat.Kind)
	require.NotNil(t, mat.PBR)
	assert.Equal(t, [4]float32{1, 0.8, 0.3, 1}, mat.PBR.AlbedoFactor)
	assert.InDelta(t, 0.9, mat.PBR.MetallicFactor, 1e-6)
	assert.InDelta(t, 0.25, mat.PBR.RoughnessFactor, 1e-6)
	assert.Equal(t, [3]float32{0.5, 0.5, 0.5}, mat.PBR.EmissiveFactor)

	// A bare emissive factor gets a white stand-in map so the shader path
	// stays uniform.
	require.NotNil(t, mat.PBR.Emissive)
	assert.Equal(t, descriptor.TextureSourcePixel, mat.PBR.Emissive.Kind)
}

func TestSpawnChangesWrapsModels(t *testing.T) {
	path := writeTriangleGLTF(t,
		[3][2]float32{{0, 0}, {1, 0}, {0, 1}},
		`[0]`,
		`[{"mesh": 0}]`,
		`{"name": "plain"}`)

	changes, err := NewImporter().SpawnChanges(path)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, world.ChangeSpawnModel, changes[0].Kind)
	require.NotNil(t, changes[0].Model)
	assert.Equal(t, "tri", changes[0].Model.Label)
}

func TestSplitMetallicRoughnessChannels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	// Roughness rides the green channel, metalness the blue channel.
	img.Pix = []byte{
		0, 10, 200, 255,
		0, 60, 90, 255,
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	doc := &gltfDocument{
		Textures:    []gltfTexture{{Source: intPtr(0)}},
		Images:      []gltfImage{{BufferView: intPtr(0)}},
		BufferViews: []gltfBufferView{{Buffer: 0, ByteOffset: 0, ByteLength: encoded.Len()}},
		Buffers:     []gltfBuffer{{ByteLength: encoded.Len(), Data: encoded.Bytes()}},
	}
	e := &gltfMaterialExtractorImpl{parser: &gltfParserImpl{document: doc}}

	metallic, roughness, err := e.splitMetallicRoughness(0)
	require.NoError(t, err)

	assert.Equal(t, wgpu.TextureFormatR8Unorm, metallic.Format)
	assert.Equal(t, []byte{200, 90}, metallic.Data)
	assert.Equal(t, wgpu.TextureFormatR8Unorm, roughness.Format)
	assert.Equal(t, []byte{10, 60}, roughness.Data)
	assert.Equal(t, uint32(2), metallic.Width)
	assert.Equal(t, uint32(1), metallic.Height)
}

func TestSamplerConversion(t *testing.T) {
	magFilter := gltfFilterNearest
	minFilter := gltfFilterLinearMipmapLinear
	wrapS := gltfWrapMirroredRepeat

	s := gltfSamplerToDescriptor(&gltfSampler{
		MagFilter: &magFilter,
		MinFilter: &minFilter,
		WrapS:     &wrapS,
	})

	assert.Equal(t, wgpu.FilterModeNearest, s.MagFilter)
	assert.Equal(t, wgpu.FilterModeLinear, s.MinFilter)
	assert.Equal(t, wgpu.MipmapFilterModeLinear, s.MipmapFilter)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, s.AddressMode)

	// Unset fields take the glTF defaults.
	d := gltfSamplerToDescriptor(&gltfSampler{})
	assert.Equal(t, wgpu.FilterModeLinear, d.MagFilter)
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressMode)
}

func TestComposeTransforms(t *testing.T) {
	// Parent rotated 90 degrees about +Y carries the child's +X offset to -Z.
	s := float32(0.70710678)
	parent := common.Transform{
		Position: [3]float32{1, 0, 0},
		Rotation: [4]float32{0, s, 0, s},
		Scale:    [3]float32{2, 2, 2},
	}
	child := common.Transform{
		Position: [3]float32{1, 0, 0},
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}

	out := composeTransforms(parent, child)
	assert.InDelta(t, 1, out.Position[0], 1e-5)
	assert.InDelta(t, 0, out.Position[1], 1e-5)
	assert.InDelta(t, -2, out.Position[2], 1e-5)
	assert.Equal(t, [3]float32{2, 2, 2}, out.Scale)
	assert.InDelta(t, s, out.Rotation[1], 1e-5)
}

func TestDecomposeMatrixRoundTrip(t *testing.T) {
	s := float32(0.70710678)
	in := common.Transform{
		Position: [3]float32{3, -2, 5},
		Rotation: [4]float32{0, s, 0, s},
		Scale:    [3]float32{2, 1, 0.5},
	}

	out := decomposeMatrix(in.Matrix())

	assert.InDelta(t, in.Position[0], out.Position[0], 1e-4)
	assert.InDelta(t, in.Position[1], out.Position[1], 1e-4)
	assert.InDelta(t, in.Position[2], out.Position[2], 1e-4)
	for i := range in.Scale {
		assert.InDelta(t, in.Scale[i], out.Scale[i], 1e-4)
	}
	for i := range in.Rotation {
		assert.InDelta(t, in.Rotation[i], out.Rotation[i], 1e-4)
	}
}

func TestLoadModelsRejectsMissingFile(t *testing.T) {
	_, err := NewImporter().LoadModels(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
}

func intPtr(v int) *int {
	return &v
}
