package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessExpandsBuiltinImports(t *testing.T) {
	pp := NewPreProcessor("")

	out, err := pp.Process("#import <constants>\nfn f() -> f32 { return PI; }")
	require.NoError(t, err)
	assert.Contains(t, out, "const PI: f32")
	assert.NotContains(t, out, "#import")
}

func TestProcessExpandsNestedFileImports(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "outer.wgsl"), []byte("#import <inner>\nfn outer() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "inner.wgsl"), []byte("fn inner() {}"), 0o644))

	out, err := NewPreProcessor(root).Process("#import <outer>")
	require.NoError(t, err)
	assert.Contains(t, out, "fn inner() {}")
	assert.Contains(t, out, "fn outer() {}")
}

func TestProcessBuiltinShadowsLibraryRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "constants.wgsl"), []byte("const SHADOWED: f32 = 1.0;"), 0o644))

	out, err := NewPreProcessor(root).Process("#import <constants>")
	require.NoError(t, err)
	assert.Contains(t, out, "const PI: f32")
	assert.NotContains(t, out, "SHADOWED")
}

func TestProcessRejectsImportCycle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.wgsl"), []byte("#import <b>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.wgsl"), []byte("#import <a>"), 0o644))

	_, err := NewPreProcessor(root).Process("#import <a>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestProcessRepeatedSiblingImportIsNotACycle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared.wgsl"), []byte("fn shared() {}"), 0o644))

	_, err := NewPreProcessor(root).Process("#import <shared>\n#import <shared>")
	require.NoError(t, err)
}

func TestProcessRejectsUnknownImport(t *testing.T) {
	_, err := NewPreProcessor("").Process("#import <no_such_snippet>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_snippet")
}

func TestParseEntryPoints(t *testing.T) {
	src := `
@vertex
fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }

@fragment
fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`
	v, f, c := parseEntryPoints(src)
	assert.Equal(t, "vs_main", v)
	assert.Equal(t, "fs_main", f)
	assert.Empty(t, c)
}

func TestParseWorkgroupSize(t *testing.T) {
	src := "@compute @workgroup_size(16, 16)\nfn main() {}"
	assert.Equal(t, [3]uint32{16, 16, 1}, parseWorkgroupSize(src))

	_, _, c := parseEntryPoints(src)
	assert.Equal(t, "main", c)

	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("fn f() {}"))
}

func TestNewDerivesLayoutEntriesFromVariables(t *testing.T) {
	desc := descriptor.InlineShader("test", "@vertex\nfn vs_main() {}", []descriptor.ShaderVariable{
		{
			Kind:       descriptor.ShaderVariableSampler,
			Group:      0,
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			SamplerType: wgpu.SamplerBindingTypeFiltering,
		},
		{
			Kind:          descriptor.ShaderVariableTexture,
			Group:         0,
			Binding:       0,
			Visibility:    wgpu.ShaderStageFragment,
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
		{
			Kind:        descriptor.ShaderVariableBuffer,
			Group:       1,
			Binding:     0,
			Visibility:  wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			BufferType:  wgpu.BufferBindingTypeUniform,
			BufferBytes: 80,
		},
	})

	s, err := New(desc, "")
	require.NoError(t, err)

	groups := s.LayoutEntries()
	require.Len(t, groups, 2)

	// Group 0 sorted by binding: texture then sampler.
	require.Len(t, groups[0], 2)
	assert.Equal(t, uint32(0), groups[0][0].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, groups[0][0].Texture.SampleType)
	assert.Equal(t, uint32(1), groups[0][1].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, groups[0][1].Sampler.Type)

	require.Len(t, groups[1], 1)
	assert.Equal(t, uint64(80), groups[1][0].Buffer.MinBindingSize)
}

func TestNewRejectsNonContiguousGroups(t *testing.T) {
	desc := descriptor.InlineShader("test", "fn f() {}", []descriptor.ShaderVariable{
		{Kind: descriptor.ShaderVariableSampler, Group: 1, Binding: 0},
	})

	_, err := New(desc, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contiguous")
}

func TestNewReadsFileSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "quad.wgsl"), []byte("#import <constants>\n@vertex\nfn vs_main() {}"), 0o644))

	s, err := New(descriptor.FileShader("quad", "quad.wgsl", nil), root)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", s.VertexEntryPoint())
	assert.Contains(t, s.Source(), "const PI: f32")
	assert.Equal(t, "quad", s.Module().Label)
}
