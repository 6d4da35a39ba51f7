package descriptor

import (
	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderSourceKind discriminates where shader code comes from.
type ShaderSourceKind int

const (
	// ShaderSourceInline carries the WGSL code directly in the descriptor.
	ShaderSourceInline ShaderSourceKind = iota

	// ShaderSourceFile names a WGSL file resolved against the shader-library
	// root at realization time.
	ShaderSourceFile
)

// ShaderVariableKind classifies a declared shader resource.
type ShaderVariableKind int

const (
	// ShaderVariableTexture is a sampled texture binding.
	ShaderVariableTexture ShaderVariableKind = iota

	// ShaderVariableSampler is a sampler binding.
	ShaderVariableSampler

	// ShaderVariableBuffer is a uniform or storage buffer binding.
	ShaderVariableBuffer

	// ShaderVariableStorageTexture is a writable storage texture binding.
	ShaderVariableStorageTexture
)

// ShaderVariable declares one resource the shader expects bound. The pipeline
// realization turns the variable list into bind group layouts, grouped by
// Group and ordered by Binding within each group.
type ShaderVariable struct {
	// Kind selects which of the typed fields below are meaningful.
	Kind ShaderVariableKind

	// Group is the bind group index the resource lives in.
	Group uint32

	// Binding is the binding index within the group.
	Binding uint32

	// Visibility is the shader stages that may access the resource.
	Visibility wgpu.ShaderStage

	// SampleType applies to ShaderVariableTexture.
	SampleType wgpu.TextureSampleType

	// ViewDimension applies to ShaderVariableTexture and
	// ShaderVariableStorageTexture.
	ViewDimension wgpu.TextureViewDimension

	// SamplerType applies to ShaderVariableSampler.
	SamplerType wgpu.SamplerBindingType

	// BufferType applies to ShaderVariableBuffer.
	BufferType wgpu.BufferBindingType

	// BufferBytes is the minimum binding size for ShaderVariableBuffer.
	BufferBytes uint64

	// StorageFormat applies to ShaderVariableStorageTexture.
	StorageFormat wgpu.TextureFormat

	// StorageAccess applies to ShaderVariableStorageTexture.
	StorageAccess wgpu.StorageTextureAccess
}

// ShaderDescriptor is the pure description of a shader module: a name, its
// WGSL source, the resources it binds, and the stages it serves. Sources may
// use `#import <name>` directives, which the realization resolves recursively
// from the built-in library first and the shader-library root second.
type ShaderDescriptor struct {
	// Name identifies the shader in logs and errors.
	Name string

	// SourceKind selects between Path and Code.
	SourceKind ShaderSourceKind

	// Path is the WGSL file path for ShaderSourceFile.
	Path string

	// Code is the WGSL source for ShaderSourceInline.
	Code string

	// Variables declares every resource the shader binds.
	Variables []ShaderVariable

	// Stages is the union of stages the module is used in.
	Stages wgpu.ShaderStage
}

// InlineShader creates a descriptor around embedded WGSL source.
//
// Parameters:
//   - name: the shader's log-friendly name
//   - code: the WGSL source text
//   - variables: the declared resource bindings
//
// Returns:
//   - ShaderDescriptor: the descriptor
func InlineShader(name, code string, variables []ShaderVariable) ShaderDescriptor {
	return ShaderDescriptor{
		Name:       name,
		SourceKind: ShaderSourceInline,
		Code:       code,
		Variables:  variables,
		Stages:     wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
}

// FileShader creates a descriptor that loads WGSL from disk at realization.
//
// Parameters:
//   - name: the shader's log-friendly name
//   - path: the WGSL file path, resolved against the shader-library root
//   - variables: the declared resource bindings
//
// Returns:
//   - ShaderDescriptor: the descriptor
func FileShader(name, path string, variables []ShaderVariable) ShaderDescriptor {
	return ShaderDescriptor{
		Name:       name,
		SourceKind: ShaderSourceFile,
		Path:       path,
		Variables:  variables,
		Stages:     wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
}

func (v ShaderVariable) hashInto(h *common.Hasher) {
	h.WriteUint32(uint32(v.Kind))
	h.WriteUint32(v.Group)
	h.WriteUint32(v.Binding)
	h.WriteUint32(uint32(v.Visibility))
	h.WriteUint32(uint32(v.SampleType))
	h.WriteUint32(uint32(v.ViewDimension))
	h.WriteUint32(uint32(v.SamplerType))
	h.WriteUint32(uint32(v.BufferType))
	h.WriteUint64(v.BufferBytes)
	h.WriteUint32(uint32(v.StorageFormat))
	h.WriteUint32(uint32(v.StorageAccess))
}

func (d ShaderDescriptor) hashInto(h *common.Hasher) {
	h.WriteString(d.Name)
	h.WriteUint32(uint32(d.SourceKind))
	h.WriteString(d.Path)
	h.WriteString(d.Code)
	h.WriteUint64(uint64(len(d.Variables)))
	for _, v := range d.Variables {
		v.hashInto(h)
	}
	h.WriteUint32(uint32(d.Stages))
}

// Hash returns the cache key for the shader.
//
// Returns:
//   - uint64: the descriptor hash
func (d ShaderDescriptor) Hash() uint64 {
	h := common.NewHasher()
	d.hashInto(h)
	return h.Sum64()
}
