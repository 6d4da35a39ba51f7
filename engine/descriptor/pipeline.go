package descriptor

import (
	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// PolygonMode selects how primitives are rasterized. WebGPU only rasterizes
// filled triangles, so the realization rejects anything but PolygonModeFill;
// the field exists so descriptors can round-trip authored content that names
// a wireframe mode and fail loudly at realization instead of silently.
type PolygonMode int

const (
	// PolygonModeFill rasterizes filled primitives.
	PolygonModeFill PolygonMode = iota

	// PolygonModeLine would rasterize edges only. Unsupported at realization.
	PolygonModeLine

	// PolygonModePoint would rasterize vertices only. Unsupported at
	// realization.
	PolygonModePoint
)

// PipelineDescriptor is the pure description of a render pipeline. Realized
// pipelines are keyed on its hash together with the surface format, so a
// format change reworks every cached pipeline without touching descriptors.
type PipelineDescriptor struct {
	// Shader is the shader compiled into the pipeline. Its Variables drive
	// bind group layout creation.
	Shader ShaderDescriptor

	// Topology is the primitive topology.
	Topology wgpu.PrimitiveTopology

	// FrontFace is the winding order treated as front-facing.
	FrontFace wgpu.FrontFace

	// CullMode selects which faces are culled.
	CullMode wgpu.CullMode

	// PolygonMode must be PolygonModeFill for a successful realization.
	PolygonMode PolygonMode

	// DepthStencil enables the Depth32Float less-compare write-enabled depth
	// attachment state.
	DepthStencil bool

	// IncludeVertexLayout adds the 56-byte mesh vertex buffer layout at
	// slot 0.
	IncludeVertexLayout bool

	// IncludeInstanceLayout adds the per-instance model-matrix buffer layout
	// (four vec4 attributes, step-mode instance) at slot 1.
	IncludeInstanceLayout bool

	// IncludeCameraLayout appends the shared camera uniform bind group
	// layout after the shader's own groups.
	IncludeCameraLayout bool

	// IncludeLightLayout appends the shared light storage bind group layout
	// after the camera layout.
	IncludeLightLayout bool
}

// DefaultPipeline creates the descriptor used by the built-in PBR path:
// triangle list, counter-clockwise front faces, back-face culling, depth
// testing, and all shared layouts included.
//
// Parameters:
//   - shader: the shader to compile into the pipeline
//
// Returns:
//   - PipelineDescriptor: the descriptor
func DefaultPipeline(shader ShaderDescriptor) PipelineDescriptor {
	return PipelineDescriptor{
		Shader:                shader,
		Topology:              wgpu.PrimitiveTopologyTriangleList,
		FrontFace:             wgpu.FrontFaceCCW,
		CullMode:              wgpu.CullModeBack,
		PolygonMode:           PolygonModeFill,
		DepthStencil:          true,
		IncludeVertexLayout:   true,
		IncludeInstanceLayout: true,
		IncludeCameraLayout:   true,
		IncludeLightLayout:    true,
	}
}

func (d PipelineDescriptor) hashInto(h *common.Hasher) {
	d.Shader.hashInto(h)
	h.WriteUint32(uint32(d.Topology))
	h.WriteUint32(uint32(d.FrontFace))
	h.WriteUint32(uint32(d.CullMode))
	h.WriteUint32(uint32(d.PolygonMode))
	h.WriteBool(d.DepthStencil)
	h.WriteBool(d.IncludeVertexLayout)
	h.WriteBool(d.IncludeInstanceLayout)
	h.WriteBool(d.IncludeCameraLayout)
	h.WriteBool(d.IncludeLightLayout)
}

// Hash returns the cache key for the pipeline.
//
// Returns:
//   - uint64: the descriptor hash
func (d PipelineDescriptor) Hash() uint64 {
	h := common.NewHasher()
	d.hashInto(h)
	return h.Sum64()
}
