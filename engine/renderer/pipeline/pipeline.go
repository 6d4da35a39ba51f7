// Package pipeline realizes pipeline descriptors into render pipelines. A
// realized pipeline owns its shader-derived bind group layouts; the camera
// and light layouts are shared handles threaded in by the renderer so their
// bind groups stay valid across every pipeline that uses them.
//
// Bind group order in the final pipeline layout is: the shader's first
// declared group, then the camera group (if included), then the light group
// (if included), then the shader's remaining declared groups. WGSL sources
// are authored against that final order.
package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/orbit-go/engine/cache"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the depth attachment format used by every depth-tested
// pipeline.
const DepthFormat = wgpu.TextureFormatDepth32Float

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	desc          descriptor.PipelineDescriptor
	surfaceFormat wgpu.TextureFormat

	renderPipeline *wgpu.RenderPipeline

	// ownedLayouts are the layouts created from the shader's declared
	// groups; shared camera/light handles are not owned.
	ownedLayouts []*wgpu.BindGroupLayout
	groupLayouts []*wgpu.BindGroupLayout
	cameraGroup  int
	lightGroup   int
}

// Pipeline is a realized render pipeline together with its bind group
// layouts and the positions of the shared camera and light groups.
type Pipeline interface {
	// Descriptor returns the descriptor the pipeline was realized from.
	//
	// Returns:
	//   - descriptor.PipelineDescriptor: the source descriptor
	Descriptor() descriptor.PipelineDescriptor

	// RenderPipeline returns the underlying GPU render pipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline handle
	RenderPipeline() *wgpu.RenderPipeline

	// GroupLayout returns the bind group layout at the given final group
	// index, or nil when out of range.
	//
	// Parameters:
	//   - index: the group index in the final pipeline layout order
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout handle
	GroupLayout(index int) *wgpu.BindGroupLayout

	// MaterialLayout returns the layout materials create their bind groups
	// against, which is always the final group 0.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the group 0 layout
	MaterialLayout() *wgpu.BindGroupLayout

	// CameraGroup returns the final group index of the shared camera
	// layout, or -1 when the descriptor excluded it.
	//
	// Returns:
	//   - int: the camera group index
	CameraGroup() int

	// LightGroup returns the final group index of the shared light layout,
	// or -1 when the descriptor excluded it.
	//
	// Returns:
	//   - int: the light group index
	LightGroup() int

	// SurfaceFormat returns the surface format the pipeline targets. A
	// cached pipeline whose format no longer matches the surface must be
	// rebuilt.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color target format
	SurfaceFormat() wgpu.TextureFormat

	// Release frees the pipeline and its owned layouts. Shared camera and
	// light layouts are left alone.
	Release()
}

var _ Pipeline = &pipeline{}

// New realizes a pipeline descriptor against the given surface format. The
// shader is retrieved through shaders when non-nil so repeated pipelines
// sharing a shader descriptor reuse one pre-processed realization.
//
// Parameters:
//   - device: the GPU device
//   - desc: the pipeline descriptor to realize
//   - surfaceFormat: the current surface color format
//   - shared: the shared camera/light layouts
//   - shaders: the shader realization cache, keyed on shader descriptor
//     hash (may be nil)
//   - libraryRoot: the shader-library root for file sources and imports
//
// Returns:
//   - Pipeline: the realized pipeline
//   - error: an error if shader realization or GPU creation fails
func New(device *wgpu.Device, desc descriptor.PipelineDescriptor, surfaceFormat wgpu.TextureFormat, shared *SharedLayouts, shaders *cache.Cache[uint64, shader.Shader], libraryRoot string) (Pipeline, error) {
	if desc.PolygonMode != descriptor.PolygonModeFill {
		return nil, fmt.Errorf("pipeline %q: only fill polygon mode is supported", desc.Shader.Name)
	}

	sh, err := realizeShader(desc.Shader, shaders, libraryRoot)
	if err != nil {
		return nil, err
	}
	if sh.VertexEntryPoint() == "" || sh.FragmentEntryPoint() == "" {
		return nil, fmt.Errorf("pipeline %q: shader must have vertex and fragment entry points", desc.Shader.Name)
	}

	p := &pipeline{
		desc:          desc,
		surfaceFormat: surfaceFormat,
		cameraGroup:   -1,
		lightGroup:    -1,
	}

	if err := p.buildLayouts(device, sh, shared); err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Shader.Name,
		BindGroupLayouts: p.groupLayouts,
	})
	if err != nil {
		p.releaseOwned()
		return nil, fmt.Errorf("pipeline %q: create layout: %w", desc.Shader.Name, err)
	}
	defer pipelineLayout.Release()

	module, err := device.CreateShaderModule(sh.Module())
	if err != nil {
		p.releaseOwned()
		return nil, fmt.Errorf("pipeline %q: compile shader: %w", desc.Shader.Name, err)
	}
	defer module.Release()

	var buffers []wgpu.VertexBufferLayout
	if desc.IncludeVertexLayout {
		buffers = append(buffers, vertexBufferLayout())
	}
	if desc.IncludeInstanceLayout {
		buffers = append(buffers, instanceBufferLayout())
	}

	var depthStencil *wgpu.DepthStencilState
	if desc.DepthStencil {
		depthStencil = &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Shader.Name + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: sh.VertexEntryPoint(),
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: sh.FragmentEntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format: surfaceFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorZero,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorZero,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: desc.FrontFace,
			CullMode:  desc.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		p.releaseOwned()
		return nil, fmt.Errorf("pipeline %q: create render pipeline: %w", desc.Shader.Name, err)
	}

	p.renderPipeline = created
	return p, nil
}

// realizeShader fetches the shader through the cache when one is provided.
func realizeShader(desc descriptor.ShaderDescriptor, shaders *cache.Cache[uint64, shader.Shader], libraryRoot string) (shader.Shader, error) {
	if shaders == nil {
		return shader.New(desc, libraryRoot)
	}
	return shaders.GetOrInsertFallible(desc.Hash(), func() (shader.Shader, error) {
		return shader.New(desc, libraryRoot)
	})
}

// buildLayouts creates the shader-group layouts and splices in the shared
// camera/light layouts in final group order.
func (p *pipeline) buildLayouts(device *wgpu.Device, sh shader.Shader, shared *SharedLayouts) error {
	shaderGroups := sh.LayoutEntries()
	for i, entries := range shaderGroups {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d Layout", p.desc.Shader.Name, i),
			Entries: entries,
		})
		if err != nil {
			p.releaseOwned()
			return fmt.Errorf("pipeline %q: create bind group layout %d: %w", p.desc.Shader.Name, i, err)
		}
		p.ownedLayouts = append(p.ownedLayouts, layout)
	}

	if len(p.ownedLayouts) > 0 {
		p.groupLayouts = append(p.groupLayouts, p.ownedLayouts[0])
	}
	if p.desc.IncludeCameraLayout {
		p.cameraGroup = len(p.groupLayouts)
		p.groupLayouts = append(p.groupLayouts, shared.Camera)
	}
	if p.desc.IncludeLightLayout {
		p.lightGroup = len(p.groupLayouts)
		p.groupLayouts = append(p.groupLayouts, shared.Light)
	}
	if len(p.ownedLayouts) > 1 {
		p.groupLayouts = append(p.groupLayouts, p.ownedLayouts[1:]...)
	}
	return nil
}

func (p *pipeline) Descriptor() descriptor.PipelineDescriptor {
	return p.desc
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) GroupLayout(index int) *wgpu.BindGroupLayout {
	if index < 0 || index >= len(p.groupLayouts) {
		return nil
	}
	return p.groupLayouts[index]
}

func (p *pipeline) MaterialLayout() *wgpu.BindGroupLayout {
	return p.GroupLayout(0)
}

func (p *pipeline) CameraGroup() int {
	return p.cameraGroup
}

func (p *pipeline) LightGroup() int {
	return p.lightGroup
}

func (p *pipeline) SurfaceFormat() wgpu.TextureFormat {
	return p.surfaceFormat
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	p.releaseOwned()
}

func (p *pipeline) releaseOwned() {
	for _, l := range p.ownedLayouts {
		l.Release()
	}
	p.ownedLayouts = nil
	p.groupLayouts = nil
}
