package texture

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/loader"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// projectionWorkgroupSize matches the @workgroup_size in the projection
// shader; dispatches cover ⌈face/16⌉² workgroups per face.
const projectionWorkgroupSize = 16

// cubeTexture is the implementation of the CubeTexture interface.
type cubeTexture struct {
	tex      *wgpu.Texture
	view     *wgpu.TextureView
	sampler  *wgpu.Sampler
	faceSize uint32
}

// CubeTexture is a realized six-face cube map with a cube-dimension view and
// sampler, projected from an equirectangular Radiance HDR source.
type CubeTexture interface {
	// Texture returns the underlying 6-layer GPU texture.
	//
	// Returns:
	//   - *wgpu.Texture: the texture handle
	Texture() *wgpu.Texture

	// View returns the cube-dimension view over all six faces.
	//
	// Returns:
	//   - *wgpu.TextureView: the view handle
	View() *wgpu.TextureView

	// Sampler returns the cube sampler.
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler handle
	Sampler() *wgpu.Sampler

	// FaceSize returns the face edge length in texels.
	//
	// Returns:
	//   - uint32: the face size
	FaceSize() uint32

	// Release frees the GPU objects. The cube texture is unusable
	// afterwards.
	Release()
}

var _ CubeTexture = &cubeTexture{}

// NewCube realizes a cube texture descriptor: decodes the HDR source,
// uploads it as an RGBA16Float equirectangular texture, and runs the
// projection compute pass once per face.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue uploads and the projection dispatch run on
//   - desc: the cube texture descriptor to realize
//
// Returns:
//   - CubeTexture: the realized cube texture
//   - error: an error if decoding, upload or the compute pass setup fails
func NewCube(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.CubeTextureDescriptor) (CubeTexture, error) {
	if desc.FaceSize == 0 {
		return nil, fmt.Errorf("cube texture: zero face size")
	}

	raw := desc.Data
	if desc.Path != "" {
		var err error
		raw, err = os.ReadFile(desc.Path)
		if err != nil {
			return nil, fmt.Errorf("cube texture: read %q: %w", desc.Path, err)
		}
	}
	img, err := loader.DecodeHDR(raw)
	if err != nil {
		return nil, fmt.Errorf("cube texture: %w", err)
	}

	equirect, equirectView, err := uploadEquirect(device, queue, img)
	if err != nil {
		return nil, err
	}
	defer equirectView.Release()
	defer equirect.Release()

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Cube Texture",
		Size: wgpu.Extent3D{
			Width:              desc.FaceSize,
			Height:             desc.FaceSize,
			DepthOrArrayLayers: 6,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA16Float,
		Usage: wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding |
			wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("cube texture: create: %w", err)
	}

	if err := ProjectEquirect(device, queue, equirectView, tex, desc.FaceSize); err != nil {
		tex.Release()
		return nil, err
	}

	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Cube Texture View",
		Format:          wgpu.TextureFormatRGBA16Float,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("cube texture: create view: %w", err)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Cube Texture Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("cube texture: create sampler: %w", err)
	}

	return &cubeTexture{tex: tex, view: view, sampler: sampler, faceSize: desc.FaceSize}, nil
}

func (c *cubeTexture) Texture() *wgpu.Texture {
	return c.tex
}

func (c *cubeTexture) View() *wgpu.TextureView {
	return c.view
}

func (c *cubeTexture) Sampler() *wgpu.Sampler {
	return c.sampler
}

func (c *cubeTexture) FaceSize() uint32 {
	return c.faceSize
}

func (c *cubeTexture) Release() {
	c.sampler.Release()
	c.view.Release()
	c.tex.Release()
}

// uploadEquirect creates the RGBA16Float source texture and writes the
// decoded HDR texels into it.
func uploadEquirect(device *wgpu.Device, queue *wgpu.Queue, img *loader.HDRImage) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Equirect Source",
		Size: wgpu.Extent3D{
			Width:              img.Width,
			Height:             img.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA16Float,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cube texture: create equirect source: %w", err)
	}

	writeAligned(queue, tex, img.RGBA16FBytes(), img.Width, img.Height, 8)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("cube texture: create equirect view: %w", err)
	}
	return tex, view, nil
}

// ProjectEquirect dispatches the equirectangular-to-cube compute pass,
// writing every face of target at mip 0.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the dispatch is submitted on
//   - source: the equirectangular RGBA16Float source view
//   - target: the 6-layer RGBA16Float texture written by the pass
//   - faceSize: the face edge length in texels
//
// Returns:
//   - error: an error if pipeline or bind group creation fails
func ProjectEquirect(device *wgpu.Device, queue *wgpu.Queue, source *wgpu.TextureView, target *wgpu.Texture, faceSize uint32) error {
	sh, err := shader.New(projectionShaderDescriptor(), "")
	if err != nil {
		return fmt.Errorf("cube texture: %w", err)
	}

	module, err := device.CreateShaderModule(sh.Module())
	if err != nil {
		return fmt.Errorf("cube texture: compile projection shader: %w", err)
	}
	defer module.Release()

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Equirect Projection Layout",
		Entries: sh.LayoutEntries()[0],
	})
	if err != nil {
		return fmt.Errorf("cube texture: create bind group layout: %w", err)
	}
	defer layout.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Equirect Projection",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("cube texture: create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "Equirect Projection",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: sh.ComputeEntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("cube texture: create compute pipeline: %w", err)
	}
	defer pipeline.Release()

	targetView, err := target.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Equirect Projection Target",
		Format:          wgpu.TextureFormatRGBA16Float,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return fmt.Errorf("cube texture: create projection target view: %w", err)
	}
	defer targetView.Release()

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Equirect Projection",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: source},
			{Binding: 1, TextureView: targetView},
		},
	})
	if err != nil {
		return fmt.Errorf("cube texture: create bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("cube texture: create encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	groups := (faceSize + projectionWorkgroupSize - 1) / projectionWorkgroupSize
	pass.DispatchWorkgroups(groups, groups, 6)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("cube texture: finish encoder: %w", err)
	}
	defer cmd.Release()
	queue.Submit(cmd)

	return nil
}

// projectionShaderDescriptor declares the projection pass: the equirect
// source at binding 0 and the writable face array at binding 1.
func projectionShaderDescriptor() descriptor.ShaderDescriptor {
	return descriptor.ShaderDescriptor{
		Name:       "equirect_to_cube",
		SourceKind: descriptor.ShaderSourceInline,
		Code:       projectionWGSL,
		Variables: []descriptor.ShaderVariable{
			{
				Kind:          descriptor.ShaderVariableTexture,
				Group:         0,
				Binding:       0,
				Visibility:    wgpu.ShaderStageCompute,
				SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
			{
				Kind:          descriptor.ShaderVariableStorageTexture,
				Group:         0,
				Binding:       1,
				Visibility:    wgpu.ShaderStageCompute,
				ViewDimension: wgpu.TextureViewDimension2DArray,
				StorageFormat: wgpu.TextureFormatRGBA16Float,
				StorageAccess: wgpu.StorageTextureAccessWriteOnly,
			},
		},
		Stages: wgpu.ShaderStageCompute,
	}
}

const projectionWGSL = `#import <constants>
#import <cube_faces>

@group(0) @binding(0) var equirect: texture_2d<f32>;
@group(0) @binding(1) var faces: texture_storage_2d_array<rgba16float, write>;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(faces).x;
    if (gid.x >= size || gid.y >= size) {
        return;
    }

    let uv = (vec2<f32>(f32(gid.x), f32(gid.y)) + 0.5) / f32(size) * 2.0 - 1.0;
    let dir = normalize(cube_face_direction(gid.z, uv));

    let eq_size = vec2<f32>(textureDimensions(equirect));
    let u = (atan2(dir.z, dir.x) + PI) / (2.0 * PI);
    let v = acos(clamp(dir.y, -1.0, 1.0)) / PI;
    let coord = clamp(
        vec2<i32>(vec2<f32>(u, v) * eq_size),
        vec2<i32>(0),
        vec2<i32>(eq_size) - 1,
    );

    textureStore(faces, vec2<i32>(gid.xy), i32(gid.z), textureLoad(equirect, coord, 0));
}`
