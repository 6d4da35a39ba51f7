// Package environment realizes world-environment descriptors into the
// image-based lighting chain: the source cube projected from an
// equirectangular HDR, a diffuse irradiance cube, a per-mip specular
// radiance cube, and the device-wide BRDF lookup table. The two convolved
// cubes are cached on disk keyed by the descriptor hash, so an identical
// environment skips the compute passes on the next run.
package environment

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// environment is the implementation of the Environment interface.
type environment struct {
	desc     descriptor.WorldEnvironmentDescriptor
	mipCount uint32

	surface texture.CubeTexture

	irradianceTex  *wgpu.Texture
	irradianceView *wgpu.TextureView
	specularTex    *wgpu.Texture
	specularView   *wgpu.TextureView

	// skyboxView is owned only when it is a dedicated single-mip view.
	skyboxView      *wgpu.TextureView
	ownedSkyboxView bool

	bindGroup *wgpu.BindGroup
}

// Environment is a realized image-based lighting chain plus the bind group
// the opaque pass sets at the environment group.
type Environment interface {
	// Descriptor returns the descriptor the environment was realized from.
	//
	// Returns:
	//   - descriptor.WorldEnvironmentDescriptor: the source descriptor
	Descriptor() descriptor.WorldEnvironmentDescriptor

	// MipCount returns the effective specular chain depth after clamping.
	//
	// Returns:
	//   - uint32: the specular mip count
	MipCount() uint32

	// BindGroup returns the environment bind group: irradiance cube,
	// specular cube, BRDF LUT, sampler.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group handle
	BindGroup() *wgpu.BindGroup

	// SkyboxView returns the cube view the skybox pass displays, selected
	// by the descriptor's skybox fields.
	//
	// Returns:
	//   - *wgpu.TextureView: the displayed cube view
	SkyboxView() *wgpu.TextureView

	// Sampler returns the cube sampler shared with the skybox pass.
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler handle
	Sampler() *wgpu.Sampler

	// Release frees the GPU objects. The device-wide BRDF LUT is left
	// alone.
	Release()
}

var _ Environment = &environment{}

// New realizes a world environment. The disk cache is consulted first; on a
// miss the convolution passes run and their results are written back to the
// cache.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue uploads and dispatches run on
//   - desc: the environment descriptor to realize
//   - layout: the environment bind group layout from the PBR pipeline
//
// Returns:
//   - Environment: the realized environment
//   - error: an error if HDR decoding, projection or convolution fails
func New(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.WorldEnvironmentDescriptor, layout *wgpu.BindGroupLayout) (Environment, error) {
	e := &environment{
		desc:     desc,
		mipCount: ClampMipLevels(desc.SpecularMipLevels, desc.FaceSize),
	}

	surface, err := texture.NewCube(device, queue, desc.Cube())
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	e.surface = surface

	if err := e.createCubes(device); err != nil {
		e.Release()
		return nil, err
	}

	if err := e.populate(device, queue); err != nil {
		e.Release()
		return nil, err
	}

	if err := e.createViews(); err != nil {
		e.Release()
		return nil, err
	}

	lut, err := lutForDevice(device, queue)
	if err != nil {
		e.Release()
		return nil, err
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Environment Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: e.irradianceView},
			{Binding: 1, TextureView: e.specularView},
			{Binding: 2, TextureView: lut.view},
			{Binding: 3, Sampler: surface.Sampler()},
		},
	})
	if err != nil {
		e.Release()
		return nil, fmt.Errorf("environment: create bind group: %w", err)
	}
	e.bindGroup = bindGroup

	if err := e.createSkyboxView(); err != nil {
		e.Release()
		return nil, err
	}
	return e, nil
}

func (e *environment) Descriptor() descriptor.WorldEnvironmentDescriptor {
	return e.desc
}

func (e *environment) MipCount() uint32 {
	return e.mipCount
}

func (e *environment) BindGroup() *wgpu.BindGroup {
	return e.bindGroup
}

func (e *environment) SkyboxView() *wgpu.TextureView {
	return e.skyboxView
}

func (e *environment) Sampler() *wgpu.Sampler {
	return e.surface.Sampler()
}

func (e *environment) Release() {
	if e.bindGroup != nil {
		e.bindGroup.Release()
		e.bindGroup = nil
	}
	if e.ownedSkyboxView && e.skyboxView != nil {
		e.skyboxView.Release()
	}
	e.skyboxView = nil
	if e.specularView != nil {
		e.specularView.Release()
		e.specularView = nil
	}
	if e.irradianceView != nil {
		e.irradianceView.Release()
		e.irradianceView = nil
	}
	if e.specularTex != nil {
		e.specularTex.Release()
		e.specularTex = nil
	}
	if e.irradianceTex != nil {
		e.irradianceTex.Release()
		e.irradianceTex = nil
	}
	if e.surface != nil {
		e.surface.Release()
		e.surface = nil
	}
}

// createCubes allocates the irradiance and specular cube textures.
func (e *environment) createCubes(device *wgpu.Device) error {
	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding |
		wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst

	irradiance, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Irradiance Cube",
		Size: wgpu.Extent3D{
			Width:              e.desc.FaceSize,
			Height:             e.desc.FaceSize,
			DepthOrArrayLayers: 6,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA16Float,
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("environment: create irradiance cube: %w", err)
	}
	e.irradianceTex = irradiance

	specular, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Specular Radiance Cube",
		Size: wgpu.Extent3D{
			Width:              e.desc.FaceSize,
			Height:             e.desc.FaceSize,
			DepthOrArrayLayers: 6,
		},
		MipLevelCount: e.mipCount,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA16Float,
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("environment: create specular cube: %w", err)
	}
	e.specularTex = specular
	return nil
}

// populate fills the convolved cubes, from the disk cache when a valid entry
// exists, otherwise by running the convolution passes and writing the cache.
func (e *environment) populate(device *wgpu.Device, queue *wgpu.Queue) error {
	path, pathErr := CachePath(e.desc.Hash())
	if pathErr != nil {
		log.Printf("[Environment] cache unavailable: %v", pathErr)
	}

	if pathErr == nil {
		if data, err := os.ReadFile(path); err == nil {
			if e.uploadCached(queue, data) {
				log.Printf("[Environment] IBL cache hit: %s", path)
				return nil
			}
			log.Printf("[Environment] discarding stale IBL cache: %s", path)
			_ = os.Remove(path)
		}
	}

	if err := e.convolve(device, queue); err != nil {
		return err
	}

	if pathErr == nil {
		if err := e.writeCache(device, queue, path); err != nil {
			log.Printf("[Environment] IBL cache write failed: %v", err)
		} else {
			log.Printf("[Environment] IBL chain computed and cached: %s", path)
		}
	}
	return nil
}

// uploadCached validates a cache file against the descriptor and uploads its
// blobs. A false return means the file must be discarded.
func (e *environment) uploadCached(queue *wgpu.Queue, data []byte) bool {
	diffuse, specular, mipCount, err := DecodeCacheFile(data)
	if err != nil {
		return false
	}
	if mipCount != e.mipCount ||
		uint64(len(diffuse)) != DiffuseByteSize(e.desc.FaceSize) ||
		uint64(len(specular)) != SpecularByteSize(e.desc.FaceSize, e.mipCount) {
		return false
	}

	writeTextureLevel(queue, e.irradianceTex, diffuse, e.desc.FaceSize, 6, 0)

	offset := uint64(0)
	for mip := uint32(0); mip < e.mipCount; mip++ {
		size := MipSize(e.desc.FaceSize, mip)
		length := uint64(size) * uint64(size) * 6 * faceTexelBytes
		writeTextureLevel(queue, e.specularTex, specular[offset:offset+length], size, 6, mip)
		offset += length
	}
	return true
}

// convolve runs the irradiance and prefilter passes against the source cube.
func (e *environment) convolve(device *wgpu.Device, queue *wgpu.Queue) error {
	irradianceTarget, err := e.irradianceTex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Irradiance Target",
		Format:          wgpu.TextureFormatRGBA16Float,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return fmt.Errorf("environment: create irradiance target view: %w", err)
	}
	defer irradianceTarget.Release()

	groups := (e.desc.FaceSize + convolutionWorkgroupSize - 1) / convolutionWorkgroupSize
	err = dispatchCompute(device, queue, irradianceShaderDescriptor(e.desc.Sampling), []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: e.surface.View()},
		{Binding: 1, Sampler: e.surface.Sampler()},
		{Binding: 2, TextureView: irradianceTarget},
	}, groups, groups, 6)
	if err != nil {
		return err
	}

	params, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Prefilter Params",
		Size:             prefilterParamsSize,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("environment: create prefilter params: %w", err)
	}
	defer params.Release()

	for mip := uint32(0); mip < e.mipCount; mip++ {
		roughness := float32(0)
		if e.mipCount > 1 {
			roughness = float32(mip) / float32(e.mipCount-1)
		}
		var paramBytes [prefilterParamsSize]byte
		binary.LittleEndian.PutUint32(paramBytes[0:], math.Float32bits(roughness))
		queue.WriteBuffer(params, 0, paramBytes[:])

		size := MipSize(e.desc.FaceSize, mip)
		target, err := e.specularTex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           "Prefilter Target",
			Format:          wgpu.TextureFormatRGBA16Float,
			Dimension:       wgpu.TextureViewDimension2DArray,
			BaseMipLevel:    mip,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			return fmt.Errorf("environment: create prefilter target view: %w", err)
		}

		mipGroups := (size + convolutionWorkgroupSize - 1) / convolutionWorkgroupSize
		err = dispatchCompute(device, queue, prefilterShaderDescriptor(), []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: e.surface.View()},
			{Binding: 1, Sampler: e.surface.Sampler()},
			{Binding: 2, TextureView: target},
			{Binding: 3, Buffer: params, Offset: 0, Size: wgpu.WholeSize},
		}, mipGroups, mipGroups, 6)
		target.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// writeCache reads the convolved cubes back and serializes them.
func (e *environment) writeCache(device *wgpu.Device, queue *wgpu.Queue, path string) error {
	diffuse, err := readTextureLevel(device, queue, e.irradianceTex, e.desc.FaceSize, 6, 0)
	if err != nil {
		return err
	}

	specular := make([]byte, 0, SpecularByteSize(e.desc.FaceSize, e.mipCount))
	for mip := uint32(0); mip < e.mipCount; mip++ {
		level, err := readTextureLevel(device, queue, e.specularTex, MipSize(e.desc.FaceSize, mip), 6, mip)
		if err != nil {
			return err
		}
		specular = append(specular, level...)
	}

	return os.WriteFile(path, EncodeCacheFile(diffuse, specular, e.mipCount), 0o644)
}

// createViews creates the cube-dimension sampling views.
func (e *environment) createViews() error {
	irradianceView, err := e.irradianceTex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Irradiance Cube View",
		Format:          wgpu.TextureFormatRGBA16Float,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return fmt.Errorf("environment: create irradiance view: %w", err)
	}
	e.irradianceView = irradianceView

	specularView, err := e.specularTex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Specular Cube View",
		Format:          wgpu.TextureFormatRGBA16Float,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   e.mipCount,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return fmt.Errorf("environment: create specular view: %w", err)
	}
	e.specularView = specularView
	return nil
}

// createSkyboxView selects which cube the skybox pass displays.
func (e *environment) createSkyboxView() error {
	switch e.desc.Skybox {
	case descriptor.SkyboxDiffuse:
		e.skyboxView = e.irradianceView
	case descriptor.SkyboxSpecular:
		mip := e.desc.SkyboxMip
		if mip >= e.mipCount {
			mip = e.mipCount - 1
		}
		view, err := e.specularTex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           "Skybox Specular View",
			Format:          wgpu.TextureFormatRGBA16Float,
			Dimension:       wgpu.TextureViewDimensionCube,
			BaseMipLevel:    mip,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			return fmt.Errorf("environment: create skybox view: %w", err)
		}
		e.skyboxView = view
		e.ownedSkyboxView = true
	default:
		e.skyboxView = e.surface.View()
	}
	return nil
}
