// Package material realizes material descriptors into the bind groups the
// render passes set at group 0. PBR materials own a small factor uniform;
// their textures are fetched through the renderer's texture caches and stay
// owned by those caches.
package material

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/orbit-go/engine/cache"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// FactorUniformSize is the byte size of the PBR factor uniform: the albedo
// factor vec4, then (metallic, roughness, occlusion, 0), then
// vec4(emissive, 0).
const FactorUniformSize = 48

// material is the implementation of the Material interface.
type material struct {
	desc      descriptor.MaterialDescriptor
	pl        pipeline.Pipeline
	bindGroup *wgpu.BindGroup
	factors   *wgpu.Buffer
}

// Material is a realized material: the bind group for a specific pipeline's
// group 0 layout plus any GPU objects the material itself owns.
type Material interface {
	// Descriptor returns the descriptor the material was realized from.
	//
	// Returns:
	//   - descriptor.MaterialDescriptor: the source descriptor
	Descriptor() descriptor.MaterialDescriptor

	// Pipeline returns the pipeline the bind group was built against.
	//
	// Returns:
	//   - pipeline.Pipeline: the owning pipeline
	Pipeline() pipeline.Pipeline

	// BindGroup returns the group-0 bind group.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group handle
	BindGroup() *wgpu.BindGroup

	// Release frees the objects the material owns. Cached textures are
	// left to their caches.
	Release()
}

var _ Material = &material{}

// New realizes a material descriptor against a pipeline's group 0 layout.
// Textures are fetched through the provided caches so identical descriptors
// share realizations.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue uploads are written on
//   - desc: the material descriptor to realize
//   - pl: the pipeline whose material layout the bind group targets
//   - textures: the 2D texture cache, keyed on texture descriptor hash
//   - cubes: the cube texture cache, keyed on cube descriptor hash
//
// Returns:
//   - Material: the realized material
//   - error: an error if texture realization or bind group creation fails
func New(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.MaterialDescriptor, pl pipeline.Pipeline, textures *cache.Cache[uint64, texture.Texture], cubes *cache.Cache[uint64, texture.CubeTexture]) (Material, error) {
	m := &material{desc: desc, pl: pl}

	var err error
	switch desc.Kind {
	case descriptor.MaterialPBR:
		err = m.buildPBR(device, queue, textures)
	case descriptor.MaterialSkybox:
		err = m.buildSkybox(device, queue, cubes)
	case descriptor.MaterialCustom:
		err = m.buildCustom(device, queue, textures)
	default:
		err = fmt.Errorf("material: unknown kind %d", desc.Kind)
	}
	if err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *material) Descriptor() descriptor.MaterialDescriptor {
	return m.desc
}

func (m *material) Pipeline() pipeline.Pipeline {
	return m.pl
}

func (m *material) BindGroup() *wgpu.BindGroup {
	return m.bindGroup
}

func (m *material) Release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	if m.factors != nil {
		m.factors.Release()
		m.factors = nil
	}
}

func (m *material) buildPBR(device *wgpu.Device, queue *wgpu.Queue, textures *cache.Cache[uint64, texture.Texture]) error {
	p := m.desc.PBR

	fetch := func(td descriptor.TextureDescriptor) (texture.Texture, error) {
		return textures.GetOrInsertFallible(td.Hash(), func() (texture.Texture, error) {
			return texture.New(device, queue, td)
		})
	}

	maps := []descriptor.TextureDescriptor{p.Normal, p.Albedo, p.Metallic, p.Roughness, p.Occlusion}
	if p.Emissive != nil {
		maps = append(maps, *p.Emissive)
	} else {
		// Black stand-in keeps the bind group shape fixed.
		maps = append(maps, descriptor.TextureFromPixel(0, 0, 0, 255))
	}

	entries := make([]wgpu.BindGroupEntry, 0, 8)
	var sampler *wgpu.Sampler
	for i, td := range maps {
		tex, err := fetch(td)
		if err != nil {
			return fmt.Errorf("material: realize map %d: %w", i, err)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(i),
			TextureView: tex.View(),
		})
		if i == 1 {
			sampler = tex.Sampler()
		}
	}
	entries = append(entries, wgpu.BindGroupEntry{Binding: 6, Sampler: sampler})

	factors, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Material Factors",
		Size:             FactorUniformSize,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("material: create factor buffer: %w", err)
	}
	m.factors = factors
	queue.WriteBuffer(factors, 0, FactorBytes(p))
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: 7,
		Buffer:  factors,
		Offset:  0,
		Size:    wgpu.WholeSize,
	})

	return m.createBindGroup(device, entries)
}

func (m *material) buildSkybox(device *wgpu.Device, queue *wgpu.Queue, cubes *cache.Cache[uint64, texture.CubeTexture]) error {
	cubeDesc := m.desc.Skybox.Cube
	cube, err := cubes.GetOrInsertFallible(cubeDesc.Hash(), func() (texture.CubeTexture, error) {
		return texture.NewCube(device, queue, cubeDesc)
	})
	if err != nil {
		return fmt.Errorf("material: realize skybox cube: %w", err)
	}

	return m.createBindGroup(device, []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: cube.View()},
		{Binding: 1, Sampler: cube.Sampler()},
	})
}

// buildCustom binds the descriptor's textures in declaration order as
// alternating view/sampler pairs: texture i at binding 2i, its sampler at
// binding 2i+1.
func (m *material) buildCustom(device *wgpu.Device, queue *wgpu.Queue, textures *cache.Cache[uint64, texture.Texture]) error {
	entries := make([]wgpu.BindGroupEntry, 0, len(m.desc.Custom.Textures)*2)
	for i, td := range m.desc.Custom.Textures {
		tex, err := textures.GetOrInsertFallible(td.Hash(), func() (texture.Texture, error) {
			return texture.New(device, queue, td)
		})
		if err != nil {
			return fmt.Errorf("material: realize custom texture %d: %w", i, err)
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(i * 2), TextureView: tex.View()},
			wgpu.BindGroupEntry{Binding: uint32(i*2 + 1), Sampler: tex.Sampler()},
		)
	}
	return m.createBindGroup(device, entries)
}

func (m *material) createBindGroup(device *wgpu.Device, entries []wgpu.BindGroupEntry) error {
	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Material Bind Group",
		Layout:  m.pl.MaterialLayout(),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("material: create bind group: %w", err)
	}
	m.bindGroup = bindGroup
	return nil
}

// FactorBytes packs the PBR factor uniform little-endian.
//
// Parameters:
//   - p: the PBR material parameters
//
// Returns:
//   - []byte: the 48-byte uniform contents
func FactorBytes(p *descriptor.PBRMaterialDescriptor) []byte {
	out := make([]byte, 0, FactorUniformSize)
	var buf [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		out = append(out, buf[:]...)
	}
	for _, f := range p.AlbedoFactor {
		put(f)
	}
	put(p.MetallicFactor)
	put(p.RoughnessFactor)
	put(p.OcclusionFactor)
	put(0)
	for _, f := range p.EmissiveFactor {
		put(f)
	}
	put(0)
	return out
}
