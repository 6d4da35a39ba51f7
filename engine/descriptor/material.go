package descriptor

import "github.com/Carmen-Shannon/orbit-go/common"

// MaterialKind discriminates the MaterialDescriptor union.
type MaterialKind int

const (
	// MaterialPBR is the physically based material fed to the standard
	// opaque pipeline.
	MaterialPBR MaterialKind = iota

	// MaterialSkybox samples a single cube texture on the skybox pipeline.
	MaterialSkybox

	// MaterialCustom pairs a caller-supplied pipeline with ordered textures.
	MaterialCustom
)

// PBRMaterialDescriptor holds the five standard maps, an optional emissive
// map, and the scalar factors multiplied into each sampled value. Missing
// maps are backed by 1×1 pixel textures so the bind group shape never
// changes.
type PBRMaterialDescriptor struct {
	// Normal is the tangent-space normal map.
	Normal TextureDescriptor

	// Albedo is the base color map, sampled in sRGB.
	Albedo TextureDescriptor

	// Metallic is the single-channel metalness map.
	Metallic TextureDescriptor

	// Roughness is the single-channel roughness map.
	Roughness TextureDescriptor

	// Occlusion is the single-channel ambient occlusion map.
	Occlusion TextureDescriptor

	// Emissive is the optional emissive map; nil disables emission.
	Emissive *TextureDescriptor

	// AlbedoFactor multiplies the sampled base color.
	AlbedoFactor [4]float32

	// MetallicFactor multiplies the sampled metalness.
	MetallicFactor float32

	// RoughnessFactor multiplies the sampled roughness.
	RoughnessFactor float32

	// OcclusionFactor scales how strongly occlusion darkens ambient light.
	OcclusionFactor float32

	// EmissiveFactor multiplies the sampled emissive color.
	EmissiveFactor [3]float32
}

// SkyboxMaterialDescriptor renders a cube texture as the scene background.
type SkyboxMaterialDescriptor struct {
	// Cube is the cube texture sampled by the skybox pipeline.
	Cube CubeTextureDescriptor
}

// CustomMaterialDescriptor pairs an arbitrary pipeline with the textures
// bound, in order, to its first bind group.
type CustomMaterialDescriptor struct {
	// Pipeline is the pipeline the material renders with.
	Pipeline PipelineDescriptor

	// Textures are bound in declaration order.
	Textures []TextureDescriptor
}

// MaterialDescriptor is the pure description of a material: exactly one of
// the variant pointers is set, selected by Kind.
type MaterialDescriptor struct {
	// Kind selects the populated variant.
	Kind MaterialKind

	// PBR is set for MaterialPBR.
	PBR *PBRMaterialDescriptor

	// Skybox is set for MaterialSkybox.
	Skybox *SkyboxMaterialDescriptor

	// Custom is set for MaterialCustom.
	Custom *CustomMaterialDescriptor
}

// DefaultPBRMaterial returns a neutral material: flat normal, white albedo,
// non-metallic, fully rough, unoccluded, no emission.
//
// Returns:
//   - MaterialDescriptor: the neutral PBR material
func DefaultPBRMaterial() MaterialDescriptor {
	return MaterialDescriptor{
		Kind: MaterialPBR,
		PBR: &PBRMaterialDescriptor{
			Normal:          TextureFromPixel(128, 128, 255, 255),
			Albedo:          TextureFromPixel(255, 255, 255, 255),
			Metallic:        TextureFromPixel(0, 0, 0, 255),
			Roughness:       TextureFromPixel(255, 255, 255, 255),
			Occlusion:       TextureFromPixel(255, 255, 255, 255),
			AlbedoFactor:    [4]float32{1, 1, 1, 1},
			MetallicFactor:  1,
			RoughnessFactor: 1,
			OcclusionFactor: 1,
			EmissiveFactor:  [3]float32{1, 1, 1},
		},
	}
}

// SkyboxMaterial wraps a cube texture into a skybox material.
//
// Parameters:
//   - cube: the cube texture to render as the background
//
// Returns:
//   - MaterialDescriptor: the skybox material
func SkyboxMaterial(cube CubeTextureDescriptor) MaterialDescriptor {
	return MaterialDescriptor{
		Kind:   MaterialSkybox,
		Skybox: &SkyboxMaterialDescriptor{Cube: cube},
	}
}

func (d MaterialDescriptor) hashInto(h *common.Hasher) {
	h.WriteUint32(uint32(d.Kind))
	switch d.Kind {
	case MaterialPBR:
		p := d.PBR
		p.Normal.hashInto(h)
		p.Albedo.hashInto(h)
		p.Metallic.hashInto(h)
		p.Roughness.hashInto(h)
		p.Occlusion.hashInto(h)
		h.WriteBool(p.Emissive != nil)
		if p.Emissive != nil {
			p.Emissive.hashInto(h)
		}
		h.WriteFloat32s(p.AlbedoFactor[:])
		h.WriteFloat32(p.MetallicFactor)
		h.WriteFloat32(p.RoughnessFactor)
		h.WriteFloat32(p.OcclusionFactor)
		h.WriteFloat32s(p.EmissiveFactor[:])
	case MaterialSkybox:
		d.Skybox.Cube.hashInto(h)
	case MaterialCustom:
		d.Custom.Pipeline.hashInto(h)
		h.WriteUint64(uint64(len(d.Custom.Textures)))
		for _, t := range d.Custom.Textures {
			t.hashInto(h)
		}
	}
}

// Hash returns the cache key for the material.
//
// Returns:
//   - uint64: the descriptor hash
func (d MaterialDescriptor) Hash() uint64 {
	h := common.NewHasher()
	d.hashInto(h)
	return h.Sum64()
}
