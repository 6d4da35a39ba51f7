package descriptor

import "github.com/Carmen-Shannon/orbit-go/common"

// EnvironmentSampling selects how the specular radiance chain is convolved.
type EnvironmentSampling int

const (
	// SamplingImportance uses GGX importance sampling per mip.
	SamplingImportance EnvironmentSampling = iota

	// SamplingBoxBlur uses a cheap box filter per mip, for low-end targets.
	SamplingBoxBlur
)

// SkyboxKind selects which cube map the skybox pass displays; the diffuse
// and specular variants exist for debugging the IBL chain.
type SkyboxKind int

const (
	// SkyboxSurface shows the source environment cube.
	SkyboxSurface SkyboxKind = iota

	// SkyboxDiffuse shows the diffuse irradiance cube.
	SkyboxDiffuse

	// SkyboxSpecular shows one mip of the specular radiance cube.
	SkyboxSpecular
)

// DefaultSpecularMipLevels is the specular radiance chain depth before
// clamping to what the face size can hold.
const DefaultSpecularMipLevels = 7

// WorldEnvironmentDescriptor describes the image-based lighting environment:
// an equirectangular Radiance HDR source projected onto a cube, convolved
// into diffuse irradiance and a specular radiance mip chain. Replacing the
// world's descriptor triggers recomputation, short-circuited by the on-disk
// cache keyed on this descriptor's hash.
type WorldEnvironmentDescriptor struct {
	// Path is the .hdr file path. Empty when Data is set.
	Path string

	// Data holds the raw .hdr file bytes when the source is in memory.
	Data []byte

	// FaceSize is the environment cube's face edge length in texels.
	FaceSize uint32

	// Sampling selects the specular convolution method.
	Sampling EnvironmentSampling

	// SpecularMipLevels is the requested specular chain depth, clamped at
	// realization to ⌊log2(FaceSize)⌋+1.
	SpecularMipLevels uint32

	// Skybox selects which cube the skybox pass displays.
	Skybox SkyboxKind

	// SkyboxMip is the displayed mip for SkyboxSpecular.
	SkyboxMip uint32
}

// EnvironmentFromFile describes an environment loaded from an .hdr file with
// the default sampling mode and mip depth.
//
// Parameters:
//   - path: the Radiance HDR file path
//   - faceSize: the environment cube's face edge length in texels
//
// Returns:
//   - WorldEnvironmentDescriptor: the descriptor
func EnvironmentFromFile(path string, faceSize uint32) WorldEnvironmentDescriptor {
	return WorldEnvironmentDescriptor{
		Path:              path,
		FaceSize:          faceSize,
		Sampling:          SamplingImportance,
		SpecularMipLevels: DefaultSpecularMipLevels,
	}
}

// Cube returns the descriptor for the environment's source cube texture.
//
// Returns:
//   - CubeTextureDescriptor: the source cube texture descriptor
func (d WorldEnvironmentDescriptor) Cube() CubeTextureDescriptor {
	return CubeTextureDescriptor{Path: d.Path, Data: d.Data, FaceSize: d.FaceSize}
}

// Hash returns the cache key for the environment. The skybox display fields
// are excluded: switching what the skybox shows must not invalidate the
// computed IBL chain or its disk cache.
//
// Returns:
//   - uint64: the descriptor hash
func (d WorldEnvironmentDescriptor) Hash() uint64 {
	h := common.NewHasher()
	h.WriteString(d.Path)
	h.WriteBytes(d.Data)
	h.WriteUint32(d.FaceSize)
	h.WriteUint32(uint32(d.Sampling))
	h.WriteUint32(d.SpecularMipLevels)
	return h.Sum64()
}
