package descriptor

import (
	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureSourceKind discriminates where texture texels come from.
type TextureSourceKind int

const (
	// TextureSourceFile loads an image file from disk at realization.
	TextureSourceFile TextureSourceKind = iota

	// TextureSourceBytes uploads raw texel bytes with an explicit size,
	// format and usage.
	TextureSourceBytes

	// TextureSourcePixel uploads a single RGBA8 texel, used to back
	// material factors when a map is absent.
	TextureSourcePixel

	// TextureSourceCustom gives full control over the texture, view and
	// sampler creation parameters plus the initial data.
	TextureSourceCustom
)

// SamplerDescriptor describes sampler creation parameters. The zero value is
// not meaningful; use DefaultSampler for the engine-wide default.
type SamplerDescriptor struct {
	// AddressMode applies to all three coordinates.
	AddressMode wgpu.AddressMode

	// MagFilter is the magnification filter.
	MagFilter wgpu.FilterMode

	// MinFilter is the minification filter.
	MinFilter wgpu.FilterMode

	// MipmapFilter selects filtering between mip levels.
	MipmapFilter wgpu.MipmapFilterMode

	// MaxAnisotropy is the anisotropic sample cap.
	MaxAnisotropy uint16
}

// DefaultSampler returns the sampler used by every realization that does not
// override it: clamp-to-edge, linear magnification, nearest minification and
// mip selection, no anisotropy.
//
// Returns:
//   - SamplerDescriptor: the default sampler parameters
func DefaultSampler() SamplerDescriptor {
	return SamplerDescriptor{
		AddressMode:   wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	}
}

// TextureDescriptor is the pure description of a 2D texture. Hash and
// equality cover every texel byte, so two descriptors collide only when their
// realizations are interchangeable.
type TextureDescriptor struct {
	// Kind selects the source variant.
	Kind TextureSourceKind

	// Path is the image file path for TextureSourceFile.
	Path string

	// Data holds raw texel bytes for TextureSourceBytes and
	// TextureSourceCustom, or the single RGBA8 texel for TextureSourcePixel.
	Data []byte

	// Width, Height are the texel dimensions for the bytes and custom
	// variants. File sources take their size from the decoded image.
	Width, Height uint32

	// Format is the texture format. File sources default to RGBA8 sRGB,
	// single-channel masks to R8.
	Format wgpu.TextureFormat

	// Usage is the requested usage set.
	Usage wgpu.TextureUsage

	// MipLevelCount applies to TextureSourceCustom; the other variants
	// allocate a single level.
	MipLevelCount uint32

	// ViewDimension applies to TextureSourceCustom.
	ViewDimension wgpu.TextureViewDimension

	// Sampler describes the sampler to create alongside the texture.
	Sampler SamplerDescriptor
}

// TextureFromFile describes a color texture loaded from an image file and
// stored as RGBA8 sRGB.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - TextureDescriptor: the descriptor
func TextureFromFile(path string) TextureDescriptor {
	return TextureDescriptor{
		Kind:    TextureSourceFile,
		Path:    path,
		Format:  wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:   wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Sampler: DefaultSampler(),
	}
}

// TextureFromBytes describes a texture uploaded from raw texel bytes.
//
// Parameters:
//   - data: the texel bytes, tightly packed row-major
//   - width: the width in texels
//   - height: the height in texels
//   - format: the texture format the bytes are laid out in
//
// Returns:
//   - TextureDescriptor: the descriptor
func TextureFromBytes(data []byte, width, height uint32, format wgpu.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Kind:    TextureSourceBytes,
		Data:    data,
		Width:   width,
		Height:  height,
		Format:  format,
		Usage:   wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Sampler: DefaultSampler(),
	}
}

// TextureFromPixel describes a 1×1 RGBA8 texture holding a single color,
// used wherever a material factor stands in for a missing map.
//
// Parameters:
//   - r, g, b, a: the texel channels
//
// Returns:
//   - TextureDescriptor: the descriptor
func TextureFromPixel(r, g, b, a uint8) TextureDescriptor {
	return TextureDescriptor{
		Kind:    TextureSourcePixel,
		Data:    []byte{r, g, b, a},
		Width:   1,
		Height:  1,
		Format:  wgpu.TextureFormatRGBA8Unorm,
		Usage:   wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Sampler: DefaultSampler(),
	}
}

func (s SamplerDescriptor) hashInto(h *common.Hasher) {
	h.WriteUint32(uint32(s.AddressMode))
	h.WriteUint32(uint32(s.MagFilter))
	h.WriteUint32(uint32(s.MinFilter))
	h.WriteUint32(uint32(s.MipmapFilter))
	h.WriteUint32(uint32(s.MaxAnisotropy))
}

func (d TextureDescriptor) hashInto(h *common.Hasher) {
	h.WriteUint32(uint32(d.Kind))
	h.WriteString(d.Path)
	h.WriteBytes(d.Data)
	h.WriteUint32(d.Width)
	h.WriteUint32(d.Height)
	h.WriteUint32(uint32(d.Format))
	h.WriteUint32(uint32(d.Usage))
	h.WriteUint32(d.MipLevelCount)
	h.WriteUint32(uint32(d.ViewDimension))
	d.Sampler.hashInto(h)
}

// Hash returns the cache key for the texture.
//
// Returns:
//   - uint64: the descriptor hash
func (d TextureDescriptor) Hash() uint64 {
	h := common.NewHasher()
	d.hashInto(h)
	return h.Sum64()
}
