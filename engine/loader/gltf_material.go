package loader

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	// Register the decoders glTF images commonly use.
	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser
}

// gltfMaterialExtractor defines the interface for converting glTF
// metallic-roughness materials into engine material descriptors.
type gltfMaterialExtractor interface {
	// ExtractMaterial converts a single material by index, loading and
	// repacking any referenced texture data.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - descriptor.MaterialDescriptor: the converted PBR material
	//   - error: error if extraction fails
	ExtractMaterial(materialIndex int) (descriptor.MaterialDescriptor, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (descriptor.MaterialDescriptor, error) {
	doc := e.parser.Document()
	if doc == nil {
		return descriptor.MaterialDescriptor{}, fmt.Errorf("no document loaded")
	}
	if materialIndex < 0 || materialIndex >= len(doc.Materials) {
		return descriptor.MaterialDescriptor{}, fmt.Errorf("material index %d out of range", materialIndex)
	}

	mat := &doc.Materials[materialIndex]

	// Start from the neutral material so absent maps keep their 1x1
	// stand-ins and the bind group shape never changes.
	result := descriptor.DefaultPBRMaterial()
	pbr := result.PBR

	if mr := mat.PbrMetallicRoughness; mr != nil {
		if mr.BaseColorFactor != nil {
			pbr.AlbedoFactor = *mr.BaseColorFactor
		}
		if mr.MetallicFactor != nil {
			pbr.MetallicFactor = *mr.MetallicFactor
		}
		if mr.RoughnessFactor != nil {
			pbr.RoughnessFactor = *mr.RoughnessFactor
		}

		if mr.BaseColorTexture != nil {
			tex, err := e.colorTexture(mr.BaseColorTexture.Index, true)
			if err != nil {
				return descriptor.MaterialDescriptor{}, fmt.Errorf("material %q: base color texture: %w", mat.Name, err)
			}
			pbr.Albedo = tex
		}

		if mr.MetallicRoughnessTexture != nil {
			// glTF packs metalness in the blue channel and roughness in the
			// green channel of one image; the engine samples them as
			// separate single-channel maps.
			metallic, roughness, err := e.splitMetallicRoughness(mr.MetallicRoughnessTexture.Index)
			if err != nil {
				return descriptor.MaterialDescriptor{}, fmt.Errorf("material %q: metallic-roughness texture: %w", mat.Name, err)
			}
			pbr.Metallic = metallic
			pbr.Roughness = roughness
		}
	}

	if mat.NormalTexture != nil {
		tex, err := e.colorTexture(mat.NormalTexture.Index, false)
		if err != nil {
			return descriptor.MaterialDescriptor{}, fmt.Errorf("material %q: normal texture: %w", mat.Name, err)
		}
		pbr.Normal = tex
	}

	if mat.OcclusionTexture != nil {
		tex, err := e.channelTexture(mat.OcclusionTexture.Index, 0)
		if err != nil {
			return descriptor.MaterialDescriptor{}, fmt.Errorf("material %q: occlusion texture: %w", mat.Name, err)
		}
		pbr.Occlusion = tex
		if mat.OcclusionTexture.Strength != nil {
			pbr.OcclusionFactor = *mat.OcclusionTexture.Strength
		}
	}

	if mat.EmissiveFactor != nil {
		pbr.EmissiveFactor = *mat.EmissiveFactor
	}
	if mat.EmissiveTexture != nil {
		tex, err := e.colorTexture(mat.EmissiveTexture.Index, true)
		if err != nil {
			return descriptor.MaterialDescriptor{}, fmt.Errorf("material %q: emissive texture: %w", mat.Name, err)
		}
		pbr.Emissive = &tex
		if mat.EmissiveFactor == nil {
			// glTF defaults the factor to black, which would mask the map.
			pbr.EmissiveFactor = [3]float32{1, 1, 1}
		}
	} else if pbr.EmissiveFactor != [3]float32{} {
		white := descriptor.TextureFromPixel(255, 255, 255, 255)
		pbr.Emissive = &white
	}

	return result, nil
}

// colorTexture resolves a glTF texture index into a full-color texture
// descriptor. External file references stay path-based so the texture cache
// can defer decoding; embedded images are decoded and repacked here. srgb
// selects sRGB sampling, which color maps want and normal maps must avoid.
func (e *gltfMaterialExtractorImpl) colorTexture(textureIndex int, srgb bool) (descriptor.TextureDescriptor, error) {
	path, data, sampler, err := e.resolveImage(textureIndex)
	if err != nil {
		return descriptor.TextureDescriptor{}, err
	}

	format := wgpu.TextureFormatRGBA8Unorm
	if srgb {
		format = wgpu.TextureFormatRGBA8UnormSrgb
	}

	if path != "" {
		tex := descriptor.TextureFromFile(path)
		tex.Format = format
		tex.Sampler = sampler
		return tex, nil
	}

	texels, width, height, err := decodeImageRGBA(data)
	if err != nil {
		return descriptor.TextureDescriptor{}, err
	}
	tex := descriptor.TextureFromBytes(texels, width, height, format)
	tex.Sampler = sampler
	return tex, nil
}

// channelTexture resolves a glTF texture index and extracts one channel into
// a single-channel R8 texture descriptor.
func (e *gltfMaterialExtractorImpl) channelTexture(textureIndex, channel int) (descriptor.TextureDescriptor, error) {
	texels, width, height, sampler, err := e.decodeResolved(textureIndex)
	if err != nil {
		return descriptor.TextureDescriptor{}, err
	}

	single := make([]byte, width*height)
	for i := range single {
		single[i] = texels[i*4+channel]
	}
	tex := descriptor.TextureFromBytes(single, width, height, wgpu.TextureFormatR8Unorm)
	tex.Sampler = sampler
	return tex, nil
}

// splitMetallicRoughness decodes a packed metallic-roughness image into the
// two single-channel descriptors the PBR bind group expects.
func (e *gltfMaterialExtractorImpl) splitMetallicRoughness(textureIndex int) (descriptor.TextureDescriptor, descriptor.TextureDescriptor, error) {
	texels, width, height, sampler, err := e.decodeResolved(textureIndex)
	if err != nil {
		return descriptor.TextureDescriptor{}, descriptor.TextureDescriptor{}, err
	}

	metallic := make([]byte, width*height)
	roughness := make([]byte, width*height)
	for i := range metallic {
		roughness[i] = texels[i*4+1]
		metallic[i] = texels[i*4+2]
	}

	m := descriptor.TextureFromBytes(metallic, width, height, wgpu.TextureFormatR8Unorm)
	m.Sampler = sampler
	r := descriptor.TextureFromBytes(roughness, width, height, wgpu.TextureFormatR8Unorm)
	r.Sampler = sampler
	return m, r, nil
}

// decodeResolved resolves a texture index and always decodes the image,
// reading external files from disk when needed.
func (e *gltfMaterialExtractorImpl) decodeResolved(textureIndex int) ([]byte, uint32, uint32, descriptor.SamplerDescriptor, error) {
	path, data, sampler, err := e.resolveImage(textureIndex)
	if err != nil {
		return nil, 0, 0, descriptor.SamplerDescriptor{}, err
	}
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, 0, 0, descriptor.SamplerDescriptor{}, fmt.Errorf("failed to read image file %q: %w", path, err)
		}
	}
	texels, width, height, err := decodeImageRGBA(data)
	if err != nil {
		return nil, 0, 0, descriptor.SamplerDescriptor{}, err
	}
	return texels, width, height, sampler, nil
}

// resolveImage maps a glTF texture index to either an external file path or
// raw encoded image bytes, plus the sampler the texture references.
func (e *gltfMaterialExtractorImpl) resolveImage(textureIndex int) (string, []byte, descriptor.SamplerDescriptor, error) {
	doc := e.parser.Document()
	sampler := gltfDefaultSampler()

	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return "", nil, sampler, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	tex := &doc.Textures[textureIndex]

	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(doc.Samplers) {
		sampler = gltfSamplerToDescriptor(&doc.Samplers[*tex.Sampler])
	}

	if tex.Source == nil {
		return "", nil, sampler, fmt.Errorf("texture %d has no image source", textureIndex)
	}
	imageIndex := *tex.Source
	if imageIndex < 0 || imageIndex >= len(doc.Images) {
		return "", nil, sampler, fmt.Errorf("image index %d out of range", imageIndex)
	}
	img := &doc.Images[imageIndex]

	// Case 1: image embedded in a buffer view (common in GLB).
	if img.BufferView != nil {
		data, err := e.readBufferViewRaw(*img.BufferView)
		if err != nil {
			return "", nil, sampler, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		return "", data, sampler, nil
	}

	// Case 2: base64 data URI.
	if strings.HasPrefix(img.URI, "data:") {
		data, err := gltfLoadDataURI(img.URI)
		if err != nil {
			return "", nil, sampler, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		return "", data, sampler, nil
	}

	// Case 3: external file reference relative to the document.
	if img.URI != "" {
		return filepath.Join(e.parser.BaseDir(), img.URI), nil, sampler, nil
	}

	return "", nil, sampler, fmt.Errorf("image %d has no URI and no buffer view", imageIndex)
}

// readBufferViewRaw reads raw bytes from a buffer view by index (not through
// an accessor). Image data sits directly in buffer views without accessor
// interpretation.
func (e *gltfMaterialExtractorImpl) readBufferViewRaw(bufferViewIndex int) ([]byte, error) {
	doc := e.parser.Document()
	if bufferViewIndex < 0 || bufferViewIndex >= len(doc.BufferViews) {
		return nil, fmt.Errorf("bufferView index %d out of range", bufferViewIndex)
	}

	bv := &doc.BufferViews[bufferViewIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}

	buf := &doc.Buffers[bv.Buffer]
	start := bv.ByteOffset
	end := start + bv.ByteLength
	if end > len(buf.Data) {
		return nil, fmt.Errorf("bufferView exceeds buffer bounds: offset=%d length=%d bufSize=%d", start, bv.ByteLength, len(buf.Data))
	}

	data := make([]byte, bv.ByteLength)
	copy(data, buf.Data[start:end])
	return data, nil
}

// decodeImageRGBA decodes an encoded PNG or JPEG image into tightly packed
// RGBA8 texels.
func decodeImageRGBA(data []byte) ([]byte, uint32, uint32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba.Pix, uint32(bounds.Dx()), uint32(bounds.Dy()), nil
}

// gltfDefaultSampler returns the glTF spec default sampling parameters:
// repeat wrapping with linear filtering.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
func gltfDefaultSampler() descriptor.SamplerDescriptor {
	return descriptor.SamplerDescriptor{
		AddressMode:   wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	}
}

// gltfSamplerToDescriptor converts a glTF sampler definition into engine
// sampler parameters. Unset fields fall back to the glTF spec defaults.
//
// Parameters:
//   - s: the glTF sampler to convert
//
// Returns:
//   - descriptor.SamplerDescriptor: the converted sampler parameters
func gltfSamplerToDescriptor(s *gltfSampler) descriptor.SamplerDescriptor {
	result := gltfDefaultSampler()

	if s.MagFilter != nil && *s.MagFilter == gltfFilterNearest {
		result.MagFilter = wgpu.FilterModeNearest
	}

	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			result.MinFilter = wgpu.FilterModeNearest
		case gltfFilterLinear, gltfFilterLinearMipmapNearest, gltfFilterLinearMipmapLinear:
			result.MinFilter = wgpu.FilterModeLinear
		}
		switch *s.MinFilter {
		case gltfFilterNearestMipmapLinear, gltfFilterLinearMipmapLinear:
			result.MipmapFilter = wgpu.MipmapFilterModeLinear
		default:
			result.MipmapFilter = wgpu.MipmapFilterModeNearest
		}
	}

	if s.WrapS != nil {
		result.AddressMode = gltfWrapToAddressMode(*s.WrapS)
	}

	return result
}

// gltfWrapToAddressMode converts a glTF wrap mode constant to a wgpu
// AddressMode.
//
// Parameters:
//   - wrap: the glTF wrap mode constant
//
// Returns:
//   - wgpu.AddressMode: the corresponding wgpu address mode
func gltfWrapToAddressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
