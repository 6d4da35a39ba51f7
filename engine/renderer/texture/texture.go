// Package texture realizes texture descriptors into GPU textures, views and
// samplers. 2D textures come from image files, raw texel bytes or single
// pixels; cube textures are projected from equirectangular Radiance HDR
// sources by a compute pass.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// texture is the implementation of the Texture interface.
type texture struct {
	tex     *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

// Texture is a realized 2D texture with its default view and sampler, ready
// to be placed into material bind groups.
type Texture interface {
	// Texture returns the underlying GPU texture.
	//
	// Returns:
	//   - *wgpu.Texture: the texture handle
	Texture() *wgpu.Texture

	// View returns the texture's default view.
	//
	// Returns:
	//   - *wgpu.TextureView: the view handle
	View() *wgpu.TextureView

	// Sampler returns the sampler created from the descriptor's sampler
	// parameters.
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler handle
	Sampler() *wgpu.Sampler

	// Release frees the GPU objects. The texture is unusable afterwards.
	Release()
}

var _ Texture = &texture{}

// New realizes a texture descriptor on the given device.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue texel uploads are written through
//   - desc: the texture descriptor to realize
//
// Returns:
//   - Texture: the realized texture
//   - error: an error if the source cannot be decoded or GPU creation fails
func New(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.TextureDescriptor) (Texture, error) {
	data := desc.Data
	width, height := desc.Width, desc.Height
	format := desc.Format

	if desc.Kind == descriptor.TextureSourceFile {
		pixels, w, h, err := decodeImageFile(desc.Path)
		if err != nil {
			return nil, err
		}
		data, width, height = pixels, w, h
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("texture: zero-sized source (%dx%d)", width, height)
	}

	bpp, err := bytesPerPixel(format)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) != width*height*bpp {
		return nil, fmt.Errorf("texture: %d data bytes for %dx%d %d-byte texels", len(data), width, height, bpp)
	}

	mipLevels := desc.MipLevelCount
	if mipLevels == 0 {
		mipLevels = 1
	}

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: mipLevels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create: %w", err)
	}

	writeAligned(queue, tex, data, width, height, bpp)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("texture: create view: %w", err)
	}

	sampler, err := createSampler(device, desc.Sampler)
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	return &texture{tex: tex, view: view, sampler: sampler}, nil
}

func (t *texture) Texture() *wgpu.Texture {
	return t.tex
}

func (t *texture) View() *wgpu.TextureView {
	return t.view
}

func (t *texture) Sampler() *wgpu.Sampler {
	return t.sampler
}

func (t *texture) Release() {
	t.sampler.Release()
	t.view.Release()
	t.tex.Release()
}

// createSampler creates a sampler from descriptor parameters, applying the
// engine defaults for any zero-valued filter fields.
func createSampler(device *wgpu.Device, s descriptor.SamplerDescriptor) (*wgpu.Sampler, error) {
	maxAniso := s.MaxAnisotropy
	if maxAniso == 0 {
		maxAniso = 1
	}
	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Texture Sampler",
		AddressModeU:  s.AddressMode,
		AddressModeV:  s.AddressMode,
		AddressModeW:  s.AddressMode,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: maxAniso,
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create sampler: %w", err)
	}
	return sampler, nil
}

// writeAligned uploads texel rows padded to the 256-byte bytes-per-row
// requirement for texture copies.
func writeAligned(queue *wgpu.Queue, tex *wgpu.Texture, data []byte, width, height, bpp uint32) {
	padded, bytesPerRow := padRows(data, width, height, bpp)
	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		padded,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
}

// padRows repacks tightly packed rows so each row starts on a
// wgpu.CopyBytesPerRowAlignment boundary. Already-aligned data is returned
// unchanged.
func padRows(data []byte, width, height, bpp uint32) ([]byte, uint32) {
	unpadded := width * bpp
	align := uint32(wgpu.CopyBytesPerRowAlignment)
	padded := (unpadded + align - 1) / align * align
	if padded == unpadded {
		return data, unpadded
	}

	out := make([]byte, padded*height)
	for row := uint32(0); row < height; row++ {
		copy(out[row*padded:], data[row*unpadded:(row+1)*unpadded])
	}
	return out, padded
}

// bytesPerPixel returns the texel size for the formats the engine uploads.
func bytesPerPixel(format wgpu.TextureFormat) (uint32, error) {
	switch format {
	case wgpu.TextureFormatR8Unorm:
		return 1, nil
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return 4, nil
	case wgpu.TextureFormatRGBA16Float:
		return 8, nil
	case wgpu.TextureFormatRGBA32Float:
		return 16, nil
	default:
		return 0, fmt.Errorf("texture: unsupported upload format %v", format)
	}
}

// decodeImageFile decodes a PNG or JPEG file into tightly packed RGBA bytes.
func decodeImageFile(path string) ([]byte, uint32, uint32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("texture: read %q: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("texture: decode %q: %w", path, err)
	}
	pixels, w, h := imageToRGBA(img)
	return pixels, w, h, nil
}

// imageToRGBA converts any decoded image into tightly packed RGBA bytes.
func imageToRGBA(img image.Image) ([]byte, uint32, uint32) {
	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	w, h := uint32(bounds.Dx()), uint32(bounds.Dy())
	if rgba.Stride == int(w)*4 {
		return rgba.Pix, w, h
	}
	out := make([]byte, w*h*4)
	for row := uint32(0); row < h; row++ {
		copy(out[row*w*4:], rgba.Pix[row*uint32(rgba.Stride):row*uint32(rgba.Stride)+w*4])
	}
	return out, w, h
}
