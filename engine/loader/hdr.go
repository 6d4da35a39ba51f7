// hdr.go decodes Radiance RGBE (.hdr) images into linear float RGB pixels.
// Both the adaptive run-length encoded scanline format and flat RGBE records
// (including old-style run markers) are handled.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Carmen-Shannon/orbit-go/common"
)

// HDRImage is a decoded Radiance picture: linear RGB floats, three per pixel,
// row-major from the top-left.
type HDRImage struct {
	// Width, Height are the pixel dimensions.
	Width, Height uint32

	// Pixels holds Width*Height*3 linear float components.
	Pixels []float32
}

// RGBA16FBytes packs the image into little-endian RGBA16Float texels with
// alpha forced to 1, ready for a GPU upload.
//
// Returns:
//   - []byte: the packed texel data, 8 bytes per pixel
func (img *HDRImage) RGBA16FBytes() []byte {
	out := make([]byte, 0, img.Width*img.Height*8)
	one := common.Float16bits(1)
	for i := uint32(0); i < img.Width*img.Height; i++ {
		for c := 0; c < 3; c++ {
			h := common.Float16bits(img.Pixels[i*3+uint32(c)])
			out = append(out, byte(h), byte(h>>8))
		}
		out = append(out, byte(one), byte(one>>8))
	}
	return out
}

// DecodeHDR decodes a Radiance .hdr file.
//
// Parameters:
//   - data: the raw file contents
//
// Returns:
//   - *HDRImage: the decoded image
//   - error: an error if the header or scanline data is malformed
func DecodeHDR(data []byte) (*HDRImage, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	magic, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("hdr: read magic: %w", err)
	}
	if !strings.HasPrefix(magic, "#?RADIANCE") && !strings.HasPrefix(magic, "#?RGBE") {
		return nil, fmt.Errorf("hdr: not a radiance file")
	}

	// Header lines until the blank separator. Only the FORMAT line matters.
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("hdr: read header: %w", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "FORMAT=") && line != "FORMAT=32-bit_rle_rgbe" {
			return nil, fmt.Errorf("hdr: unsupported format %q", strings.TrimPrefix(line, "FORMAT="))
		}
	}

	resLine, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("hdr: read resolution: %w", err)
	}
	var height, width uint32
	if _, err := fmt.Sscanf(resLine, "-Y %d +X %d", &height, &width); err != nil {
		return nil, fmt.Errorf("hdr: unsupported resolution line %q", strings.TrimSpace(resLine))
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("hdr: zero-sized image")
	}

	img := &HDRImage{
		Width:  width,
		Height: height,
		Pixels: make([]float32, width*height*3),
	}

	scanline := make([]byte, width*4)
	for y := uint32(0); y < height; y++ {
		if err := readScanline(r, scanline, width); err != nil {
			return nil, fmt.Errorf("hdr: scanline %d: %w", y, err)
		}
		for x := uint32(0); x < width; x++ {
			r8, g8, b8, e := scanline[x*4], scanline[x*4+1], scanline[x*4+2], scanline[x*4+3]
			off := (y*width + x) * 3
			if e == 0 {
				continue
			}
			scale := float32(math.Ldexp(1, int(e)-136))
			img.Pixels[off] = (float32(r8) + 0.5) * scale
			img.Pixels[off+1] = (float32(g8) + 0.5) * scale
			img.Pixels[off+2] = (float32(b8) + 0.5) * scale
		}
	}
	return img, nil
}

// readScanline fills one RGBE scanline, handling both the adaptive RLE
// encoding and flat records.
func readScanline(r *bufio.Reader, out []byte, width uint32) error {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}

	// Adaptive RLE scanlines start with 2, 2 and the scanline width.
	if header[0] == 2 && header[1] == 2 && header[2]&0x80 == 0 {
		if uint32(header[2])<<8|uint32(header[3]) != width {
			return fmt.Errorf("rle width mismatch")
		}
		return readRLEChannels(r, out, width)
	}

	// Flat RGBE records; the first pixel is already in header.
	return readFlat(r, out, width, header)
}

// readRLEChannels decodes the four separately run-length encoded channel
// planes of an adaptive scanline.
func readRLEChannels(r *bufio.Reader, out []byte, width uint32) error {
	for ch := 0; ch < 4; ch++ {
		x := uint32(0)
		for x < width {
			count, err := r.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				// Run of a repeated byte.
				n := uint32(count) - 128
				if x+n > width {
					return fmt.Errorf("rle run overflow")
				}
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				for i := uint32(0); i < n; i++ {
					out[(x+i)*4+uint32(ch)] = v
				}
				x += n
			} else {
				// Literal bytes.
				n := uint32(count)
				if n == 0 || x+n > width {
					return fmt.Errorf("rle literal overflow")
				}
				for i := uint32(0); i < n; i++ {
					v, err := r.ReadByte()
					if err != nil {
						return err
					}
					out[(x+i)*4+uint32(ch)] = v
				}
				x += n
			}
		}
	}
	return nil
}

// readFlat decodes flat RGBE records, expanding old-style (1,1,1,shift) run
// markers. first holds the already-consumed leading record.
func readFlat(r *bufio.Reader, out []byte, width uint32, first []byte) error {
	record := make([]byte, 4)
	copy(record, first)
	shift := uint(0)

	for x := uint32(0); x < width; {
		if record[0] == 1 && record[1] == 1 && record[2] == 1 {
			// Old-style run: repeat the previous pixel.
			if x == 0 {
				return fmt.Errorf("run marker before first pixel")
			}
			n := uint32(record[3]) << shift
			if x+n > width {
				return fmt.Errorf("flat run overflow")
			}
			for i := uint32(0); i < n; i++ {
				copy(out[(x+i)*4:], out[(x-1)*4:x*4])
			}
			x += n
			shift += 8
		} else {
			copy(out[x*4:], record)
			x++
			shift = 0
		}
		if x < width {
			if _, err := io.ReadFull(r, record); err != nil {
				return err
			}
		}
	}
	return nil
}
