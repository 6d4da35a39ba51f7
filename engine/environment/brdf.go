package environment

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// BRDFLUTSize is the edge length of the BRDF integration lookup table.
const BRDFLUTSize = 512

// brdfLUT is the integrated BRDF table for one device. It lives as long as
// the device does and is shared by every environment realized on it.
type brdfLUT struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

var (
	brdfMu   sync.Mutex
	brdfLUTs = map[*wgpu.Device]*brdfLUT{}
)

// lutForDevice returns the device's BRDF LUT, integrating it on first use.
func lutForDevice(device *wgpu.Device, queue *wgpu.Queue) (*brdfLUT, error) {
	brdfMu.Lock()
	defer brdfMu.Unlock()

	if lut, ok := brdfLUTs[device]; ok {
		return lut, nil
	}

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "BRDF LUT",
		Size: wgpu.Extent3D{
			Width:              BRDFLUTSize,
			Height:             BRDFLUTSize,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA16Float,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("environment: create BRDF LUT: %w", err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("environment: create BRDF LUT view: %w", err)
	}

	groups := uint32((BRDFLUTSize + convolutionWorkgroupSize - 1) / convolutionWorkgroupSize)
	if err := dispatchCompute(device, queue, brdfShaderDescriptor(), []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: view},
	}, groups, groups, 1); err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	lut := &brdfLUT{tex: tex, view: view}
	brdfLUTs[device] = lut
	return lut, nil
}
