package environment

import (
	"fmt"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// readbackRowAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const readbackRowAlignment = wgpu.CopyBytesPerRowAlignment

// dispatchCompute builds a one-shot compute pipeline from an inline shader
// descriptor, binds the given entries at group 0 and submits a single
// dispatch.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the dispatch is submitted on
//   - desc: the compute shader descriptor
//   - entries: the group-0 bind group entries, matching the shader variables
//   - x, y, z: the workgroup counts
//
// Returns:
//   - error: an error if pipeline or bind group creation fails
func dispatchCompute(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.ShaderDescriptor, entries []wgpu.BindGroupEntry, x, y, z uint32) error {
	sh, err := shader.New(desc, "")
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	module, err := device.CreateShaderModule(sh.Module())
	if err != nil {
		return fmt.Errorf("environment: compile %q: %w", desc.Name, err)
	}
	defer module.Release()

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Name + " Layout",
		Entries: sh.LayoutEntries()[0],
	})
	if err != nil {
		return fmt.Errorf("environment: create %q layout: %w", desc.Name, err)
	}
	defer layout.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("environment: create %q pipeline layout: %w", desc.Name, err)
	}
	defer pipelineLayout.Release()

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Name,
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: sh.ComputeEntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("environment: create %q pipeline: %w", desc.Name, err)
	}
	defer pipeline.Release()

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Name,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("environment: create %q bind group: %w", desc.Name, err)
	}
	defer bindGroup.Release()

	encoder, err := device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("environment: create encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, z)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("environment: finish encoder: %w", err)
	}
	defer cmd.Release()
	queue.Submit(cmd)

	return nil
}

// alignRow rounds a tight row byte length up to the copy alignment.
func alignRow(row uint32) uint32 {
	align := uint32(readbackRowAlignment)
	return (row + align - 1) / align * align
}

// readTextureLevel copies one mip of a layered RGBA16Float texture back to
// host memory and strips the row padding, returning the texels tightly
// packed layer-major.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the copy is submitted on
//   - tex: the texture to read, created with CopySrc usage
//   - size: the mip's face edge length in texels
//   - layers: the array layer count
//   - mip: the mip level to read
//
// Returns:
//   - []byte: the tightly packed texels, size² × layers × 8 bytes
//   - error: an error if the copy or the map fails
func readTextureLevel(device *wgpu.Device, queue *wgpu.Queue, tex *wgpu.Texture, size, layers, mip uint32) ([]byte, error) {
	tightRow := size * faceTexelBytes
	paddedRow := alignRow(tightRow)
	bufferSize := uint64(paddedRow) * uint64(size) * uint64(layers)

	buffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Environment Readback",
		Size:             bufferSize,
		Usage:            wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("environment: create readback buffer: %w", err)
	}
	defer buffer.Release()

	encoder, err := device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("environment: create readback encoder: %w", err)
	}
	defer encoder.Release()

	err = encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: mip,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  paddedRow,
				RowsPerImage: size,
			},
		},
		&wgpu.Extent3D{
			Width:              size,
			Height:             size,
			DepthOrArrayLayers: layers,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("environment: copy texture to buffer: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("environment: finish readback encoder: %w", err)
	}
	defer cmd.Release()
	queue.Submit(cmd)

	var status wgpu.BufferMapAsyncStatus
	if err := buffer.MapAsync(wgpu.MapModeRead, 0, bufferSize, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return nil, fmt.Errorf("environment: map readback buffer: %w", err)
	}
	device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("environment: readback map status %d", status)
	}

	mapped := buffer.GetMappedRange(0, uint(bufferSize))
	out := unpadRows(mapped, tightRow, paddedRow, size*layers)
	buffer.Unmap()
	return out, nil
}

// unpadRows copies rows out of an aligned readback buffer into a tightly
// packed slice.
func unpadRows(data []byte, tightRow, paddedRow, rows uint32) []byte {
	if tightRow == paddedRow {
		out := make([]byte, uint64(tightRow)*uint64(rows))
		copy(out, data)
		return out
	}
	out := make([]byte, 0, uint64(tightRow)*uint64(rows))
	for row := uint32(0); row < rows; row++ {
		start := uint64(row) * uint64(paddedRow)
		out = append(out, data[start:start+uint64(tightRow)]...)
	}
	return out
}

// writeTextureLevel uploads tightly packed RGBA16Float texels into one mip
// of a layered texture.
//
// Parameters:
//   - queue: the queue the write is issued on
//   - tex: the destination texture, created with CopyDst usage
//   - data: the tightly packed texels, size² × layers × 8 bytes
//   - size: the mip's face edge length in texels
//   - layers: the array layer count
//   - mip: the destination mip level
func writeTextureLevel(queue *wgpu.Queue, tex *wgpu.Texture, data []byte, size, layers, mip uint32) {
	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: mip,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  size * faceTexelBytes,
			RowsPerImage: size,
		},
		&wgpu.Extent3D{
			Width:              size,
			Height:             size,
			DepthOrArrayLayers: layers,
		},
	)
}
