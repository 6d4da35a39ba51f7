// Package camera realizes camera descriptors into the GPU uniform consumed
// by every render pass: an 80-byte buffer holding the column-major
// view-projection matrix, the eye position, and a trailing float carrying
// the global gamma.
package camera

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// camera is the implementation of the Camera interface.
type camera struct {
	mu        sync.Mutex
	desc      descriptor.CameraDescriptor
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// Camera is a realized camera: the uniform buffer plus the bind group that
// pipelines including the camera layout bind at their camera group index.
type Camera interface {
	// Descriptor returns the camera's current descriptor.
	//
	// Returns:
	//   - descriptor.CameraDescriptor: the current parameters
	Descriptor() descriptor.CameraDescriptor

	// SetDescriptor replaces the camera parameters. The GPU buffer is not
	// touched until UpdateBuffer.
	//
	// Parameters:
	//   - desc: the new parameters
	SetDescriptor(desc descriptor.CameraDescriptor)

	// Buffer returns the 80-byte uniform buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the uniform buffer handle
	Buffer() *wgpu.Buffer

	// BindGroup returns the camera bind group.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group handle
	BindGroup() *wgpu.BindGroup

	// UpdateBuffer recomputes the uniform from the current descriptor and
	// writes it through the queue. Call after every parameter change.
	//
	// Parameters:
	//   - queue: the queue the write is issued on
	UpdateBuffer(queue *wgpu.Queue)

	// Release frees the GPU objects. The camera is unusable afterwards.
	Release()
}

var _ Camera = &camera{}

// New realizes a camera: creates the uniform buffer, builds its bind group
// against the shared camera layout, and uploads the initial uniform.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the initial upload is written on
//   - layout: the shared camera bind group layout
//   - desc: the camera descriptor
//
// Returns:
//   - Camera: the realized camera
//   - error: an error if buffer or bind group creation fails
func New(device *wgpu.Device, queue *wgpu.Queue, layout *wgpu.BindGroupLayout, desc descriptor.CameraDescriptor) (Camera, error) {
	buffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Camera Uniform " + desc.Label,
		Size:             pipeline.CameraUniformSize,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("camera %q: create buffer: %w", desc.Label, err)
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera Bind Group " + desc.Label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		buffer.Release()
		return nil, fmt.Errorf("camera %q: create bind group: %w", desc.Label, err)
	}

	c := &camera{desc: desc, buffer: buffer, bindGroup: bindGroup}
	c.UpdateBuffer(queue)
	return c, nil
}

func (c *camera) Descriptor() descriptor.CameraDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc
}

func (c *camera) SetDescriptor(desc descriptor.CameraDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desc = desc
}

func (c *camera) Buffer() *wgpu.Buffer {
	return c.buffer
}

func (c *camera) BindGroup() *wgpu.BindGroup {
	return c.bindGroup
}

func (c *camera) UpdateBuffer(queue *wgpu.Queue) {
	c.mu.Lock()
	desc := c.desc
	c.mu.Unlock()
	queue.WriteBuffer(c.buffer, 0, UniformBytes(desc))
}

func (c *camera) Release() {
	c.bindGroup.Release()
	c.buffer.Release()
}

// UniformBytes packs the camera uniform: view-projection column-major, then
// the eye position, then the global gamma, 80 bytes little-endian. The
// view-projection is the WebGPU depth correction times the perspective
// projection times the right-handed look-to view.
//
// Parameters:
//   - desc: the camera parameters to pack
//
// Returns:
//   - []byte: the 80-byte uniform contents
func UniformBytes(desc descriptor.CameraDescriptor) []byte {
	var view, proj, vp [16]float32
	common.LookTo(view[:], desc.Position, common.Forward(desc.Pitch, desc.Yaw), [3]float32{0, 1, 0})
	common.Perspective(proj[:], desc.FovY, desc.Aspect, desc.Near, desc.Far)
	common.Mul4(vp[:], proj[:], view[:])
	common.Mul4(vp[:], common.OpenGLToWGPU[:], vp[:])

	out := make([]byte, 0, pipeline.CameraUniformSize)
	var buf [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		out = append(out, buf[:]...)
	}
	for _, f := range vp {
		put(f)
	}
	for _, f := range desc.Position {
		put(f)
	}
	put(desc.GlobalGamma)
	return out
}
