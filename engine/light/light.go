// Package light packs light descriptors into the single storage buffer the
// shading pass reads. Each light occupies 64 bytes: vec4(position, 0),
// vec4(color, 0), vec4(direction, 0), vec4(intensity, type id, inner cone,
// outer cone). An empty world still carries one zeroed dummy record so the
// bind group never has a zero-sized buffer.
package light

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// storage is the implementation of the Storage interface.
type storage struct {
	mu        sync.Mutex
	device    *wgpu.Device
	layout    *wgpu.BindGroupLayout
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	capacity  uint64
	count     int
}

// Storage is the realized light set: one storage buffer rewritten in place
// whenever the world's lights change, plus its bind group.
type Storage interface {
	// Buffer returns the packed light storage buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer handle
	Buffer() *wgpu.Buffer

	// BindGroup returns the light bind group. The handle changes when an
	// update grows the buffer, so callers must re-read it every frame.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group handle
	BindGroup() *wgpu.BindGroup

	// Count returns the number of real lights in the buffer, excluding the
	// dummy record.
	//
	// Returns:
	//   - int: the light count
	Count() int

	// Update repacks the given lights and writes them through the queue.
	// The buffer is recreated only when the packed data outgrows it.
	//
	// Parameters:
	//   - queue: the queue the write is issued on
	//   - lights: the lights to pack, in draw order
	//
	// Returns:
	//   - error: an error if a grown buffer or bind group cannot be created
	Update(queue *wgpu.Queue, lights []descriptor.LightDescriptor) error

	// Release frees the GPU objects. The storage is unusable afterwards.
	Release()
}

var _ Storage = &storage{}

// NewStorage creates light storage holding the given initial lights.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the initial upload is written on
//   - layout: the shared light bind group layout
//   - lights: the initial lights (may be empty)
//
// Returns:
//   - Storage: the realized light storage
//   - error: an error if buffer or bind group creation fails
func NewStorage(device *wgpu.Device, queue *wgpu.Queue, layout *wgpu.BindGroupLayout, lights []descriptor.LightDescriptor) (Storage, error) {
	s := &storage{device: device, layout: layout}
	if err := s.Update(queue, lights); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *storage) Buffer() *wgpu.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

func (s *storage) BindGroup() *wgpu.BindGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindGroup
}

func (s *storage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *storage) Update(queue *wgpu.Queue, lights []descriptor.LightDescriptor) error {
	data := PackLights(lights)

	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(len(data)) > s.capacity {
		if err := s.grow(uint64(len(data))); err != nil {
			return err
		}
	}
	queue.WriteBuffer(s.buffer, 0, data)
	s.count = len(lights)
	return nil
}

// grow replaces the buffer and bind group with ones holding at least size
// bytes. Caller holds the lock.
func (s *storage) grow(size uint64) error {
	buffer, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Light Storage",
		Size:             size,
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("light storage: create buffer: %w", err)
	}

	bindGroup, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Light Storage Bind Group",
		Layout: s.layout,
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
		return fmt.Errorf("light storage: create bind group: %w", err)
	}

	if s.bindGroup != nil {
		s.bindGroup.Release()
	}
	if s.buffer != nil {
		s.buffer.Release()
	}
	s.buffer = buffer
	s.bindGroup = bindGroup
	s.capacity = size
	return nil
}

func (s *storage) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bindGroup != nil {
		s.bindGroup.Release()
		s.bindGroup = nil
	}
	if s.buffer != nil {
		s.buffer.Release()
		s.buffer = nil
	}
	s.capacity = 0
}

// PackLights serializes lights into the 64-byte storage layout. An empty
// slice yields one zeroed dummy record.
//
// Parameters:
//   - lights: the lights to pack
//
// Returns:
//   - []byte: the packed records, always at least one record long
func PackLights(lights []descriptor.LightDescriptor) []byte {
	if len(lights) == 0 {
		return make([]byte, pipeline.LightStride)
	}

	out := make([]byte, 0, len(lights)*pipeline.LightStride)
	var buf [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		out = append(out, buf[:]...)
	}
	for _, l := range lights {
		put(l.Position[0])
		put(l.Position[1])
		put(l.Position[2])
		put(0)
		put(l.Color[0])
		put(l.Color[1])
		put(l.Color[2])
		put(0)
		put(l.Direction[0])
		put(l.Direction[1])
		put(l.Direction[2])
		put(0)
		put(l.Intensity)
		put(float32(l.Type))
		put(l.InnerCone)
		put(l.OuterCone)
	}
	return out
}
