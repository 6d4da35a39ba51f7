package model

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// InstanceStride is the byte size of one packed instance transform, a
// column-major 4×4 model matrix.
const InstanceStride = 64

// model is the implementation of the Model interface.
type model struct {
	mu   sync.Mutex
	desc descriptor.ModelDescriptor

	mesh      Mesh
	materials []material.Material

	device         *wgpu.Device
	instanceBuffer *wgpu.Buffer
	capacity       uint64
	instanceCount  uint32
}

// Model is a realized renderable: shared mesh geometry, the realized
// materials in descriptor order, and an owned per-instance transform buffer
// bound at slot 1.
type Model interface {
	// Descriptor returns the descriptor the model was last updated from.
	//
	// Returns:
	//   - descriptor.ModelDescriptor: the source descriptor
	Descriptor() descriptor.ModelDescriptor

	// Mesh returns the shared mesh geometry. The mesh belongs to the mesh
	// cache, not the model.
	//
	// Returns:
	//   - Mesh: the realized mesh
	Mesh() Mesh

	// Materials returns the realized materials in descriptor order. The
	// materials belong to the material cache, not the model.
	//
	// Returns:
	//   - []material.Material: the realized materials
	Materials() []material.Material

	// InstanceBuffer returns the packed transform buffer. The handle changes
	// when an update grows the buffer, so callers must re-read it every
	// frame.
	//
	// Returns:
	//   - *wgpu.Buffer: the instance buffer handle
	InstanceBuffer() *wgpu.Buffer

	// InstanceCount returns the number of instances currently packed.
	//
	// Returns:
	//   - uint32: the instance count
	InstanceCount() uint32

	// UpdateInstances repacks the descriptor's transforms in ascending id
	// order and writes them through the queue. The buffer is recreated only
	// when the packed data outgrows it.
	//
	// Parameters:
	//   - queue: the queue the write is issued on
	//   - desc: the descriptor carrying the new transforms
	//
	// Returns:
	//   - error: an error if a grown buffer cannot be created
	UpdateInstances(queue *wgpu.Queue, desc descriptor.ModelDescriptor) error

	// Release frees the instance buffer. Mesh and materials are left to
	// their caches.
	Release()
}

var _ Model = &model{}

// New realizes a model around an already-realized mesh and material set.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the instance upload is written on
//   - desc: the model descriptor to realize
//   - mesh: the realized mesh, owned by the mesh cache
//   - materials: the realized materials, owned by the material cache
//
// Returns:
//   - Model: the realized model
//   - error: an error if the instance buffer cannot be created
func New(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.ModelDescriptor, mesh Mesh, materials []material.Material) (Model, error) {
	m := &model{
		desc:      desc,
		mesh:      mesh,
		materials: materials,
		device:    device,
	}
	if err := m.UpdateInstances(queue, desc); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *model) Descriptor() descriptor.ModelDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desc
}

func (m *model) Mesh() Mesh {
	return m.mesh
}

func (m *model) Materials() []material.Material {
	return m.materials
}

func (m *model) InstanceBuffer() *wgpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instanceBuffer
}

func (m *model) InstanceCount() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instanceCount
}

func (m *model) UpdateInstances(queue *wgpu.Queue, desc descriptor.ModelDescriptor) error {
	data := desc.InstanceBytes()
	if len(data) == 0 {
		return fmt.Errorf("model %q: no instances", desc.Label)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(data)) > m.capacity {
		buffer, err := m.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            "Model Instance Buffer",
			Size:             uint64(len(data)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("model %q: create instance buffer: %w", desc.Label, err)
		}
		if m.instanceBuffer != nil {
			m.instanceBuffer.Release()
		}
		m.instanceBuffer = buffer
		m.capacity = uint64(len(data))
	}

	queue.WriteBuffer(m.instanceBuffer, 0, data)
	m.desc = desc
	m.instanceCount = uint32(len(data) / InstanceStride)
	return nil
}

func (m *model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.instanceBuffer != nil {
		m.instanceBuffer.Release()
		m.instanceBuffer = nil
	}
	m.capacity = 0
	m.instanceCount = 0
}
