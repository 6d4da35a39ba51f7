// Package model realizes mesh and model descriptors into the GPU buffers the
// opaque pass draws from. Meshes are shared through the renderer's mesh cache;
// models own their instance buffer and borrow mesh and materials from their
// caches.
package model

import (
	"fmt"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	desc         descriptor.MeshDescriptor
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   uint32
	bounds       descriptor.BoundingBox
}

// Mesh is realized mesh geometry: one vertex buffer in the 56-byte
// interleaved layout, one 32-bit index buffer, and the precomputed bounds.
type Mesh interface {
	// Descriptor returns the descriptor the mesh was realized from.
	//
	// Returns:
	//   - descriptor.MeshDescriptor: the source descriptor
	Descriptor() descriptor.MeshDescriptor

	// VertexBuffer returns the interleaved vertex buffer bound at slot 0.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer handle
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the uint32 index buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer handle
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices to draw.
	//
	// Returns:
	//   - uint32: the index count
	IndexCount() uint32

	// Bounds returns the axis-aligned bounding box computed at realization.
	//
	// Returns:
	//   - descriptor.BoundingBox: the local-space bounds
	Bounds() descriptor.BoundingBox

	// Release frees the GPU buffers.
	Release()
}

var _ Mesh = &mesh{}

// NewMesh uploads mesh geometry to the GPU.
//
// Parameters:
//   - device: the GPU device
//   - queue: the queue the uploads are written on
//   - desc: the mesh descriptor to realize
//
// Returns:
//   - Mesh: the realized mesh
//   - error: an error if the mesh is empty or buffer creation fails
func NewMesh(device *wgpu.Device, queue *wgpu.Queue, desc descriptor.MeshDescriptor) (Mesh, error) {
	if len(desc.Vertices) == 0 || len(desc.Indices) == 0 {
		return nil, fmt.Errorf("mesh: empty geometry")
	}

	vertexData := desc.VertexBytes()
	vertexBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Mesh Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: create vertex buffer: %w", err)
	}
	queue.WriteBuffer(vertexBuffer, 0, vertexData)

	indexData := desc.IndexBytes()
	indexBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Mesh Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		vertexBuffer.Release()
		return nil, fmt.Errorf("mesh: create index buffer: %w", err)
	}
	queue.WriteBuffer(indexBuffer, 0, indexData)

	return &mesh{
		desc:         desc,
		vertexBuffer: vertexBuffer,
		indexBuffer:  indexBuffer,
		indexCount:   uint32(len(desc.Indices)),
		bounds:       desc.BoundingBox(),
	}, nil
}

func (m *mesh) Descriptor() descriptor.MeshDescriptor {
	return m.desc
}

func (m *mesh) VertexBuffer() *wgpu.Buffer {
	return m.vertexBuffer
}

func (m *mesh) IndexBuffer() *wgpu.Buffer {
	return m.indexBuffer
}

func (m *mesh) IndexCount() uint32 {
	return m.indexCount
}

func (m *mesh) Bounds() descriptor.BoundingBox {
	return m.bounds
}

func (m *mesh) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
