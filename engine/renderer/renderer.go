// Package renderer owns the GPU device and turns drained world change-list
// entries into realized GPU state: meshes, materials, pipelines and the
// environment are cached by descriptor hash, models are keyed by label, and
// each frame renders the skybox and opaque passes against the active camera.
package renderer

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/orbit-go/engine/cache"
	"github.com/Carmen-Shannon/orbit-go/engine/camera"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/environment"
	"github.com/Carmen-Shannon/orbit-go/engine/light"
	"github.com/Carmen-Shannon/orbit-go/engine/model"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/material"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/texture"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// environmentGroup is the bind group index of the IBL environment on the
// standard PBR pipeline, after the camera and light groups are spliced in.
const environmentGroup = 3

// realizedModel pairs a live model with the cache keys it depends on, so the
// per-frame pass can refresh their hit timers and keep shared resources from
// being evicted while still referenced.
type realizedModel struct {
	model         model.Model
	meshKey       uint64
	materialKeys  []uint64
	pipelineKeys  []uint64
	usesPBR       bool
	materialHash  uint64
	skippedNoEnv  bool
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	width, height uint32
	presentMode   wgpu.PresentMode

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	shared *pipeline.SharedLayouts

	shaders   *cache.Cache[uint64, shader.Shader]
	pipelines *cache.Cache[uint64, pipeline.Pipeline]
	textures  *cache.Cache[uint64, texture.Texture]
	cubes     *cache.Cache[uint64, texture.CubeTexture]
	materials *cache.Cache[uint64, material.Material]
	meshes    *cache.Cache[uint64, model.Mesh]

	models map[string]*realizedModel

	camera         camera.Camera
	lastCameraHash uint64
	lights         light.Storage
	lightsDirty    bool

	env          environment.Environment
	envHash      uint64
	envSkybox    descriptor.SkyboxKind
	envSkyboxMip uint32
	skyBindGroup *wgpu.BindGroup
	skyPipeline  pipeline.Pipeline

	libraryRoot string
	resyncAll   bool
}

// Renderer realizes world state on the GPU and renders frames.
type Renderer interface {
	// Device returns the GPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the GPU queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// SurfaceFormat returns the configured surface texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the format
	SurfaceFormat() wgpu.TextureFormat

	// Resize reconfigures the surface and depth buffer.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height uint32)

	// Sync drains the world's change list and realizes or drops GPU state
	// accordingly.
	//
	// Parameters:
	//   - w: the world to sync against
	//
	// Returns:
	//   - error: the first realization error; remaining entries are still
	//     processed
	Sync(w world.World) error

	// RenderFrame renders one frame of the world's current state.
	//
	// Parameters:
	//   - w: the world to render
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	RenderFrame(w world.World) error

	// CleanupPipelines evicts pipelines and shader modules idle for at
	// least the retain period, releasing their GPU resources, and logs the
	// size deltas.
	//
	// Parameters:
	//   - retain: the idle period below which entries are kept
	CleanupPipelines(retain time.Duration)

	// CleanupMaterials evicts materials and the textures, cubes and meshes
	// idle for at least the retain period, releasing their GPU resources,
	// and logs the size deltas.
	//
	// Parameters:
	//   - retain: the idle period below which entries are kept
	CleanupMaterials(retain time.Duration)

	// Release frees every GPU resource the renderer owns.
	Release()
}

var _ Renderer = &renderer{}

// New creates a renderer on the adapter compatible with the given surface.
//
// Parameters:
//   - surfaceDesc: the platform surface descriptor from the window layer
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - libraryRoot: the directory file-based shaders resolve against
//   - vsync: true to present with vertical sync
//
// Returns:
//   - Renderer: the initialized renderer
//   - error: an error if adapter, device or surface setup fails
func New(surfaceDesc *wgpu.SurfaceDescriptor, width, height uint32, libraryRoot string, vsync bool) (Renderer, error) {
	runtime.LockOSThread()

	r := &renderer{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		shaders:     cache.New[uint64, shader.Shader](),
		pipelines:   cache.New[uint64, pipeline.Pipeline](),
		textures:    cache.New[uint64, texture.Texture](),
		cubes:       cache.New[uint64, texture.CubeTexture](),
		materials:   cache.New[uint64, material.Material](),
		meshes:      cache.New[uint64, model.Mesh](),
		models:      make(map[string]*realizedModel),
		libraryRoot: libraryRoot,
		// A renderer created against an already-populated world (resume
		// after suspend) pulls the full state on its first sync.
		resyncAll: true,
	}
	if vsync {
		r.presentMode = wgpu.PresentModeFifo
	}

	r.surface = r.instance.CreateSurface(surfaceDesc)

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: r.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	r.adapter = adapter

	// The PBR pipeline binds four groups; raise the limit so custom
	// pipelines with extra groups still fit.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	r.device = device
	r.queue = device.GetQueue()

	r.shared, err = pipeline.NewSharedLayouts(device)
	if err != nil {
		return nil, err
	}

	if err := r.configureSurface(width, height); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) Device() *wgpu.Device { return r.device }

func (r *renderer) Queue() *wgpu.Queue { return r.queue }

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surfaceFormat
}

func (r *renderer) Resize(width, height uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == 0 || height == 0 {
		return
	}
	if err := r.configureSurface(width, height); err != nil {
		log.Printf("[Renderer] surface reconfigure failed: %v", err)
	}
}

// configureSurface configures the swapchain and recreates the depth buffer.
// A surface format change invalidates every compiled pipeline, so the caches
// are flushed and the next sync re-realizes the whole world. Caller holds the
// lock.
func (r *renderer) configureSurface(width, height uint32) error {
	capabilities := r.surface.GetCapabilities(r.adapter)
	format := capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       width,
		Height:      height,
		PresentMode: r.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if r.surfaceFormat != 0 && format != r.surfaceFormat {
		log.Printf("[Renderer] surface format changed %v -> %v, recompiling pipelines", r.surfaceFormat, format)
		r.reworkForFormatLocked(format)
		r.resyncAll = true
	}
	r.surfaceFormat = format
	r.width, r.height = width, height

	if r.depthView != nil {
		r.depthView.Release()
		r.depthTexture.Release()
	}
	depthTexture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        pipeline.DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("renderer: create depth texture: %w", err)
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("renderer: create depth view: %w", err)
	}
	r.depthTexture = depthTexture
	r.depthView = depthView
	return nil
}

// releaseBoundRealizationsLocked drops models, materials and the environment,
// whose bind groups were built against the current pipelines. Caller holds
// the lock.
func (r *renderer) releaseBoundRealizationsLocked() {
	for label, rm := range r.models {
		rm.model.Release()
		delete(r.models, label)
	}
	if r.skyBindGroup != nil {
		r.skyBindGroup.Release()
		r.skyBindGroup = nil
	}
	r.skyPipeline = nil
	if r.env != nil {
		r.env.Release()
		r.env = nil
		r.envHash = 0
	}
	r.materials.Range(func(_ uint64, m material.Material) bool {
		m.Release()
		return true
	})
	r.materials.Clear()
}

// flushRealizationsLocked drops every realization that bakes in the surface
// format, pipelines included. Caller holds the lock.
func (r *renderer) flushRealizationsLocked() {
	r.releaseBoundRealizationsLocked()
	r.pipelines.Range(func(_ uint64, p pipeline.Pipeline) bool {
		p.Release()
		return true
	})
	r.pipelines.Clear()
}

// reworkForFormatLocked recompiles every cached pipeline against the new
// surface format, keeping hit timers, and drops the realizations bound to the
// old pipelines; the next sync rebuilds them. A pipeline that fails to
// recompile is evicted. Caller holds the lock.
func (r *renderer) reworkForFormatLocked(format wgpu.TextureFormat) {
	r.releaseBoundRealizationsLocked()
	r.pipelines.Rework(func(_ uint64, p pipeline.Pipeline) (pipeline.Pipeline, bool) {
		desc := p.Descriptor()
		p.Release()
		np, err := pipeline.New(r.device, desc, format, r.shared, r.shaders, r.libraryRoot)
		if err != nil {
			log.Printf("[Renderer] pipeline recompile failed: %v", err)
			return nil, false
		}
		return np, true
	})
}

func (r *renderer) Sync(w world.World) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := w.DrainChangeList()
	if r.resyncAll {
		r.resyncAll = false
		for _, label := range w.ModelLabels() {
			entries = append(entries, world.ChangeListEntry{Op: world.OpAdded, Kind: world.KindModel, Label: label})
		}
		if _, ok := w.Environment(); ok {
			entries = append(entries, world.ChangeListEntry{Op: world.OpAdded, Kind: world.KindEnvironment})
		}
		r.lightsDirty = true
	}

	var firstErr error
	for _, e := range entries {
		var err error
		switch e.Kind {
		case world.KindModel:
			err = r.syncModel(w, e)
		case world.KindCamera:
			// The active camera's uniform is refreshed every frame; entries
			// only matter for bookkeeping.
		case world.KindLight:
			r.lightsDirty = true
		case world.KindEnvironment:
			err = r.syncEnvironment(w, e)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err != nil {
			log.Printf("[Renderer] change sync failed for %q: %v", e.Label, err)
		}
	}
	return firstErr
}

func (r *renderer) syncModel(w world.World, e world.ChangeListEntry) error {
	switch e.Op {
	case world.OpAdded, world.OpChanged:
		desc, ok := w.Model(e.Label)
		if !ok {
			// Removed again before this sync ran.
			return nil
		}
		return r.realizeModel(desc)
	case world.OpRemoved:
		if rm, ok := r.models[e.Label]; ok {
			rm.model.Release()
			delete(r.models, e.Label)
		}
	case world.OpClear:
		for label, rm := range r.models {
			rm.model.Release()
			delete(r.models, label)
		}
	}
	return nil
}

// realizeModel builds or refreshes the GPU state for one model. A transform
// edit on an existing realization only rewrites the instance buffer.
func (r *renderer) realizeModel(desc descriptor.ModelDescriptor) error {
	if rm, ok := r.models[desc.Label]; ok {
		if rm.materialHash == modelMaterialHash(desc) && rm.meshKey == desc.Mesh.Hash() {
			return rm.model.UpdateInstances(r.queue, desc)
		}
		rm.model.Release()
		delete(r.models, desc.Label)
	}

	meshKey := desc.Mesh.Hash()
	mesh, err := r.meshes.GetOrInsertFallible(meshKey, func() (model.Mesh, error) {
		return model.NewMesh(r.device, r.queue, desc.Mesh)
	})
	if err != nil {
		return err
	}

	rm := &realizedModel{meshKey: meshKey, materialHash: modelMaterialHash(desc)}
	if len(desc.Materials) > 1 {
		log.Printf("[Renderer] model %q has %d materials; the mesh draws with the primary only", desc.Label, len(desc.Materials))
	}
	mats := make([]material.Material, 0, len(desc.Materials))
	for _, mdesc := range desc.Materials {
		pd := pipelineDescriptorFor(mdesc)
		pl, perr := r.realizePipeline(pd)
		if perr != nil {
			return perr
		}
		matKey := mdesc.Hash()
		mat, merr := r.materials.GetOrInsertFallible(matKey, func() (material.Material, error) {
			return material.New(r.device, r.queue, mdesc, pl, r.textures, r.cubes)
		})
		if merr != nil {
			return merr
		}
		mats = append(mats, mat)
		rm.materialKeys = append(rm.materialKeys, matKey)
		rm.pipelineKeys = append(rm.pipelineKeys, pd.Hash())
		if mdesc.Kind == descriptor.MaterialPBR {
			rm.usesPBR = true
		}
	}

	m, err := model.New(r.device, r.queue, desc, mesh, mats)
	if err != nil {
		return err
	}
	rm.model = m
	r.models[desc.Label] = rm
	return nil
}

// modelMaterialHash combines a model's material hashes so a transform-only
// change is distinguishable from a material swap.
func modelMaterialHash(desc descriptor.ModelDescriptor) uint64 {
	var h uint64 = 1469598103934665603
	for _, m := range desc.Materials {
		h ^= m.Hash()
		h *= 1099511628211
	}
	return h
}

// pipelineDescriptorFor maps a material to the pipeline it renders with.
func pipelineDescriptorFor(mdesc descriptor.MaterialDescriptor) descriptor.PipelineDescriptor {
	switch mdesc.Kind {
	case descriptor.MaterialSkybox:
		return material.SkyboxPipelineDescriptor()
	case descriptor.MaterialCustom:
		return mdesc.Custom.Pipeline
	default:
		return material.PBRPipelineDescriptor()
	}
}

// realizePipeline fetches a pipeline through the cache, compiling it against
// the current surface format on a miss.
func (r *renderer) realizePipeline(pd descriptor.PipelineDescriptor) (pipeline.Pipeline, error) {
	return r.pipelines.GetOrInsertFallible(pd.Hash(), func() (pipeline.Pipeline, error) {
		return pipeline.New(r.device, pd, r.surfaceFormat, r.shared, r.shaders, r.libraryRoot)
	})
}

func (r *renderer) syncEnvironment(w world.World, e world.ChangeListEntry) error {
	if e.Op == world.OpRemoved || e.Op == world.OpClear {
		r.releaseEnvironmentLocked()
		return nil
	}

	desc, ok := w.Environment()
	if !ok {
		r.releaseEnvironmentLocked()
		return nil
	}
	if r.env != nil && r.envHash == desc.Hash() &&
		r.envSkybox == desc.Skybox && r.envSkyboxMip == desc.SkyboxMip {
		return nil
	}
	r.releaseEnvironmentLocked()

	// The environment bind group layout lives on the PBR pipeline, so that
	// is realized first even when no PBR model exists yet.
	pbrPl, err := r.realizePipeline(material.PBRPipelineDescriptor())
	if err != nil {
		return err
	}

	env, err := environment.New(r.device, r.queue, desc, pbrPl.GroupLayout(environmentGroup))
	if err != nil {
		return err
	}

	skyPl, err := r.realizePipeline(material.SkyboxPipelineDescriptor())
	if err != nil {
		env.Release()
		return err
	}
	skyBG, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Skybox Bind Group",
		Layout: skyPl.MaterialLayout(),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: env.SkyboxView()},
			{Binding: 1, Sampler: env.Sampler()},
		},
	})
	if err != nil {
		env.Release()
		return fmt.Errorf("renderer: create skybox bind group: %w", err)
	}

	r.env = env
	r.envHash = desc.Hash()
	r.envSkybox = desc.Skybox
	r.envSkyboxMip = desc.SkyboxMip
	r.skyPipeline = skyPl
	r.skyBindGroup = skyBG
	return nil
}

// releaseEnvironmentLocked drops the environment realization and its skybox
// bind group. Caller holds the lock.
func (r *renderer) releaseEnvironmentLocked() {
	if r.skyBindGroup != nil {
		r.skyBindGroup.Release()
		r.skyBindGroup = nil
	}
	r.skyPipeline = nil
	if r.env != nil {
		r.env.Release()
		r.env = nil
		r.envHash = 0
	}
}

func (r *renderer) RenderFrame(w world.World) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	camDesc, ok := w.ActiveCamera()
	if !ok {
		return nil
	}
	if err := r.refreshCamera(camDesc); err != nil {
		return err
	}
	if err := r.refreshLights(w); err != nil {
		return err
	}
	r.touchCaches()

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("renderer: create surface view: %w", err)
	}
	defer func() {
		r.surface.Present()
		view.Release()
		surfaceTexture.Release()
	}()

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("renderer: create command encoder: %w", err)
	}
	defer encoder.Release()

	opaqueLoadOp := wgpu.LoadOpClear
	if r.skyBindGroup != nil {
		r.encodeSkyboxPass(encoder, view)
		opaqueLoadOp = wgpu.LoadOpLoad
	}
	r.encodeOpaquePass(encoder, view, opaqueLoadOp)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("renderer: finish frame encoder: %w", err)
	}
	r.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// refreshCamera realizes the active camera on first use and rewrites its
// uniform whenever the descriptor changed. Caller holds the lock.
func (r *renderer) refreshCamera(desc descriptor.CameraDescriptor) error {
	if r.camera == nil {
		cam, err := camera.New(r.device, r.queue, r.shared.Camera, desc)
		if err != nil {
			return err
		}
		r.camera = cam
		r.lastCameraHash = desc.Hash()
		return nil
	}
	if h := desc.Hash(); h != r.lastCameraHash {
		r.camera.SetDescriptor(desc)
		r.camera.UpdateBuffer(r.queue)
		r.lastCameraHash = h
	}
	return nil
}

// refreshLights realizes the light storage on first use and repacks it when
// a light change was synced. Caller holds the lock.
func (r *renderer) refreshLights(w world.World) error {
	if r.lights == nil {
		storage, err := light.NewStorage(r.device, r.queue, r.shared.Light, w.Lights())
		if err != nil {
			return err
		}
		r.lights = storage
		r.lightsDirty = false
		return nil
	}
	if r.lightsDirty {
		if err := r.lights.Update(r.queue, w.Lights()); err != nil {
			return err
		}
		r.lightsDirty = false
	}
	return nil
}

// touchCaches refreshes the hit timers of every cache entry a live model
// depends on, so shared resources outlive idle-based eviction while still
// referenced. Caller holds the lock.
func (r *renderer) touchCaches() {
	for _, rm := range r.models {
		r.meshes.Get(rm.meshKey)
		for _, k := range rm.materialKeys {
			r.materials.Get(k)
		}
		for _, k := range rm.pipelineKeys {
			r.pipelines.Get(k)
		}
	}
}

// encodeSkyboxPass draws the environment background: a single oversized
// triangle unprojected to world directions in the fragment shader. It clears
// the color attachment and touches no depth. Caller holds the lock.
func (r *renderer) encodeSkyboxPass(encoder *wgpu.CommandEncoder, view *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(r.skyPipeline.RenderPipeline())
	pass.SetBindGroup(0, r.skyBindGroup, nil)
	pass.SetBindGroup(uint32(r.skyPipeline.CameraGroup()), r.camera.BindGroup(), nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
}

// encodeOpaquePass draws every realized model with depth testing against a
// freshly cleared depth buffer. Caller holds the lock.
func (r *renderer) encodeOpaquePass(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, loadOp wgpu.LoadOp) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	labels := make([]string, 0, len(r.models))
	for label := range r.models {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		rm := r.models[label]
		mats := rm.model.Materials()
		if len(mats) == 0 || rm.model.InstanceCount() == 0 {
			continue
		}
		if rm.usesPBR && r.env == nil {
			if !rm.skippedNoEnv {
				log.Printf("[Renderer] model %q waits for a world environment", label)
				rm.skippedNoEnv = true
			}
			continue
		}
		rm.skippedNoEnv = false

		mat := mats[0]
		pl := mat.Pipeline()
		pass.SetPipeline(pl.RenderPipeline())
		pass.SetBindGroup(0, mat.BindGroup(), nil)
		if g := pl.CameraGroup(); g >= 0 {
			pass.SetBindGroup(uint32(g), r.camera.BindGroup(), nil)
		}
		if g := pl.LightGroup(); g >= 0 {
			pass.SetBindGroup(uint32(g), r.lights.BindGroup(), nil)
		}
		if rm.usesPBR {
			pass.SetBindGroup(environmentGroup, r.env.BindGroup(), nil)
		}

		mesh := rm.model.Mesh()
		pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, rm.model.InstanceBuffer(), 0, wgpu.WholeSize)
		pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(mesh.IndexCount(), rm.model.InstanceCount(), 0, 0, 0)
	}

	pass.End()
}

func (r *renderer) CleanupPipelines(retain time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logCleanup(map[string]cache.CleanupDelta{
		"pipelines": r.pipelines.CleanupWith(retain, func(_ uint64, p pipeline.Pipeline) { p.Release() }),
		"shaders":   r.shaders.Cleanup(retain),
	})
}

func (r *renderer) CleanupMaterials(retain time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logCleanup(map[string]cache.CleanupDelta{
		"materials": r.materials.CleanupWith(retain, func(_ uint64, m material.Material) { m.Release() }),
		"meshes":    r.meshes.CleanupWith(retain, func(_ uint64, m model.Mesh) { m.Release() }),
		"textures":  r.textures.CleanupWith(retain, func(_ uint64, t texture.Texture) { t.Release() }),
		"cubes":     r.cubes.CleanupWith(retain, func(_ uint64, c texture.CubeTexture) { c.Release() }),
	})
}

func logCleanup(deltas map[string]cache.CleanupDelta) {
	names := make([]string, 0, len(deltas))
	for name := range deltas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := deltas[name]
		if d.Before != d.After {
			log.Printf("[Renderer] cache cleanup: %s %d -> %d", name, d.Before, d.After)
		}
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushRealizationsLocked()
	r.meshes.Range(func(_ uint64, m model.Mesh) bool {
		m.Release()
		return true
	})
	r.meshes.Clear()
	r.textures.Range(func(_ uint64, t texture.Texture) bool {
		t.Release()
		return true
	})
	r.textures.Clear()
	r.cubes.Range(func(_ uint64, c texture.CubeTexture) bool {
		c.Release()
		return true
	})
	r.cubes.Clear()
	r.shaders.Clear()

	if r.lights != nil {
		r.lights.Release()
		r.lights = nil
	}
	if r.camera != nil {
		r.camera.Release()
		r.camera = nil
	}
	if r.depthView != nil {
		r.depthView.Release()
		r.depthTexture.Release()
		r.depthView = nil
		r.depthTexture = nil
	}
	if r.shared != nil {
		r.shared.Release()
		r.shared = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
}
