// Package world holds the authoritative scene state: per-kind descriptor
// stores for models, cameras and lights, the current world environment, and
// the per-frame change list the renderer consumes. Elements never mutate the
// stores directly; every mutation arrives as a Change and every accepted
// mutation appends one change-list entry.
package world

import (
	"log"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/message"
	"github.com/chewxy/math32"
)

// EntityKind tags change-list entries with the store they concern.
type EntityKind int

const (
	// KindModel concerns the model store.
	KindModel EntityKind = iota

	// KindCamera concerns the camera store.
	KindCamera

	// KindLight concerns the light store.
	KindLight

	// KindEnvironment concerns the world environment.
	KindEnvironment
)

// ChangeOp is the variant of a change-list entry.
type ChangeOp int

const (
	// OpAdded records an insertion.
	OpAdded ChangeOp = iota

	// OpChanged records a mutation of an existing entity.
	OpChanged

	// OpRemoved records a removal.
	OpRemoved

	// OpClear records a whole-store clear. Label is empty.
	OpClear
)

// ChangeListEntry is one drained unit of renderer work.
type ChangeListEntry struct {
	// Op is the entry variant.
	Op ChangeOp

	// Kind is the store the entry concerns.
	Kind EntityKind

	// Label identifies the entity, empty for OpClear.
	Label string
}

// MessageSink receives messages routed through ChangeSendMessage. The
// element store implements it.
type MessageSink interface {
	// Enqueue adds a message to the delivery queue.
	//
	// Parameters:
	//   - msg: the message to queue
	Enqueue(msg message.Message)
}

// world is the implementation of the World interface.
type world struct {
	mu sync.RWMutex

	models  map[string]descriptor.ModelDescriptor
	cameras map[string]descriptor.CameraDescriptor
	lights  map[string]descriptor.LightDescriptor

	activeCamera string
	environment  *descriptor.WorldEnvironmentDescriptor

	// physics is the label bookkeeping registry; entries carry no
	// simulation state.
	physics map[string]struct{}

	changes    []ChangeListEntry
	appChanges []AppChange

	aspect float32
	sink   MessageSink
}

// World is the authoritative scene state.
type World interface {
	// ApplyChanges applies proposed changes in order. Rejected changes are
	// logged and skipped; accepted ones append change-list entries.
	//
	// Parameters:
	//   - changes: the proposed changes
	ApplyChanges(changes ...Change)

	// DrainChangeList atomically takes the accumulated change-list entries.
	// Entries produced while the renderer consumes the drained batch land
	// in the next batch.
	//
	// Returns:
	//   - []ChangeListEntry: the drained entries, oldest first
	DrainChangeList() []ChangeListEntry

	// DrainAppChanges atomically takes the accumulated runtime commands.
	//
	// Returns:
	//   - []AppChange: the drained commands, oldest first
	DrainAppChanges() []AppChange

	// EnsureActiveCamera guarantees exactly one active camera, spawning the
	// default camera when the active one is missing.
	EnsureActiveCamera()

	// SetAspect updates every camera's aspect ratio after a resize.
	//
	// Parameters:
	//   - aspect: the new width/height ratio
	SetAspect(aspect float32)

	// Model returns a model descriptor by label.
	//
	// Parameters:
	//   - label: the model's label
	//
	// Returns:
	//   - descriptor.ModelDescriptor: the descriptor
	//   - bool: false if the label is unknown
	Model(label string) (descriptor.ModelDescriptor, bool)

	// ModelLabels returns every model label in ascending order.
	//
	// Returns:
	//   - []string: the sorted labels
	ModelLabels() []string

	// ActiveCamera returns the active camera's descriptor.
	//
	// Returns:
	//   - descriptor.CameraDescriptor: the descriptor
	//   - bool: false if no camera is active
	ActiveCamera() (descriptor.CameraDescriptor, bool)

	// Lights returns every light in ascending label order, which is also
	// the order they are packed into the light storage buffer.
	//
	// Returns:
	//   - []descriptor.LightDescriptor: the sorted lights
	Lights() []descriptor.LightDescriptor

	// Environment returns the current world environment.
	//
	// Returns:
	//   - descriptor.WorldEnvironmentDescriptor: the descriptor
	//   - bool: false if no environment is set
	Environment() (descriptor.WorldEnvironmentDescriptor, bool)

	// RegisterPhysics records a physics bookkeeping label.
	//
	// Parameters:
	//   - label: the label to record
	RegisterPhysics(label string)

	// RemovePhysics drops a physics bookkeeping label.
	//
	// Parameters:
	//   - label: the label to drop
	RemovePhysics(label string)

	// PhysicsLabels returns the registered labels in ascending order.
	//
	// Returns:
	//   - []string: the sorted labels
	PhysicsLabels() []string
}

var _ World = &world{}

// New creates an empty world.
//
// Parameters:
//   - aspect: the initial surface aspect ratio, used by the default camera
//   - sink: the message sink for ChangeSendMessage (may be nil)
//
// Returns:
//   - World: the empty world
func New(aspect float32, sink MessageSink) World {
	return &world{
		models:  make(map[string]descriptor.ModelDescriptor),
		cameras: make(map[string]descriptor.CameraDescriptor),
		lights:  make(map[string]descriptor.LightDescriptor),
		physics: make(map[string]struct{}),
		aspect:  aspect,
		sink:    sink,
	}
}

func (w *world) ApplyChanges(changes ...Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range changes {
		w.apply(c)
	}
}

// apply dispatches one change. Caller holds the lock.
func (w *world) apply(c Change) {
	switch c.Kind {
	case ChangeSpawnModel:
		w.spawnModel(c)
	case ChangeDespawnModel:
		w.despawnModel(c.Label)
	case ChangeSetTransformModel, ChangeAddTransformsToModel,
		ChangeRemoveTransformsFromModel, ChangeApplyTransformModel:
		w.editTransforms(c)
	case ChangeSpawnCamera:
		w.spawnCamera(c, false)
	case ChangeSpawnCameraAndMakeActive:
		w.spawnCamera(c, true)
	case ChangeDespawnCamera:
		w.despawnCamera(c.Label)
	case ChangeUpdateCamera:
		w.updateCamera(c)
	case ChangeSpawnLight:
		w.spawnLight(c)
	case ChangeDespawnLight:
		w.despawnLight(c.Label)
	case ChangeUpdateLight:
		w.updateLight(c)
	case ChangeWorldEnvironment:
		w.setEnvironment(c)
	case ChangeWorldEnvironmentSkybox:
		w.setEnvironmentSkybox(c)
	case ChangeCleanWorld:
		w.cleanWorld()
	case ChangeSendMessage:
		if c.Message == nil {
			log.Printf("[World] send message rejected: nil payload")
			return
		}
		if w.sink != nil {
			w.sink.Enqueue(*c.Message)
		}
	case ChangeApp:
		if c.App == nil {
			log.Printf("[World] app change rejected: nil payload")
			return
		}
		w.appChanges = append(w.appChanges, *c.App)
	default:
		log.Printf("[World] unknown change kind %d rejected", c.Kind)
	}
}

func (w *world) spawnModel(c Change) {
	if c.Model == nil || c.Model.Label == "" {
		log.Printf("[World] spawn model rejected: missing descriptor or label")
		return
	}
	if len(c.Model.Transforms) == 0 {
		log.Printf("[World] spawn model %q rejected: no instances", c.Model.Label)
		return
	}
	if _, exists := w.models[c.Model.Label]; exists {
		log.Printf("[World] spawn model %q rejected: label in use", c.Model.Label)
		return
	}
	w.models[c.Model.Label] = *c.Model
	w.record(OpAdded, KindModel, c.Model.Label)
}

func (w *world) despawnModel(label string) {
	if _, exists := w.models[label]; !exists {
		log.Printf("[World] despawn model %q rejected: unknown label", label)
		return
	}
	delete(w.models, label)
	w.record(OpRemoved, KindModel, label)
}

func (w *world) editTransforms(c Change) {
	m, exists := w.models[c.Label]
	if !exists {
		log.Printf("[World] transform edit on %q rejected: unknown label", c.Label)
		return
	}

	// The store's map is shared with readers via value copies, so edits go
	// through a fresh map.
	next := make(map[uint64]common.Transform, len(m.Transforms))
	for id, t := range m.Transforms {
		next[id] = t
	}

	switch c.Kind {
	case ChangeSetTransformModel:
		for id, t := range c.Transforms {
			next[id] = t
		}
	case ChangeAddTransformsToModel:
		for id, t := range c.Transforms {
			if _, used := next[id]; used {
				log.Printf("[World] add transform %d to %q rejected: id in use", id, c.Label)
				continue
			}
			next[id] = t
		}
	case ChangeRemoveTransformsFromModel:
		// Duplicate or unknown ids are harmless; only the resulting count
		// matters. next is a scratch copy, so rejecting here discards it.
		for _, id := range c.InstanceIDs {
			delete(next, id)
		}
		if len(next) == 0 {
			log.Printf("[World] remove transforms from %q rejected: would leave zero instances", c.Label)
			return
		}
	case ChangeApplyTransformModel:
		for id, delta := range c.Offsets {
			t, ok := next[id]
			if !ok {
				log.Printf("[World] apply transform %d on %q skipped: unknown instance", id, c.Label)
				continue
			}
			next[id] = t.Offset(delta)
		}
	}

	m.Transforms = next
	w.models[c.Label] = m
	w.record(OpChanged, KindModel, c.Label)
}

func (w *world) spawnCamera(c Change, activate bool) {
	if c.Camera == nil || c.Camera.Label == "" {
		log.Printf("[World] spawn camera rejected: missing descriptor or label")
		return
	}
	if _, exists := w.cameras[c.Camera.Label]; exists {
		log.Printf("[World] spawn camera %q rejected: label in use", c.Camera.Label)
		return
	}
	desc := *c.Camera
	desc.Aspect = w.aspect
	desc.ClampPitch()
	w.cameras[desc.Label] = desc
	w.record(OpAdded, KindCamera, desc.Label)
	if activate || w.activeCamera == "" {
		w.activeCamera = desc.Label
	}
}

func (w *world) despawnCamera(label string) {
	if _, exists := w.cameras[label]; !exists {
		log.Printf("[World] despawn camera %q rejected: unknown label", label)
		return
	}
	delete(w.cameras, label)
	w.record(OpRemoved, KindCamera, label)
	if w.activeCamera == label {
		// EnsureActiveCamera respawns the default on the next tick.
		w.activeCamera = ""
	}
}

func (w *world) updateCamera(c Change) {
	if c.CameraChange == nil {
		log.Printf("[World] update camera rejected: nil payload")
		return
	}
	desc, exists := w.cameras[c.CameraChange.Target]
	if !exists {
		log.Printf("[World] update camera %q rejected: unknown label", c.CameraChange.Target)
		return
	}
	w.cameras[c.CameraChange.Target] = ResolveCameraChange(desc, *c.CameraChange)
	w.record(OpChanged, KindCamera, c.CameraChange.Target)
}

func (w *world) spawnLight(c Change) {
	if c.Light == nil || c.Light.Label == "" {
		log.Printf("[World] spawn light rejected: missing descriptor or label")
		return
	}
	if _, exists := w.lights[c.Light.Label]; exists {
		log.Printf("[World] spawn light %q rejected: label in use", c.Light.Label)
		return
	}
	w.lights[c.Light.Label] = *c.Light
	w.record(OpAdded, KindLight, c.Light.Label)
}

func (w *world) despawnLight(label string) {
	if _, exists := w.lights[label]; !exists {
		log.Printf("[World] despawn light %q rejected: unknown label", label)
		return
	}
	delete(w.lights, label)
	w.record(OpRemoved, KindLight, label)
}

func (w *world) updateLight(c Change) {
	if c.Light == nil || c.Light.Label == "" {
		log.Printf("[World] update light rejected: missing descriptor or label")
		return
	}
	if _, exists := w.lights[c.Light.Label]; !exists {
		log.Printf("[World] update light %q rejected: unknown label", c.Light.Label)
		return
	}
	w.lights[c.Light.Label] = *c.Light
	w.record(OpChanged, KindLight, c.Light.Label)
}

func (w *world) setEnvironment(c Change) {
	if c.Environment == nil {
		log.Printf("[World] set environment rejected: nil descriptor")
		return
	}
	desc := *c.Environment
	op := OpChanged
	if w.environment == nil {
		op = OpAdded
	}
	w.environment = &desc
	w.record(op, KindEnvironment, "")
}

func (w *world) setEnvironmentSkybox(c Change) {
	if w.environment == nil {
		log.Printf("[World] skybox change rejected: no environment set")
		return
	}
	w.environment.Skybox = c.SkyboxKind
	w.environment.SkyboxMip = c.SkyboxMip
	w.record(OpChanged, KindEnvironment, "")
}

func (w *world) cleanWorld() {
	w.models = make(map[string]descriptor.ModelDescriptor)
	w.cameras = make(map[string]descriptor.CameraDescriptor)
	w.lights = make(map[string]descriptor.LightDescriptor)
	w.physics = make(map[string]struct{})
	w.environment = nil
	w.activeCamera = ""
	w.record(OpClear, KindModel, "")
	w.record(OpClear, KindCamera, "")
	w.record(OpClear, KindLight, "")
	w.record(OpClear, KindEnvironment, "")
}

// record appends one change-list entry. Caller holds the lock.
func (w *world) record(op ChangeOp, kind EntityKind, label string) {
	w.changes = append(w.changes, ChangeListEntry{Op: op, Kind: kind, Label: label})
}

func (w *world) DrainChangeList() []ChangeListEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	drained := w.changes
	w.changes = nil
	return drained
}

func (w *world) DrainAppChanges() []AppChange {
	w.mu.Lock()
	defer w.mu.Unlock()
	drained := w.appChanges
	w.appChanges = nil
	return drained
}

func (w *world) EnsureActiveCamera() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.cameras[w.activeCamera]; ok && w.activeCamera != "" {
		return
	}

	if existing, ok := w.cameras[descriptor.DefaultCameraLabel]; ok {
		w.activeCamera = existing.Label
		w.record(OpChanged, KindCamera, existing.Label)
		return
	}

	desc := descriptor.DefaultCamera(w.aspect)
	w.cameras[desc.Label] = desc
	w.activeCamera = desc.Label
	w.record(OpAdded, KindCamera, desc.Label)
	log.Printf("[World] active camera missing, spawned default %q", desc.Label)
}

func (w *world) SetAspect(aspect float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.aspect = aspect
	for label, desc := range w.cameras {
		desc.Aspect = aspect
		w.cameras[label] = desc
		w.record(OpChanged, KindCamera, label)
	}
}

func (w *world) Model(label string) (descriptor.ModelDescriptor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	m, ok := w.models[label]
	return m, ok
}

func (w *world) ModelLabels() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	labels := make([]string, 0, len(w.models))
	for label := range w.models {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (w *world) ActiveCamera() (descriptor.CameraDescriptor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	desc, ok := w.cameras[w.activeCamera]
	return desc, ok && w.activeCamera != ""
}

func (w *world) Lights() []descriptor.LightDescriptor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	labels := make([]string, 0, len(w.lights))
	for label := range w.lights {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	out := make([]descriptor.LightDescriptor, 0, len(labels))
	for _, label := range labels {
		out = append(out, w.lights[label])
	}
	return out
}

func (w *world) Environment() (descriptor.WorldEnvironmentDescriptor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.environment == nil {
		return descriptor.WorldEnvironmentDescriptor{}, false
	}
	return *w.environment, true
}

func (w *world) RegisterPhysics(label string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.physics[label] = struct{}{}
}

func (w *world) RemovePhysics(label string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.physics, label)
}

func (w *world) PhysicsLabels() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	labels := make([]string, 0, len(w.physics))
	for label := range w.physics {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ResolveCameraChange composes a camera change with the current state. It is
// a pure function so the composition rules are testable in isolation. Pitch
// is clamped after application.
//
// Parameters:
//   - desc: the current camera state
//   - change: the change to compose
//
// Returns:
//   - descriptor.CameraDescriptor: the new state
func ResolveCameraChange(desc descriptor.CameraDescriptor, change CameraChange) descriptor.CameraDescriptor {
	switch change.Mode {
	case ModeOverwrite:
		if change.Position != nil {
			desc.Position = *change.Position
		}
		if change.Yaw != nil {
			desc.Yaw = *change.Yaw
		}
		if change.Pitch != nil {
			desc.Pitch = *change.Pitch
		}
	case ModeOffset:
		if change.Position != nil {
			desc.Position[0] += change.Position[0]
			desc.Position[1] += change.Position[1]
			desc.Position[2] += change.Position[2]
		}
		applyAngleOffsets(&desc, change)
	case ModeOffsetViewAligned:
		if change.Position != nil {
			forward := [3]float32{math32.Cos(desc.Yaw), 0, math32.Sin(desc.Yaw)}
			right := [3]float32{-math32.Sin(desc.Yaw), 0, math32.Cos(desc.Yaw)}
			up := [3]float32{0, 1, 0}
			addFrameOffset(&desc, *change.Position, forward, right, up)
		}
		applyAngleOffsets(&desc, change)
	case ModeOffsetViewAlignedWithY:
		if change.Position != nil {
			forward := common.Forward(desc.Pitch, desc.Yaw)
			right := [3]float32{-math32.Sin(desc.Yaw), 0, math32.Cos(desc.Yaw)}
			up := common.Cross3(right, forward)
			addFrameOffset(&desc, *change.Position, forward, right, up)
		}
		applyAngleOffsets(&desc, change)
	}
	desc.ClampPitch()
	return desc
}

// addFrameOffset applies delta decomposed as x·forward + z·right + y·up.
func addFrameOffset(desc *descriptor.CameraDescriptor, delta, forward, right, up [3]float32) {
	for i := 0; i < 3; i++ {
		desc.Position[i] += delta[0]*forward[i] + delta[2]*right[i] + delta[1]*up[i]
	}
}

// applyAngleOffsets adds yaw/pitch deltas in the offset modes.
func applyAngleOffsets(desc *descriptor.CameraDescriptor, change CameraChange) {
	if change.Yaw != nil {
		desc.Yaw += *change.Yaw
	}
	if change.Pitch != nil {
		desc.Pitch += *change.Pitch
	}
}
