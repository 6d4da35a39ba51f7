package world

import (
	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/message"
)

// ChangeKind discriminates the Change union.
type ChangeKind int

const (
	// ChangeSpawnModel inserts a model descriptor under a free label.
	ChangeSpawnModel ChangeKind = iota

	// ChangeDespawnModel removes a model by label.
	ChangeDespawnModel

	// ChangeSetTransformModel replaces entries in a model's transform map.
	ChangeSetTransformModel

	// ChangeAddTransformsToModel inserts new instances into a model.
	ChangeAddTransformsToModel

	// ChangeRemoveTransformsFromModel removes instances by id. A removal
	// that would leave zero instances is rejected.
	ChangeRemoveTransformsFromModel

	// ChangeApplyTransformModel offsets existing instances by id.
	ChangeApplyTransformModel

	// ChangeSpawnCamera inserts a camera descriptor under a free label.
	ChangeSpawnCamera

	// ChangeSpawnCameraAndMakeActive inserts and atomically activates.
	ChangeSpawnCameraAndMakeActive

	// ChangeDespawnCamera removes a camera by label. Despawning the active
	// camera schedules a default replacement for the next tick.
	ChangeDespawnCamera

	// ChangeUpdateCamera mutates a camera through a CameraChange.
	ChangeUpdateCamera

	// ChangeSpawnLight inserts a light descriptor under a free label.
	ChangeSpawnLight

	// ChangeDespawnLight removes a light by label.
	ChangeDespawnLight

	// ChangeUpdateLight replaces an existing light's descriptor.
	ChangeUpdateLight

	// ChangeWorldEnvironment replaces the environment descriptor.
	ChangeWorldEnvironment

	// ChangeWorldEnvironmentSkybox switches which cube the skybox displays
	// without invalidating the computed IBL chain.
	ChangeWorldEnvironmentSkybox

	// ChangeCleanWorld clears every store.
	ChangeCleanWorld

	// ChangeSendMessage forwards a message to the element store. It never
	// appears on the renderer change list.
	ChangeSendMessage

	// ChangeApp forwards a runtime command to the windowing collaborator.
	ChangeApp
)

// CameraChangeMode is the composition rule for a camera update relative to
// the current value and the camera's local frame.
type CameraChangeMode int

const (
	// ModeOverwrite sets the provided fields absolutely.
	ModeOverwrite CameraChangeMode = iota

	// ModeOffset adds the provided fields to the current values.
	ModeOffset

	// ModeOffsetViewAligned applies the position delta in the camera's
	// yaw-aligned frame, ignoring pitch.
	ModeOffsetViewAligned

	// ModeOffsetViewAlignedWithY applies the position delta in the camera's
	// pitch-aware frame.
	ModeOffsetViewAlignedWithY
)

// CameraChange mutates one camera. Nil fields are left untouched.
type CameraChange struct {
	// Target is the label of the camera to change.
	Target string

	// Mode selects how the fields compose with the current state.
	Mode CameraChangeMode

	// Position is the absolute position or the delta, depending on Mode.
	Position *[3]float32

	// Yaw is the absolute yaw or the delta, in radians.
	Yaw *float32

	// Pitch is the absolute pitch or the delta, in radians. The result is
	// clamped to ±(π/2 − ε) after application.
	Pitch *float32
}

// AppChangeKind discriminates the AppChange union.
type AppChangeKind int

const (
	// AppCursorVisible toggles cursor visibility.
	AppCursorVisible AppChangeKind = iota

	// AppCursorGrab toggles cursor capture.
	AppCursorGrab

	// AppCursorPosition warps the cursor.
	AppCursorPosition

	// AppExit requests application shutdown.
	AppExit
)

// AppChange is a command to the windowing collaborator.
type AppChange struct {
	// Kind selects which fields are meaningful.
	Kind AppChangeKind

	// Enabled is the flag for AppCursorVisible and AppCursorGrab.
	Enabled bool

	// X, Y are the cursor coordinates for AppCursorPosition.
	X, Y float64
}

// Change is one proposed world mutation. Use the constructor functions; a
// zero Change is ChangeSpawnModel with a nil descriptor and is rejected.
type Change struct {
	// Kind selects which of the payload fields are meaningful.
	Kind ChangeKind

	// Label targets an existing entity for despawns and transform edits.
	Label string

	// Model is the payload for ChangeSpawnModel.
	Model *descriptor.ModelDescriptor

	// Transforms is the payload for set/add transform changes.
	Transforms map[uint64]common.Transform

	// InstanceIDs is the payload for ChangeRemoveTransformsFromModel.
	InstanceIDs []uint64

	// Offsets is the payload for ChangeApplyTransformModel: per-instance
	// position deltas.
	Offsets map[uint64][3]float32

	// Camera is the payload for the camera spawn changes.
	Camera *descriptor.CameraDescriptor

	// CameraChange is the payload for ChangeUpdateCamera.
	CameraChange *CameraChange

	// Light is the payload for light spawn and update changes.
	Light *descriptor.LightDescriptor

	// Environment is the payload for ChangeWorldEnvironment.
	Environment *descriptor.WorldEnvironmentDescriptor

	// SkyboxKind, SkyboxMip are the payload for
	// ChangeWorldEnvironmentSkybox.
	SkyboxKind descriptor.SkyboxKind
	SkyboxMip  uint32

	// Message is the payload for ChangeSendMessage.
	Message *message.Message

	// App is the payload for ChangeApp.
	App *AppChange
}

// SpawnModel proposes inserting a model.
//
// Parameters:
//   - desc: the model descriptor, its Label must be unique
//
// Returns:
//   - Change: the proposed change
func SpawnModel(desc descriptor.ModelDescriptor) Change {
	return Change{Kind: ChangeSpawnModel, Model: &desc}
}

// DespawnModel proposes removing a model by label.
//
// Parameters:
//   - label: the model's label
//
// Returns:
//   - Change: the proposed change
func DespawnModel(label string) Change {
	return Change{Kind: ChangeDespawnModel, Label: label}
}

// SetTransforms proposes replacing instance transforms on a model.
//
// Parameters:
//   - label: the model's label
//   - transforms: instance id → new transform
//
// Returns:
//   - Change: the proposed change
func SetTransforms(label string, transforms map[uint64]common.Transform) Change {
	return Change{Kind: ChangeSetTransformModel, Label: label, Transforms: transforms}
}

// AddTransforms proposes inserting new instances into a model.
//
// Parameters:
//   - label: the model's label
//   - transforms: instance id → transform, ids must be free
//
// Returns:
//   - Change: the proposed change
func AddTransforms(label string, transforms map[uint64]common.Transform) Change {
	return Change{Kind: ChangeAddTransformsToModel, Label: label, Transforms: transforms}
}

// RemoveTransforms proposes removing instances from a model.
//
// Parameters:
//   - label: the model's label
//   - ids: the instance ids to remove
//
// Returns:
//   - Change: the proposed change
func RemoveTransforms(label string, ids ...uint64) Change {
	return Change{Kind: ChangeRemoveTransformsFromModel, Label: label, InstanceIDs: ids}
}

// ApplyTransforms proposes offsetting existing instances.
//
// Parameters:
//   - label: the model's label
//   - offsets: instance id → position delta
//
// Returns:
//   - Change: the proposed change
func ApplyTransforms(label string, offsets map[uint64][3]float32) Change {
	return Change{Kind: ChangeApplyTransformModel, Label: label, Offsets: offsets}
}

// SpawnCamera proposes inserting a camera.
//
// Parameters:
//   - desc: the camera descriptor, its Label must be unique
//
// Returns:
//   - Change: the proposed change
func SpawnCamera(desc descriptor.CameraDescriptor) Change {
	return Change{Kind: ChangeSpawnCamera, Camera: &desc}
}

// SpawnCameraAndMakeActive proposes inserting a camera and activating it.
//
// Parameters:
//   - desc: the camera descriptor, its Label must be unique
//
// Returns:
//   - Change: the proposed change
func SpawnCameraAndMakeActive(desc descriptor.CameraDescriptor) Change {
	return Change{Kind: ChangeSpawnCameraAndMakeActive, Camera: &desc}
}

// DespawnCamera proposes removing a camera by label.
//
// Parameters:
//   - label: the camera's label
//
// Returns:
//   - Change: the proposed change
func DespawnCamera(label string) Change {
	return Change{Kind: ChangeDespawnCamera, Label: label}
}

// UpdateCamera proposes mutating a camera.
//
// Parameters:
//   - change: the camera change, Target must name an existing camera
//
// Returns:
//   - Change: the proposed change
func UpdateCamera(change CameraChange) Change {
	return Change{Kind: ChangeUpdateCamera, CameraChange: &change}
}

// SpawnLight proposes inserting a light.
//
// Parameters:
//   - desc: the light descriptor, its Label must be unique
//
// Returns:
//   - Change: the proposed change
func SpawnLight(desc descriptor.LightDescriptor) Change {
	return Change{Kind: ChangeSpawnLight, Light: &desc}
}

// DespawnLight proposes removing a light by label.
//
// Parameters:
//   - label: the light's label
//
// Returns:
//   - Change: the proposed change
func DespawnLight(label string) Change {
	return Change{Kind: ChangeDespawnLight, Label: label}
}

// UpdateLight proposes replacing an existing light's descriptor. The
// descriptor's Label selects the target.
//
// Parameters:
//   - desc: the replacement descriptor
//
// Returns:
//   - Change: the proposed change
func UpdateLight(desc descriptor.LightDescriptor) Change {
	return Change{Kind: ChangeUpdateLight, Light: &desc}
}

// SetEnvironment proposes replacing the world environment.
//
// Parameters:
//   - desc: the environment descriptor
//
// Returns:
//   - Change: the proposed change
func SetEnvironment(desc descriptor.WorldEnvironmentDescriptor) Change {
	return Change{Kind: ChangeWorldEnvironment, Environment: &desc}
}

// SetEnvironmentSkybox proposes switching the displayed skybox cube.
//
// Parameters:
//   - kind: which cube to display
//   - mip: the displayed mip for the specular cube
//
// Returns:
//   - Change: the proposed change
func SetEnvironmentSkybox(kind descriptor.SkyboxKind, mip uint32) Change {
	return Change{Kind: ChangeWorldEnvironmentSkybox, SkyboxKind: kind, SkyboxMip: mip}
}

// CleanWorld proposes clearing every store.
//
// Returns:
//   - Change: the proposed change
func CleanWorld() Change {
	return Change{Kind: ChangeCleanWorld}
}

// SendMessage proposes routing a message through the element store.
//
// Parameters:
//   - msg: the message to route
//
// Returns:
//   - Change: the proposed change
func SendMessage(msg message.Message) Change {
	return Change{Kind: ChangeSendMessage, Message: &msg}
}

// App proposes a runtime command.
//
// Parameters:
//   - app: the command
//
// Returns:
//   - Change: the proposed change
func App(app AppChange) Change {
	return Change{Kind: ChangeApp, App: &app}
}
