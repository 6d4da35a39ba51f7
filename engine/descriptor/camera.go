package descriptor

import (
	"math"

	"github.com/Carmen-Shannon/orbit-go/common"
)

// DefaultCameraLabel is the label of the camera the world spawns on creation
// and respawns whenever the active camera is despawned.
const DefaultCameraLabel = "Default"

// SafeFracPi2 is the pitch clamp bound: just shy of ±π/2 so the view
// direction never collapses onto the up axis.
const SafeFracPi2 = float32(math.Pi/2) - 1e-4

// CameraDescriptor describes a perspective camera by position and yaw/pitch
// orientation. Yaw and pitch are radians; the view direction is
// (cos pitch·cos yaw, sin pitch, cos pitch·sin yaw), so yaw π looks down −X.
type CameraDescriptor struct {
	// Label is the camera's unique identity within the world.
	Label string

	// Position is the eye position.
	Position [3]float32

	// Yaw is the rotation around the up axis.
	Yaw float32

	// Pitch is the elevation angle, clamped to ±SafeFracPi2 by every world
	// change that touches it.
	Pitch float32

	// Aspect is the viewport width over height.
	Aspect float32

	// FovY is the vertical field of view in radians.
	FovY float32

	// Near is the near clip plane distance.
	Near float32

	// Far is the far clip plane distance.
	Far float32

	// GlobalGamma is the display gamma applied in the shading pass.
	GlobalGamma float32
}

// DefaultCamera returns the camera spawned into every new world: at the
// origin, yaw π (looking down −X), level pitch, 45° vertical field of view.
//
// Parameters:
//   - aspect: the initial viewport aspect ratio
//
// Returns:
//   - CameraDescriptor: the default camera
func DefaultCamera(aspect float32) CameraDescriptor {
	return CameraDescriptor{
		Label:       DefaultCameraLabel,
		Position:    [3]float32{0, 0, 0},
		Yaw:         float32(math.Pi),
		Pitch:       0,
		Aspect:      aspect,
		FovY:        float32(45.0 * math.Pi / 180.0),
		Near:        0.1,
		Far:         100,
		GlobalGamma: 2.2,
	}
}

// ClampPitch clamps the pitch into the safe range. Call after any edit that
// can push the pitch toward ±π/2.
func (d *CameraDescriptor) ClampPitch() {
	if d.Pitch > SafeFracPi2 {
		d.Pitch = SafeFracPi2
	} else if d.Pitch < -SafeFracPi2 {
		d.Pitch = -SafeFracPi2
	}
}

// Forward returns the unit view direction derived from yaw and pitch.
//
// Returns:
//   - [3]float32: the forward vector
func (d CameraDescriptor) Forward() [3]float32 {
	return common.Forward(d.Pitch, d.Yaw)
}

// Hash returns the cache key for the camera.
//
// Returns:
//   - uint64: the descriptor hash
func (d CameraDescriptor) Hash() uint64 {
	h := common.NewHasher()
	h.WriteString(d.Label)
	h.WriteFloat32s(d.Position[:])
	h.WriteFloat32(d.Yaw)
	h.WriteFloat32(d.Pitch)
	h.WriteFloat32(d.Aspect)
	h.WriteFloat32(d.FovY)
	h.WriteFloat32(d.Near)
	h.WriteFloat32(d.Far)
	h.WriteFloat32(d.GlobalGamma)
	return h.Sum64()
}
