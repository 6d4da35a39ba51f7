package descriptor

import "github.com/Carmen-Shannon/orbit-go/common"

// LightType discriminates the light variants. The numeric values are the
// type ids written into the light storage buffer.
type LightType uint32

const (
	// LightPoint radiates from Position in all directions.
	LightPoint LightType = 0

	// LightDirectional lights everything along Direction, ignoring Position.
	LightDirectional LightType = 1

	// LightSpot radiates from Position within the cone around Direction.
	LightSpot LightType = 2
)

// LightDescriptor describes one light. All lights in a world are packed into
// a single storage buffer at 64 bytes per light.
type LightDescriptor struct {
	// Label is the light's unique identity within the world.
	Label string

	// Type selects the light variant.
	Type LightType

	// Color is the linear RGB color.
	Color [3]float32

	// Position is the emitter position for point and spot lights.
	Position [3]float32

	// Direction is the emission direction for directional and spot lights.
	Direction [3]float32

	// Intensity scales the color.
	Intensity float32

	// InnerCone is the spot inner cone angle in radians; full intensity
	// inside it.
	InnerCone float32

	// OuterCone is the spot outer cone angle in radians; intensity falls to
	// zero at it.
	OuterCone float32
}

// PointLight creates a point light descriptor.
//
// Parameters:
//   - label: the light's unique label
//   - position: the emitter position
//   - color: the linear RGB color
//   - intensity: the color multiplier
//
// Returns:
//   - LightDescriptor: the descriptor
func PointLight(label string, position, color [3]float32, intensity float32) LightDescriptor {
	return LightDescriptor{
		Label:     label,
		Type:      LightPoint,
		Color:     color,
		Position:  position,
		Intensity: intensity,
	}
}

// DirectionalLight creates a directional light descriptor.
//
// Parameters:
//   - label: the light's unique label
//   - direction: the emission direction
//   - color: the linear RGB color
//   - intensity: the color multiplier
//
// Returns:
//   - LightDescriptor: the descriptor
func DirectionalLight(label string, direction, color [3]float32, intensity float32) LightDescriptor {
	return LightDescriptor{
		Label:     label,
		Type:      LightDirectional,
		Color:     color,
		Direction: direction,
		Intensity: intensity,
	}
}

// SpotLight creates a spot light descriptor.
//
// Parameters:
//   - label: the light's unique label
//   - position: the emitter position
//   - direction: the cone axis
//   - color: the linear RGB color
//   - intensity: the color multiplier
//   - innerCone: the full-intensity cone angle in radians
//   - outerCone: the zero-intensity cone angle in radians
//
// Returns:
//   - LightDescriptor: the descriptor
func SpotLight(label string, position, direction, color [3]float32, intensity, innerCone, outerCone float32) LightDescriptor {
	return LightDescriptor{
		Label:     label,
		Type:      LightSpot,
		Color:     color,
		Position:  position,
		Direction: direction,
		Intensity: intensity,
		InnerCone: innerCone,
		OuterCone: outerCone,
	}
}

// Hash returns the cache key for the light.
//
// Returns:
//   - uint64: the descriptor hash
func (d LightDescriptor) Hash() uint64 {
	h := common.NewHasher()
	h.WriteString(d.Label)
	h.WriteUint32(uint32(d.Type))
	h.WriteFloat32s(d.Color[:])
	h.WriteFloat32s(d.Position[:])
	h.WriteFloat32s(d.Direction[:])
	h.WriteFloat32(d.Intensity)
	h.WriteFloat32(d.InnerCone)
	h.WriteFloat32(d.OuterCone)
	return h.Sum64()
}
