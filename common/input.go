package common

// InputEventKind discriminates the InputEvent union.
type InputEventKind int

const (
	// InputEventKey is a key press or release.
	InputEventKey InputEventKind = iota

	// InputEventMouseButton is a mouse button press or release.
	InputEventMouseButton

	// InputEventMouseMotion is a relative cursor movement.
	InputEventMouseMotion

	// InputEventScroll is a mouse wheel movement.
	InputEventScroll

	// InputEventGamepadAxis is a gamepad axis movement.
	InputEventGamepadAxis

	// InputEventGamepadButton is a gamepad button press or release.
	InputEventGamepadButton
)

// InputEvent is a single raw input event delivered by the windowing
// collaborator. It is a plain value so elements can consume it from any
// goroutine without holding window state.
type InputEvent struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind InputEventKind

	// Key is the virtual key code for InputEventKey.
	Key uint32

	// Button is the mouse or gamepad button index.
	Button uint32

	// Pressed is true for press events, false for release.
	Pressed bool

	// DeltaX, DeltaY carry relative cursor motion for InputEventMouseMotion
	// and the scroll offsets for InputEventScroll. DeltaY is positive when
	// the cursor moves up, so pitch increases with upward movement.
	DeltaX, DeltaY float32

	// Axis is the gamepad axis index for InputEventGamepadAxis.
	Axis uint32

	// Value is the gamepad axis position in [-1, 1].
	Value float32
}

// InputState is the per-tick snapshot handed to every element's update. It
// aggregates the events received since the previous tick.
type InputState struct {
	// Pressed reports the keys currently held down.
	Pressed map[uint32]bool

	// MouseDeltaX, MouseDeltaY accumulate relative cursor motion this tick.
	// MouseDeltaY is positive for upward movement.
	MouseDeltaX, MouseDeltaY float32

	// ScrollDelta accumulates wheel movement this tick.
	ScrollDelta float32
}

// NewInputState creates an empty snapshot.
//
// Returns:
//   - InputState: the empty snapshot
func NewInputState() InputState {
	return InputState{Pressed: make(map[uint32]bool)}
}

// IsPressed reports whether the given key is held down.
//
// Parameters:
//   - key: the virtual key code to check
//
// Returns:
//   - bool: true if the key is held
func (s InputState) IsPressed(key uint32) bool {
	return s.Pressed[key]
}

// Apply folds a single event into the snapshot.
//
// Parameters:
//   - ev: the event to fold in
func (s *InputState) Apply(ev InputEvent) {
	switch ev.Kind {
	case InputEventKey:
		if s.Pressed == nil {
			s.Pressed = make(map[uint32]bool)
		}
		if ev.Pressed {
			s.Pressed[ev.Key] = true
		} else {
			delete(s.Pressed, ev.Key)
		}
	case InputEventMouseMotion:
		s.MouseDeltaX += ev.DeltaX
		s.MouseDeltaY += ev.DeltaY
	case InputEventScroll:
		s.ScrollDelta += ev.DeltaY
	}
}

// ResetDeltas clears the accumulated per-tick deltas while keeping held-key
// state. Called by the runtime at the end of each update phase.
func (s *InputState) ResetDeltas() {
	s.MouseDeltaX = 0
	s.MouseDeltaY = 0
	s.ScrollDelta = 0
}
