// Package element defines the unit of user logic and the store that drives
// it. Elements never hold references to each other; they communicate through
// value messages routed by label, and they influence the scene only by
// returning proposed world changes from their hooks.
package element

import (
	"context"
	"time"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/message"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
)

// Registration is what an element reports when it is stored: the labels it
// answers to and the changes that set up its initial scene state.
type Registration struct {
	// Labels tag the element for message routing. May be empty.
	Labels []string

	// Changes are applied to the world before the next update.
	Changes []world.Change
}

// Element is a unit of user logic. All hooks are called by the store; within
// one element they are serialized, across elements they may run concurrently.
type Element interface {
	// OnRegistration is called exactly once when the element is stored.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//
	// Returns:
	//   - Registration: the element's labels and initial changes
	//   - error: an error aborts the registration
	OnRegistration(ctx context.Context) (Registration, error)

	// OnFocusChange is called whenever the window focus flips.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - focused: true when the window gained focus
	//
	// Returns:
	//   - error: an error is logged, the element stays registered
	OnFocusChange(ctx context.Context, focused bool) error

	// OnInputEvent is called for each raw input event.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - event: the raw event
	//
	// Returns:
	//   - error: an error is logged, the element stays registered
	OnInputEvent(ctx context.Context, event common.InputEvent) error

	// OnUpdate is the main tick. Messages addressed to any of the element's
	// labels since the previous tick are delivered here.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - delta: the time since the previous tick
	//   - input: the per-tick input snapshot
	//   - messages: the messages delivered this tick (may be nil)
	//
	// Returns:
	//   - []world.Change: the element's proposed changes (may be nil)
	//   - error: an error is logged, the element's changes are discarded
	OnUpdate(ctx context.Context, delta time.Duration, input common.InputState, messages []message.Message) ([]world.Change, error)
}

// MessageHandler is the optional per-message hook. Elements implementing it
// receive each message individually instead of batched into OnUpdate; the
// returned changes are merged with the tick's change list.
type MessageHandler interface {
	// OnMessage handles one delivered message.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - msg: the delivered message
	//
	// Returns:
	//   - []world.Change: the proposed changes (may be nil)
	//   - error: an error is logged, the changes are discarded
	OnMessage(ctx context.Context, msg message.Message) ([]world.Change, error)
}
