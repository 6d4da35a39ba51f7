package element

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/message"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubElement records hook calls and plays back configured results.
type stubElement struct {
	mu sync.Mutex

	labels         []string
	initialChanges []world.Change
	updateChanges  []world.Change

	received []message.Message
	focus    []bool
	events   []common.InputEvent
	updates  int
}

func (e *stubElement) OnRegistration(_ context.Context) (Registration, error) {
	return Registration{Labels: e.labels, Changes: e.initialChanges}, nil
}

func (e *stubElement) OnFocusChange(_ context.Context, focused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focus = append(e.focus, focused)
	return nil
}

func (e *stubElement) OnInputEvent(_ context.Context, event common.InputEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *stubElement) OnUpdate(_ context.Context, _ time.Duration, _ common.InputState, msgs []message.Message) ([]world.Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updates++
	e.received = append(e.received, msgs...)
	return e.updateChanges, nil
}

func (e *stubElement) receivedMessages() []message.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]message.Message, len(e.received))
	copy(out, e.received)
	return out
}

// handlerElement receives messages through the per-message hook.
type handlerElement struct {
	stubElement
	handled []message.Message
}

func (e *handlerElement) OnMessage(_ context.Context, msg message.Message) ([]world.Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handled = append(e.handled, msg)
	return []world.Change{world.DespawnLight(msg.To)}, nil
}

func TestRegisterReturnsInitialChanges(t *testing.T) {
	s := NewStore()
	elem := &stubElement{
		labels:         []string{"hero"},
		initialChanges: []world.Change{world.SpawnLight(descriptor.LightDescriptor{Label: "sun"})},
	}

	id, changes, err := s.Register(context.Background(), elem)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	require.Len(t, changes, 1)
	assert.Equal(t, world.ChangeSpawnLight, changes[0].Kind)
	assert.Equal(t, 1, s.Len())
}

func TestMessageDeliveredOnNextUpdate(t *testing.T) {
	s := NewStore()
	pong := &stubElement{labels: []string{"pong"}}
	_, _, err := s.Register(context.Background(), pong)
	require.NoError(t, err)

	s.Enqueue(message.New("ping", "pong", map[string]message.Variant{"n": message.Int(1)}))
	s.Update(context.Background(), time.Millisecond, common.InputState{})

	received := pong.receivedMessages()
	require.Len(t, received, 1)
	assert.Equal(t, "ping", received[0].From)

	// Delivery is one-shot.
	s.Update(context.Background(), time.Millisecond, common.InputState{})
	assert.Len(t, pong.receivedMessages(), 1)
}

func TestUndeliverableMessageWaitsForReceiver(t *testing.T) {
	s := NewStore()
	s.Enqueue(message.New("ping", "pong", nil))
	s.Update(context.Background(), time.Millisecond, common.InputState{})

	pong := &stubElement{labels: []string{"pong"}}
	_, _, err := s.Register(context.Background(), pong)
	require.NoError(t, err)

	s.Update(context.Background(), time.Millisecond, common.InputState{})
	assert.Len(t, pong.receivedMessages(), 1)
}

func TestExpiredMessageDropped(t *testing.T) {
	s := NewStore()
	pong := &stubElement{labels: []string{"pong"}}
	_, _, err := s.Register(context.Background(), pong)
	require.NoError(t, err)

	stale := message.New("ping", "pong", nil)
	stale.CreatedAt = time.Now().Add(-2 * message.MaxAge)
	s.Enqueue(stale)

	s.Update(context.Background(), time.Millisecond, common.InputState{})
	assert.Empty(t, pong.receivedMessages())
}

func TestLabelMovesToLatestRegistration(t *testing.T) {
	s := NewStore()
	first := &stubElement{labels: []string{"hero"}}
	second := &stubElement{labels: []string{"hero"}}
	_, _, err := s.Register(context.Background(), first)
	require.NoError(t, err)
	_, _, err = s.Register(context.Background(), second)
	require.NoError(t, err)

	s.Enqueue(message.New("narrator", "hero", nil))
	s.Update(context.Background(), time.Millisecond, common.InputState{})

	assert.Empty(t, first.receivedMessages())
	assert.Len(t, second.receivedMessages(), 1)
}

func TestMessageHandlerReceivesIndividually(t *testing.T) {
	s := NewStore()
	elem := &handlerElement{stubElement: stubElement{labels: []string{"hero"}}}
	_, _, err := s.Register(context.Background(), elem)
	require.NoError(t, err)

	s.Enqueue(message.New("a", "hero", nil))
	s.Enqueue(message.New("b", "hero", nil))
	changes := s.Update(context.Background(), time.Millisecond, common.InputState{})

	elem.mu.Lock()
	handled := len(elem.handled)
	elem.mu.Unlock()
	assert.Equal(t, 2, handled)
	// The batched path stays empty for handler elements.
	assert.Empty(t, elem.receivedMessages())
	// Handler changes are merged with the tick's changes.
	assert.Len(t, changes, 2)
}

func TestUpdateMergesChangesInRegistrationOrder(t *testing.T) {
	s := NewStore()
	first := &stubElement{updateChanges: []world.Change{world.SpawnLight(descriptor.LightDescriptor{Label: "a"})}}
	second := &stubElement{updateChanges: []world.Change{world.SpawnLight(descriptor.LightDescriptor{Label: "b"})}}
	_, _, err := s.Register(context.Background(), first)
	require.NoError(t, err)
	_, _, err = s.Register(context.Background(), second)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		changes := s.Update(context.Background(), time.Millisecond, common.InputState{})
		require.Len(t, changes, 2)
		assert.Equal(t, "a", changes[0].Light.Label)
		assert.Equal(t, "b", changes[1].Light.Label)
	}
}

func TestRemoveReleasesLabels(t *testing.T) {
	s := NewStore()
	elem := &stubElement{labels: []string{"hero"}}
	id, _, err := s.Register(context.Background(), elem)
	require.NoError(t, err)

	s.Remove(id)
	assert.Equal(t, 0, s.Len())

	// The label no longer routes, so the message waits.
	s.Enqueue(message.New("narrator", "hero", nil))
	s.Update(context.Background(), time.Millisecond, common.InputState{})
	assert.Empty(t, elem.receivedMessages())
}

func TestFocusAndInputFanOut(t *testing.T) {
	s := NewStore()
	a := &stubElement{}
	b := &stubElement{}
	_, _, err := s.Register(context.Background(), a)
	require.NoError(t, err)
	_, _, err = s.Register(context.Background(), b)
	require.NoError(t, err)

	s.FocusChange(context.Background(), true)
	s.InputEvent(context.Background(), common.InputEvent{Kind: common.InputEventKey, Pressed: true})

	for _, elem := range []*stubElement{a, b} {
		elem.mu.Lock()
		assert.Equal(t, []bool{true}, elem.focus)
		assert.Len(t, elem.events, 1)
		elem.mu.Unlock()
	}
}
