package element

import (
	"context"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/message"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
)

// Store owns every registered element and drives their hooks. It implements
// world.MessageSink so messages proposed during tick N are delivered at the
// start of tick N+1.
type Store interface {
	// Register stores an element and runs its registration hook.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - elem: the element to store
	//
	// Returns:
	//   - uint64: the element's store index
	//   - []world.Change: the element's initial changes
	//   - error: the registration hook's error, the element is not stored
	Register(ctx context.Context, elem Element) (uint64, []world.Change, error)

	// Remove drops an element and releases its labels.
	//
	// Parameters:
	//   - id: the element's store index
	Remove(id uint64)

	// Enqueue implements world.MessageSink.
	//
	// Parameters:
	//   - msg: the message to queue for the next tick
	Enqueue(msg message.Message)

	// Update runs one tick: delivers queued messages, calls every element's
	// update hook concurrently and merges the proposed changes in element
	// registration order.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - delta: the time since the previous tick
	//   - input: the per-tick input snapshot
	//
	// Returns:
	//   - []world.Change: the merged proposed changes
	Update(ctx context.Context, delta time.Duration, input common.InputState) []world.Change

	// FocusChange fans the focus flip out to every element.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - focused: true when the window gained focus
	FocusChange(ctx context.Context, focused bool)

	// InputEvent fans one raw event out to every element.
	//
	// Parameters:
	//   - ctx: the runtime's lifetime context
	//   - event: the raw event
	InputEvent(ctx context.Context, event common.InputEvent)

	// Len reports the number of stored elements.
	//
	// Returns:
	//   - int: the element count
	Len() int
}

// store is the implementation of the Store interface.
type store struct {
	mu sync.Mutex

	elements map[uint64]Element
	nextID   uint64

	// labels maps a routing label to the element that answers to it. A
	// re-registered label moves to the newer element.
	labels map[string]uint64

	queue []message.Message

	pool   worker.DynamicWorkerPool
	taskID int
}

var _ Store = &store{}
var _ world.MessageSink = &store{}

// NewStore creates an empty element store backed by a shared worker pool.
//
// Returns:
//   - Store: the empty store
func NewStore() Store {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return &store{
		elements: make(map[uint64]Element),
		labels:   make(map[string]uint64),
		pool:     worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
}

func (s *store) Register(ctx context.Context, elem Element) (uint64, []world.Change, error) {
	reg, err := elem.OnRegistration(ctx)
	if err != nil {
		return 0, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.elements[id] = elem
	for _, label := range reg.Labels {
		if prev, taken := s.labels[label]; taken {
			log.Printf("[ElementStore] label %q moved from element %d to %d", label, prev, id)
		}
		s.labels[label] = id
	}
	return id, reg.Changes, nil
}

func (s *store) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elements[id]; !ok {
		return
	}
	delete(s.elements, id)
	for label, owner := range s.labels {
		if owner == id {
			delete(s.labels, label)
		}
	}
}

func (s *store) Enqueue(msg message.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, msg)
}

func (s *store) Update(ctx context.Context, delta time.Duration, input common.InputState) []world.Change {
	s.mu.Lock()
	ids := s.sortedIDsLocked()
	elements := make(map[uint64]Element, len(ids))
	for _, id := range ids {
		elements[id] = s.elements[id]
	}
	delivered, requeue := s.routeQueueLocked()
	s.queue = requeue
	s.mu.Unlock()

	// Per-element result slots so the merge below is deterministic in
	// registration order, regardless of worker completion order.
	results := make([][]world.Change, len(ids))
	var wg sync.WaitGroup
	for slot, id := range ids {
		wg.Add(1)
		elem := elements[id]
		msgs := delivered[id]
		out := &results[slot]
		s.submit(func() {
			defer wg.Done()
			*out = runElement(ctx, elem, delta, input, msgs)
		})
	}
	wg.Wait()

	var merged []world.Change
	for _, changes := range results {
		merged = append(merged, changes...)
	}
	return merged
}

// runElement drives one element's per-tick hooks.
func runElement(ctx context.Context, elem Element, delta time.Duration, input common.InputState, msgs []message.Message) []world.Change {
	var changes []world.Change

	if handler, ok := elem.(MessageHandler); ok {
		for _, msg := range msgs {
			more, err := handler.OnMessage(ctx, msg)
			if err != nil {
				log.Printf("[ElementStore] message hook failed for %q -> %q: %v", msg.From, msg.To, err)
				continue
			}
			changes = append(changes, more...)
		}
		msgs = nil
	}

	more, err := elem.OnUpdate(ctx, delta, input, msgs)
	if err != nil {
		log.Printf("[ElementStore] update hook failed: %v", err)
		return changes
	}
	return append(changes, more...)
}

// routeQueueLocked splits the queue into per-element deliveries and the
// messages that stay queued. Expired messages are dropped with a warning;
// messages whose label has no owner yet wait for a future tick. Caller holds
// the lock.
func (s *store) routeQueueLocked() (map[uint64][]message.Message, []message.Message) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	now := time.Now()
	delivered := make(map[uint64][]message.Message)
	var requeue []message.Message
	for _, msg := range s.queue {
		if msg.Expired(now) {
			log.Printf("[ElementStore] dropping expired message %q -> %q", msg.From, msg.To)
			continue
		}
		owner, ok := s.labels[msg.To]
		if !ok {
			requeue = append(requeue, msg)
			continue
		}
		delivered[owner] = append(delivered[owner], msg)
	}
	return delivered, requeue
}

func (s *store) FocusChange(ctx context.Context, focused bool) {
	s.fanOut(func(elem Element) {
		if err := elem.OnFocusChange(ctx, focused); err != nil {
			log.Printf("[ElementStore] focus hook failed: %v", err)
		}
	})
}

func (s *store) InputEvent(ctx context.Context, event common.InputEvent) {
	s.fanOut(func(elem Element) {
		if err := elem.OnInputEvent(ctx, event); err != nil {
			log.Printf("[ElementStore] input hook failed: %v", err)
		}
	})
}

func (s *store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elements)
}

// fanOut runs fn concurrently for every element and joins before returning.
func (s *store) fanOut(fn func(Element)) {
	s.mu.Lock()
	elements := make([]Element, 0, len(s.elements))
	for _, id := range s.sortedIDsLocked() {
		elements = append(elements, s.elements[id])
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, elem := range elements {
		wg.Add(1)
		e := elem
		s.submit(func() {
			defer wg.Done()
			fn(e)
		})
	}
	wg.Wait()
}

// submit hands a unit of work to the pool. Workers are reused across ticks;
// a WaitGroup provides the per-tick barrier since the pool's own wait blocks
// until workers idle-exit.
func (s *store) submit(fn func()) {
	s.mu.Lock()
	id := s.taskID
	s.taskID++
	s.mu.Unlock()
	s.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			fn()
			return nil, nil
		},
	})
}

// sortedIDsLocked returns element ids in registration order. Caller holds
// the lock.
func (s *store) sortedIDsLocked() []uint64 {
	ids := make([]uint64, 0, len(s.elements))
	for id := range s.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
