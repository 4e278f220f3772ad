package events

// Handler receives dispatched events
type Handler func(Event)

// Emitter is the write side of the bus handed to components
type Emitter interface {
	Emit(at float64, t Type, payload any)
}

// Bus buffers emitted events and dispatches them to subscribers in
// (Time, Priority, Sequence) order when flushed. Handlers may emit further
// events; those are dispatched in the same flush.
type Bus struct {
	queue    *Queue
	handlers []Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{queue: NewQueue()}
}

// Subscribe registers a handler. Handlers run in registration order.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Emit buffers an event until the next Flush
func (b *Bus) Emit(at float64, t Type, payload any) {
	b.queue.Push(Event{Time: at, Type: t, Payload: payload})
}

// Pending returns the number of buffered events
func (b *Bus) Pending() int {
	return b.queue.Len()
}

// Flush dispatches every buffered event and returns how many were delivered
func (b *Bus) Flush() int {
	n := 0
	for {
		e, ok := b.queue.Pop()
		if !ok {
			return n
		}
		for _, h := range b.handlers {
			h(e)
		}
		n++
	}
}

// Recorder collects dispatched events, handy for tests and reports
type Recorder struct {
	Events []Event
}

// Handle appends e
func (r *Recorder) Handle(e Event) {
	r.Events = append(r.Events, e)
}

// Types returns the recorded event types in dispatch order
func (r *Recorder) Types() []Type {
	types := make([]Type, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}

// Reset drops recorded events
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}
