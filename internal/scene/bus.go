package scene

import "locomotion/internal/locomotion"

type Handler func(locomotion.Event)

// Bus fans controller events out to audio, logging and the HUD.
type Bus struct {
	handlers map[locomotion.EventType][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[locomotion.EventType][]Handler),
	}
}

func (b *Bus) Subscribe(t locomotion.EventType, fn Handler) {
	b.handlers[t] = append(b.handlers[t], fn)
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Handler) {
	b.all = append(b.all, fn)
}

func (b *Bus) Emit(e locomotion.Event) {
	for _, fn := range b.handlers[e.Type] {
		fn(e)
	}
	for _, fn := range b.all {
		fn(e)
	}
}
