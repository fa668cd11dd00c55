package events

import "sync"

// Bus fans events out to any number of subscribers. Slow subscribers drop
// events rather than block emitters.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan *Event
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan *Event)}
}

// Emit renders the payload and delivers it to every active subscriber.
func (b *Bus) Emit(payload Payload) {
	if b == nil || payload == nil {
		return
	}
	evt := payload.Event()
	if evt == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a buffered subscription. The returned cancel func must
// be called to release the subscription; after cancel the channel is closed.
func (b *Bus) Subscribe(buffer int) (<-chan *Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan *Event, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
