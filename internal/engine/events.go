package engine

import (
	"sync"

	"arcticd/pkg/types"
)

// MemorySink stores events in-memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []types.TransferEvent
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) OnEvent(e types.TransferEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *MemorySink) Events() []types.TransferEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TransferEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Broadcaster fans events out to dynamic subscribers over buffered
// channels. Producers never block: events to a subscriber whose buffer is
// full are dropped, per the no-backpressure sink contract.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan types.TransferEvent
}

const subscriberBuffer = 256

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[int]chan types.TransferEvent{}}
}

func (b *Broadcaster) OnEvent(e types.TransferEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default: // slow consumer, drop
		}
	}
}

// Subscribe registers a new consumer. The returned cancel func must be
// called to release the channel.
func (b *Broadcaster) Subscribe() (<-chan types.TransferEvent, func()) {
	ch := make(chan types.TransferEvent, subscriberBuffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// FanoutSink delivers each event to every wrapped sink in order.
type FanoutSink []types.EventSink

func (f FanoutSink) OnEvent(e types.TransferEvent) {
	for _, s := range f {
		s.OnEvent(e)
	}
}
