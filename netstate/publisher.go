package netstate

import (
	"sync"

	"github.com/google/uuid"
)

// Publisher holds the latest State and fans it out to subscribers. Each
// subscriber has a single-slot buffer: a subscriber that is not receiving
// only ever sees the most recent value.
type Publisher struct {
	mu    sync.RWMutex
	state State
	subs  map[uuid.UUID]chan State

	// onCount is called with the subscriber count after it changes.
	onCount func(int)
}

// NewPublisher returns a publisher holding initial.
func NewPublisher(initial State) *Publisher {
	return &Publisher{
		state: initial,
		subs:  make(map[uuid.UUID]chan State),
	}
}

// Current returns the latest published state.
func (p *Publisher) Current() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Publish replaces the current state and wakes every subscriber. It never blocks.
func (p *Publisher) Publish(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = s
	for _, ch := range p.subs {
		replace(ch, s)
	}
}

// replace overwrites the pending value in a one-slot channel. Only called
// with the publisher lock held, so no other sender can refill the slot.
func replace(ch chan State, s State) {
	select {
	case <-ch:
	default:
	}
	ch <- s
}

// Subscribe returns a subscription whose channel already holds the current state.
func (p *Publisher) Subscribe() *Subscription {
	p.mu.Lock()
	id := uuid.New()
	ch := make(chan State, 1)
	ch <- p.state
	p.subs[id] = ch
	n := len(p.subs)
	p.mu.Unlock()

	p.countChanged(n)
	return &Subscription{ID: id, c: ch, pub: p}
}

func (p *Publisher) unsubscribe(id uuid.UUID) {
	p.mu.Lock()
	ch, ok := p.subs[id]
	if ok {
		delete(p.subs, id)
		close(ch)
	}
	n := len(p.subs)
	p.mu.Unlock()

	if ok {
		p.countChanged(n)
	}
}

func (p *Publisher) countChanged(n int) {
	if p.onCount != nil {
		p.onCount(n)
	}
}

// Subscription is a live sequence of states.
type Subscription struct {
	ID   uuid.UUID
	c    chan State
	pub  *Publisher
	once sync.Once
}

// C yields the current state first, then every later state the receiver is
// ready for. It is closed by Close.
func (s *Subscription) C() <-chan State {
	return s.c
}

// Close ends the subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.pub.unsubscribe(s.ID)
	})
}
