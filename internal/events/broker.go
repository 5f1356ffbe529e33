// Package events fans loan and payment changes out to live subscribers
// (the websocket stream). Delivery is best-effort: a slow subscriber misses
// events rather than blocking the publisher.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

type Kind string

const (
	KindLoanCreated     Kind = "loan.created"
	KindLoanApproved    Kind = "loan.approved"
	KindLoanRejected    Kind = "loan.rejected"
	KindLoanCompleted   Kind = "loan.completed"
	KindPaymentRecorded Kind = "payment.recorded"
)

type Event struct {
	Kind   Kind           `json:"kind"`
	LoanID string         `json:"loan_id"`
	UserID string         `json:"user_id"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}

// Filter selects events for one subscriber. Empty fields match everything.
type Filter struct {
	UserID string
	LoanID string
}

func (f Filter) Match(e Event) bool {
	if f.UserID != "" && f.UserID != e.UserID {
		return false
	}
	if f.LoanID != "" && f.LoanID != e.LoanID {
		return false
	}
	return true
}

type Publisher interface {
	Publish(e Event)
}

const defaultBuffer = 32

type subscriber struct {
	filter Filter
	ch     chan Event
}

type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber
	buffer int
	closed bool

	dropped atomic.Uint64
}

func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Broker{subs: make(map[uint64]*subscriber), buffer: buffer}
}

// Subscribe returns a channel of matching events and a cancel func that
// unsubscribes and closes the channel. Cancel is safe to call more than once.
func (b *Broker) Subscribe(f Filter) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = &subscriber{filter: f, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
		})
	}
}

func (b *Broker) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close ends every subscription; later Subscribe calls get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
	b.closed = true
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts events a full subscriber buffer refused.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }

// Nop discards events.
type Nop struct{}

func (Nop) Publish(Event) {}
