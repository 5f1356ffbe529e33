package notifymock

import (
	"context"
	"sync"

	"finapp-backend/internal/domain/notify"
)

var _ notify.Dispatcher = (*Dispatcher)(nil)

// Dispatcher records every notification; DispatchFn may inject failures.
type Dispatcher struct {
	DispatchFn func(ctx context.Context, n notify.Notification) error

	mu   sync.Mutex
	sent []notify.Notification
}

func (m *Dispatcher) Dispatch(ctx context.Context, n notify.Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	if m.DispatchFn != nil {
		return m.DispatchFn(ctx, n)
	}
	return nil
}

// Sent returns a copy of everything dispatched so far, in call order.
func (m *Dispatcher) Sent() []notify.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Notification(nil), m.sent...)
}

// OfType filters Sent by notification type.
func (m *Dispatcher) OfType(t notify.Type) []notify.Notification {
	var out []notify.Notification
	for _, n := range m.Sent() {
		if n.Type() == t {
			out = append(out, n)
		}
	}
	return out
}
