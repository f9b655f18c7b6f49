// Package eventlog keeps the append-only audit trail of order events.
package eventlog

import (
	"sync"

	"github.com/openexec/execution-engine/pkg/engine/model"
)

type EventLog interface {
	Append(ev *model.OrderEvent)
	Events(orderID string) []*model.OrderEvent
}

type InMemory struct {
	mu     sync.RWMutex
	events map[string][]*model.OrderEvent
}

var _ EventLog = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[string][]*model.OrderEvent)}
}

func (l *InMemory) Append(ev *model.OrderEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[ev.OrderID] = append(l.events[ev.OrderID], ev)
}

func (l *InMemory) Events(orderID string) []*model.OrderEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	evs := l.events[orderID]
	out := make([]*model.OrderEvent, len(evs))
	copy(out, evs)
	return out
}
