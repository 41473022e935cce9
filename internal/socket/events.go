package socket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"parley/internal/models"
)

// Handler receives the raw payload of an inbound event.
type Handler func(payload json.RawMessage)

// Subscriber is anything inbound events can be subscribed on.
type Subscriber interface {
	Subscribe(event models.EventType, fn Handler) *Subscription
}

type handlerEntry struct {
	id uint64
	fn Handler
}

// Registry fans inbound events out to their subscribers in subscription order.
type Registry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[models.EventType][]handlerEntry
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[models.EventType][]handlerEntry),
	}
}

func (r *Registry) Subscribe(event models.EventType, fn Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.handlers[event] = append(r.handlers[event], handlerEntry{id: id, fn: fn})

	return &Subscription{cancel: func() { r.remove(event, id) }}
}

func (r *Registry) remove(event models.EventType, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.handlers[event]
	for i, e := range entries {
		if e.id == id {
			r.handlers[event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(r.handlers[event]) == 0 {
		delete(r.handlers, event)
	}
}

// Dispatch calls every handler of event synchronously. Handlers may subscribe
// or unsubscribe while being dispatched.
func (r *Registry) Dispatch(event models.EventType, payload json.RawMessage) {
	r.mu.RLock()
	entries := r.handlers[event]
	fns := make([]Handler, len(entries))
	for i, e := range entries {
		fns[i] = e.fn
	}
	r.mu.RUnlock()

	if len(fns) == 0 {
		slog.Debug("no handlers for event", "event", event)
	}
	for _, fn := range fns {
		fn(payload)
	}
}

// Len returns the number of handlers registered for event.
func (r *Registry) Len(event models.EventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[event])
}

// Subscription removes its handler when closed. Close is idempotent and safe on nil.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Close() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

// On subscribes fn to event, decoding each payload into T. Payloads that do not
// decode are logged and dropped.
func On[T any](src Subscriber, event models.EventType, fn func(T)) *Subscription {
	return src.Subscribe(event, func(payload json.RawMessage) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			slog.Warn("dropping malformed event", "event", event, "error", err)
			return
		}
		fn(v)
	})
}

// Scope owns a group of subscriptions that end together.
type Scope struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// Add hands sub to the scope. Adding to a closed scope closes sub immediately.
func (s *Scope) Add(subs ...*Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		for _, sub := range subs {
			sub.Close()
		}
		return
	}
	s.subs = append(s.subs, subs...)
	s.mu.Unlock()
}

func (s *Scope) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

type statusListeners struct {
	mu     sync.Mutex
	nextID uint64
	fns    []statusEntry
}

type statusEntry struct {
	id uint64
	fn func(connected bool)
}

func (l *statusListeners) add(fn func(bool)) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.fns = append(l.fns, statusEntry{id: id, fn: fn})

	return &Subscription{cancel: func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.fns {
			if e.id == id {
				l.fns = append(l.fns[:i:i], l.fns[i+1:]...)
				return
			}
		}
	}}
}

func (l *statusListeners) notify(connected bool) {
	l.mu.Lock()
	fns := make([]func(bool), len(l.fns))
	for i, e := range l.fns {
		fns[i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
}
