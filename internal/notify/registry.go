package notify

import (
	"context"
	"errors"
	"sync"
)

var ErrAlreadyRegistered = errors.New("subscriber already registered")

// Subscriber is a live connection that accepts broadcast payloads. Identity is
// the handle itself, so implementations must be comparable (pointer types).
//
// Send must return once ctx is done.
type Subscriber interface {
	Send(ctx context.Context, msg []byte) error
}

// Registry tracks connected subscribers. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs map[Subscriber]struct{}
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[Subscriber]struct{})}
}

func (r *Registry) Register(s Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[s]; ok {
		return ErrAlreadyRegistered
	}
	r.subs[s] = struct{}{}
	return nil
}

// Deregister removes s and reports whether it was present. Removing an
// unknown subscriber is a no-op.
func (r *Registry) Deregister(s Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[s]
	delete(r.subs, s)
	return ok
}

// Snapshot copies the current set. Later registry changes do not affect it.
func (r *Registry) Snapshot() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscriber, 0, len(r.subs))
	for s := range r.subs {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
