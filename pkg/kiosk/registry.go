package kiosk

import (
	"sync"
	"time"
)

// Registry holds live sessions in memory and serializes updates per session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
}

type entry struct {
	mu sync.Mutex
	s  Session
}

// NewRegistry creates a registry. Sessions idle longer than ttl are removed
// by Sweep; zero keeps them forever.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: make(map[string]*entry), ttl: ttl}
}

// Put stores s, replacing any session with the same id.
func (r *Registry) Put(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &entry{s: s}
}

// Get returns the session with id.
func (r *Registry) Get(id string) (Session, error) {
	e, ok := r.lookup(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s, nil
}

// Update runs fn on the session with id and stores the result. Calls for the
// same session never overlap. When fn fails the session is left unchanged.
func (r *Registry) Update(id string, fn func(Session) (Session, error)) (Session, error) {
	e, ok := r.lookup(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := fn(e.s)
	if err != nil {
		return e.s, err
	}
	e.s = next
	return next, nil
}

// Delete removes the session with id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions not updated since now minus the ttl and returns how
// many were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if !e.mu.TryLock() {
			continue
		}
		stale := e.s.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	return e, ok
}
