package live

import (
	"errors"
	"sync"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already registered")
)

// Registry is the single source of truth for which sessions exist. It is
// touched concurrently by the ingestion loops, the analysis schedulers,
// the heartbeat monitors and the HTTP control endpoints, so every access
// goes through the lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session under its identifier.
func (r *Registry) Add(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	r.sessions[sess.ID] = sess
	return nil
}

// Get looks up a session by identifier.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove evicts a session. Removing an id that is already gone is a
// no-op: disconnect and explicit stop may race on the same session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports how many sessions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns a point-in-time copy of all registered sessions.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}
