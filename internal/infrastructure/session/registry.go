package session

import "sync"

// Registry is the process-wide session_id -> *Session map: an ordinary
// value a dispatcher and its sessions are constructed with, never a
// package-level global, so a process can host more than one independent
// executor.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// insert is idempotent: re-inserting an existing id is a no-op.
func (r *Registry) insert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.sessionID]; exists {
		return
	}
	r.sessions[s.sessionID] = s
}

// remove deletes a session from the registry. A miss is silently ignored.
func (r *Registry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Lookup returns the live session for sessionID, if any.
func (r *Registry) Lookup(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Len reports how many sessions are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown destroys every session still registered. It is the
// app-session-registry step of a deployment's teardown order; settings and
// logging teardown are the caller's responsibility, above this package.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Destroy()
	}
}
