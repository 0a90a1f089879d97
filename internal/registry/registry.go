// Package registry keeps the bidirectional mapping between a client's
// self-chosen secret code and its transport session.
package registry

import (
	"errors"
	"sync"
)

var ErrCodeInUse = errors.New("secret code already in use")

type Registry struct {
	mu       sync.Mutex
	codes    map[string]string // secret code -> session ID
	sessions map[string]string // session ID -> secret code
}

func New() *Registry {
	return &Registry{
		codes:    make(map[string]string),
		sessions: make(map[string]string),
	}
}

// Register binds a secret code to a session. Re-registering the same session
// under a new code releases the old code in the same step. A code held by
// another live session is a conflict.
func (r *Registry) Register(sessionID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.codes[code]; ok && existing != sessionID {
		return ErrCodeInUse
	}

	if oldCode, ok := r.sessions[sessionID]; ok && oldCode != code {
		delete(r.codes, oldCode)
	}

	r.codes[code] = sessionID
	r.sessions[sessionID] = code
	return nil
}

// Unregister removes both directions of the mapping and returns the freed
// code, if any.
func (r *Registry) Unregister(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	delete(r.codes, code)
	delete(r.sessions, sessionID)
	return code, true
}

// Resolve returns the session currently holding a secret code.
func (r *Registry) Resolve(code string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessionID, ok := r.codes[code]
	return sessionID, ok
}

// CodeOf returns the secret code a session registered, if any.
func (r *Registry) CodeOf(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.sessions[sessionID]
	return code, ok
}
