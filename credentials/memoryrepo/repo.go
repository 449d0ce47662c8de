// Package memoryrepo provides a thread-safe in-memory credential repo,
// used by tests and by ephemeral sessions that should not outlive the
// process.
package memoryrepo

import (
	"sync"
)

// Repo is an in-memory implementation of credentials.Repo.
type Repo struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty in-memory credential repo.
func New() *Repo {
	return &Repo{
		values: make(map[string]string),
	}
}

// Get retrieves a value by key.
func (r *Repo) Get(key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	return value, ok, nil
}

// SetAll stores all given key/value pairs in one operation.
func (r *Repo) SetAll(values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, value := range values {
		r.values[key] = value
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (r *Repo) Delete(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		delete(r.values, key)
	}
	return nil
}
