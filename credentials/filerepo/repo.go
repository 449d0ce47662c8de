// Package filerepo persists credentials as a flat JSON object on disk, so a
// CLI session survives process restarts the way a browser session survives
// page reloads.
package filerepo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const fileMode = 0o600

// Repo is a file-backed implementation of credentials.Repo. The file holds
// a single JSON object of string keys and values. Mutations rewrite the
// file through a temp-file rename so readers never observe a partial
// record.
type Repo struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// New creates a file-backed repo at the given path, loading any existing
// record. The parent directory is created if needed.
func New(path string) (*Repo, error) {
	if path == "" {
		return nil, errors.New("[filerepo.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[filerepo.New] os.MkdirAll")
	}

	r := &Repo{path: path, values: make(map[string]string)}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Get retrieves a value by key.
func (r *Repo) Get(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.values[key]
	return value, ok, nil
}

// SetAll stores all given key/value pairs and persists the record.
func (r *Repo) SetAll(values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, value := range values {
		r.values[key] = value
	}
	return r.persist()
}

// Delete removes the given keys and persists the record. Missing keys are
// ignored.
func (r *Repo) Delete(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		delete(r.values, key)
	}
	return r.persist()
}

func (r *Repo) load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[filerepo.load] os.ReadFile")
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &r.values); err != nil {
		return errors.Wrap(err, "[filerepo.load] json.Unmarshal")
	}
	return nil
}

func (r *Repo) persist() error {
	data, err := json.MarshalIndent(r.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filerepo.persist] json.MarshalIndent")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return errors.Wrap(err, "[filerepo.persist] os.WriteFile")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "[filerepo.persist] os.Rename")
	}
	return nil
}
