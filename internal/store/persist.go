// Package store holds client-side state over the client SDK: the auth store,
// the posts store and the component-level page guard.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Persister keeps JSON documents by key across restarts. Load reports false
// when nothing is stored under key.
type Persister interface {
	Load(key string, v any) (bool, error)
	Save(key string, v any) error
	Remove(key string) error
}

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// FilePersister writes one file per key under Dir.
type FilePersister struct {
	Dir string
	mu  sync.Mutex
}

func NewFilePersister(dir string) *FilePersister { return &FilePersister{Dir: dir} }

func (p *FilePersister) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(p.Dir, key+".json"), nil
}

func (p *FilePersister) Load(key string, v any) (bool, error) {
	path, err := p.path(key)
	if err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// Save replaces the file atomically: write a temp file, then rename.
func (p *FilePersister) Save(key string, v any) error {
	path, err := p.path(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (p *FilePersister) Remove(key string) error {
	path, err := p.path(key)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryPersister keeps encoded documents in a map, for tests.
type MemoryPersister struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{docs: make(map[string][]byte)}
}

func (p *MemoryPersister) Load(key string, v any) (bool, error) {
	p.mu.Lock()
	raw, ok := p.docs[key]
	p.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (p *MemoryPersister) Save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.docs[key] = raw
	p.mu.Unlock()
	return nil
}

func (p *MemoryPersister) Remove(key string) error {
	p.mu.Lock()
	delete(p.docs, key)
	p.mu.Unlock()
	return nil
}

// Raw returns the stored JSON for key.
func (p *MemoryPersister) Raw(key string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.docs[key]
}
