package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Credentials are what the browser kept in cookies.
type Credentials struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Empty reports whether no token is held.
func (c Credentials) Empty() bool { return c.Token == "" }

// TokenStore holds the bearer token between requests. Load never fails for
// a store that simply has nothing saved.
type TokenStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// MemoryTokenStore keeps credentials for the life of the process.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (s *MemoryTokenStore) Load() (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

func (s *MemoryTokenStore) Save(c Credentials) error {
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Clear() error { return s.Save(Credentials{}) }

// FileTokenStore keeps credentials in a JSON file readable only by the user.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

func NewFileTokenStore(path string) *FileTokenStore { return &FileTokenStore{path: path} }

// DefaultTokenPath is the per-user credentials file.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tourismcam", "credentials.json"), nil
}

func (s *FileTokenStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Credentials
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, fmt.Errorf("read credentials %s: %w", s.path, err)
	}
	return c, nil
}

func (s *FileTokenStore) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
