package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tourismcam/internal/models"
)

// SessionStore keeps login sessions and one-shot password reset tokens.
// Get returns (nil, nil) for missing or expired sessions.
type SessionStore interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
	SaveResetToken(ctx context.Context, token string, userID uint, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (uint, bool, error)
}

// NewResetToken returns a random hex token for password resets.
func NewResetToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type resetEntry struct {
	userID    uint
	expiresAt time.Time
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]models.Session
	resets   map[string]resetEntry
}

// NewMemorySessionStore creates an empty store on the wall clock.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		now:      time.Now,
		sessions: make(map[string]models.Session),
		resets:   make(map[string]resetEntry),
	}
}

func (m *MemorySessionStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = *s
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if s.Expired(m.now()) {
		delete(m.sessions, sessionID)
		return nil, nil
	}
	return &s, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemorySessionStore) SaveResetToken(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[token] = resetEntry{userID: userID, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessionStore) ConsumeResetToken(ctx context.Context, token string) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.resets[token]
	delete(m.resets, token)
	if !ok || !m.now().Before(entry.expiresAt) {
		return 0, false, nil
	}
	return entry.userID, true, nil
}

const (
	sessionKeyPrefix = "session:%s"
	resetKeyPrefix   = "pwreset:%s"
)

// RedisSessionStore keeps sessions in Redis with TTLs matching expiry.
type RedisSessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisSessionStore wraps rdb, which must not be nil.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, now: time.Now}
}

func (r *RedisSessionStore) Save(ctx context.Context, s *models.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, fmt.Sprintf(sessionKeyPrefix, s.SessionID), b, ttl).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := r.rdb.Get(ctx, fmt.Sprintf(sessionKeyPrefix, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, fmt.Sprintf(sessionKeyPrefix, sessionID)).Err()
}

func (r *RedisSessionStore) SaveResetToken(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	return r.rdb.Set(ctx, fmt.Sprintf(resetKeyPrefix, token), userID, ttl).Err()
}

func (r *RedisSessionStore) ConsumeResetToken(ctx context.Context, token string) (uint, bool, error) {
	id, err := r.rdb.GetDel(ctx, fmt.Sprintf(resetKeyPrefix, token)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint(id), true, nil
}
