// Package session implements the server-side session store backing the
// opaque session cookie. Only the user ID is kept server-side; user fields are
// re-fetched per request so sessions never serve stale profile data.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the HTTP cookie carrying the session ID.
const CookieName = "unihub_session"

const keyPrefix = "session:%s"

// Store persists sessions keyed by an opaque ID.
type Store interface {
	// Create opens a session for the user and returns its opaque ID.
	Create(ctx context.Context, userID uint) (string, error)
	// UserID resolves a session ID to a user ID. The second return is false
	// when the session does not exist or has expired.
	UserID(ctx context.Context, id string) (uint, bool, error)
	// Refresh extends the session's TTL (sliding expiry).
	Refresh(ctx context.Context, id string) error
	// Destroy removes the session. Destroying a missing session is a no-op.
	Destroy(ctx context.Context, id string) error
}

// newID returns a 256-bit random identifier, hex encoded.
func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// across instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf(keyPrefix, id)
}

func (s *RedisStore) Create(ctx context.Context, userID uint) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(id), strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) UserID(ctx context.Context, id string) (uint, bool, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, false, err
	}
	return uint(userID), true, nil
}

func (s *RedisStore) Refresh(ctx context.Context, id string) error {
	return s.client.Expire(ctx, s.key(id), s.ttl).Err()
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

type memoryEntry struct {
	userID    uint
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used when Redis is
// unavailable (single-instance development) and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

// NewMemoryStore returns an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Create(_ context.Context, userID uint) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return id, nil
}

func (s *MemoryStore) UserID(_ context.Context, id string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return 0, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return 0, false, nil
	}
	return entry.userID, true, nil
}

func (s *MemoryStore) Refresh(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[id]; ok {
		entry.expiresAt = time.Now().Add(s.ttl)
		s.sessions[id] = entry
	}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
