package auth

import (
	"context"
	"sync"
	"time"
)

// SessionStore tracks the single live session token per user.
// Put overwrites any previous entry for the user, which is what enforces the
// one-session-per-account policy. Implementations must treat a logically
// expired entry as absent on every read (lazy expiry), so a stale eviction
// can never race a Put that superseded the same key.
type SessionStore interface {
	Put(ctx context.Context, userID int, token string, ttl time.Duration) error
	Get(ctx context.Context, userID int) (string, error)
	Delete(ctx context.Context, userID int) error
	Validate(ctx context.Context, userID int, token string) (bool, error)
}

// ErrSessionNotFound is returned by Get when no live session exists.
// An absent session is never an error for Delete or Validate.
var ErrSessionNotFound = errSessionNotFound{}

type errSessionNotFound struct{}

func (errSessionNotFound) Error() string { return "no live session" }

const storeShards = 16

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[int]memoryEntry
}

// MemoryStore is the in-process SessionStore. Entries are sharded by user id
// so unrelated users never contend on the same lock.
type MemoryStore struct {
	shards [storeShards]*memoryShard
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[int]memoryEntry)}
	}
	return s
}

func (s *MemoryStore) shard(userID int) *memoryShard {
	if userID < 0 {
		userID = -userID
	}
	return s.shards[userID%storeShards]
}

func (s *MemoryStore) Put(_ context.Context, userID int, token string, ttl time.Duration) error {
	sh := s.shard(userID)
	sh.mu.Lock()
	sh.entries[userID] = memoryEntry{
		token:     token,
		expiresAt: s.now().Add(ttl),
	}
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID int) (string, error) {
	sh := s.shard(userID)
	sh.mu.RLock()
	entry, ok := sh.entries[userID]
	sh.mu.RUnlock()

	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		// Expired entries are purged on read rather than by timer. A timer
		// keyed only on the user id could delete a session that superseded
		// the one it was scheduled for.
		s.evict(userID, entry.token)
		return "", ErrSessionNotFound
	}
	return entry.token, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int) error {
	sh := s.shard(userID)
	sh.mu.Lock()
	delete(sh.entries, userID)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) Validate(ctx context.Context, userID int, token string) (bool, error) {
	stored, err := s.Get(ctx, userID)
	if err != nil {
		return false, nil
	}
	return stored == token, nil
}

// evict removes the entry for userID only while it still holds the given
// token. A concurrent Put that replaced the token keeps its entry.
func (s *MemoryStore) evict(userID int, token string) {
	sh := s.shard(userID)
	sh.mu.Lock()
	if entry, ok := sh.entries[userID]; ok && entry.token == token {
		delete(sh.entries, userID)
	}
	sh.mu.Unlock()
}
