package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for missing keys.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the non-durable backend of the demo store.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type redisKeyValueStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKeyValueStore stores values in Redis, expiring each key ttl after
// its last write.
func NewRedisKeyValueStore(client *redis.Client, ttl time.Duration) KeyValueStore {
	return &redisKeyValueStore{client: client, ttl: ttl}
}

func (s *redisKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return value, err
}

func (s *redisKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type memoryKeyValueStore struct {
	mu        sync.RWMutex
	ttl       time.Duration
	data      map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryKeyValueStore keeps values in process memory. A zero ttl never
// expires keys. Expired keys are swept on write at most once per ttl, so
// abandoned demo sessions are released even if nothing reads them again.
func NewMemoryKeyValueStore(ttl time.Duration) KeyValueStore {
	return newMemoryKeyValueStore(ttl, time.Now)
}

func newMemoryKeyValueStore(ttl time.Duration, now func() time.Time) *memoryKeyValueStore {
	return &memoryKeyValueStore{
		ttl:       ttl,
		data:      make(map[string]memoryEntry),
		now:       now,
		lastSweep: now(),
	}
}

func (s *memoryKeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}
	if entry.expired(s.now()) {
		s.mu.Lock()
		if current, ok := s.data[key]; ok && current.expired(s.now()) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, ErrKeyNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

func (s *memoryKeyValueStore) Set(_ context.Context, key string, value []byte) error {
	now := s.now()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.ttl {
		s.sweepLocked(now)
	}
	s.data[key] = entry
	return nil
}

// sweepLocked drops every expired entry. The caller holds mu.
func (s *memoryKeyValueStore) sweepLocked(now time.Time) {
	for key, entry := range s.data {
		if entry.expired(now) {
			delete(s.data, key)
		}
	}
	s.lastSweep = now
}

func (s *memoryKeyValueStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
