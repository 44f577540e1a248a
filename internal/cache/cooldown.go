package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore records directional cooldowns that expire on their own.
type CooldownStore interface {
	// Start marks (sender, receiver) as cooling down for ttl, replacing any
	// previous deadline.
	Start(ctx context.Context, senderID, receiverID uint, ttl time.Duration) error
	// Active reports whether (sender, receiver) is still cooling down.
	Active(ctx context.Context, senderID, receiverID uint) (bool, error)
}

// NewCooldownStore returns a Redis-backed store, or an in-process one when rdb is nil.
func NewCooldownStore(rdb *redis.Client) CooldownStore {
	if rdb == nil {
		return NewMemoryCooldownStore()
	}
	return NewRedisCooldownStore(rdb)
}

// RedisCooldownStore keeps cooldowns as Redis keys with a TTL.
type RedisCooldownStore struct {
	rdb *redis.Client
}

func NewRedisCooldownStore(rdb *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{rdb: rdb}
}

func (s *RedisCooldownStore) Start(ctx context.Context, senderID, receiverID uint, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("cooldown ttl must be positive")
	}
	return s.rdb.Set(ctx, CooldownKey(senderID, receiverID), "1", ttl).Err()
}

func (s *RedisCooldownStore) Active(ctx context.Context, senderID, receiverID uint) (bool, error) {
	n, err := s.rdb.Exists(ctx, CooldownKey(senderID, receiverID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryCooldownStore is a process-local store for single-instance
// deployments and tests. Expired entries are dropped lazily on read.
type MemoryCooldownStore struct {
	mu       sync.Mutex
	now      func() time.Time
	deadline map[string]time.Time
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{
		now:      time.Now,
		deadline: make(map[string]time.Time),
	}
}

func (s *MemoryCooldownStore) Start(_ context.Context, senderID, receiverID uint, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("cooldown ttl must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline[CooldownKey(senderID, receiverID)] = s.now().Add(ttl)
	return nil
}

func (s *MemoryCooldownStore) Active(_ context.Context, senderID, receiverID uint) (bool, error) {
	key := CooldownKey(senderID, receiverID)
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.deadline[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.deadline, key)
		return false, nil
	}
	return true, nil
}
