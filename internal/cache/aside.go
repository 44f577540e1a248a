package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern on top of an optional Redis client.
// A nil client turns every call into a pass-through.
type Aside struct {
	rdb *redis.Client
}

func NewAside(rdb *redis.Client) *Aside {
	return &Aside{rdb: rdb}
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (a *Aside) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if a == nil || a.rdb == nil {
		return false, nil
	}
	s, err := a.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (a *Aside) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if a == nil || a.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.rdb.Set(ctx, key, b, ttl).Err()
}

// Fetch tries Redis first; on a miss or a cache error it calls fetch, which
// must populate dest, then stores dest with ttl on a best-effort basis.
func (a *Aside) Fetch(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := a.GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	_ = a.SetJSON(ctx, key, dest, ttl)
	return nil
}
