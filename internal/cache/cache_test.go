package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCooldownKey(t *testing.T) {
	assert.Equal(t, "friend_request_cooldown_3_7", CooldownKey(3, 7))
	assert.NotEqual(t, CooldownKey(3, 7), CooldownKey(7, 3))
}

func TestRedisCooldownStore(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewCooldownStore(rdb)
	ctx := context.Background()

	active, err := store.Active(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, store.Start(ctx, 1, 2, time.Hour))
	active, err = store.Active(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, active)

	// The reverse direction is unaffected.
	active, err = store.Active(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, active)

	assert.Equal(t, time.Hour, mr.TTL(CooldownKey(1, 2)))

	mr.FastForward(time.Hour + time.Second)
	active, err = store.Active(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRedisCooldownStoreRestartsWindow(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewRedisCooldownStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, 1, 2, time.Hour))
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Start(ctx, 1, 2, time.Hour))
	mr.FastForward(45 * time.Minute)

	active, err := store.Active(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRedisCooldownStoreUnavailable(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewRedisCooldownStore(rdb)
	mr.Close()

	_, err := store.Active(context.Background(), 1, 2)
	assert.Error(t, err)
	assert.Error(t, store.Start(context.Background(), 1, 2, time.Minute))
}

func TestMemoryCooldownStore(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCooldownStore()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Error(t, store.Start(ctx, 1, 2, 0))
	require.NoError(t, store.Start(ctx, 1, 2, time.Minute))

	active, err := store.Active(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = store.Active(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, active)

	now = now.Add(time.Minute)
	active, err = store.Active(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Empty(t, store.deadline)
}

func TestNewCooldownStoreFallsBackToMemory(t *testing.T) {
	_, ok := NewCooldownStore(nil).(*MemoryCooldownStore)
	assert.True(t, ok)
}

type profile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAsideFetch(t *testing.T) {
	mr, rdb := setupRedis(t)
	aside := NewAside(rdb)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *profile) func() error {
		return func() error {
			calls++
			*dest = profile{ID: 1, Name: "Ada"}
			return nil
		}
	}

	var first profile
	require.NoError(t, aside.Fetch(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	var second profile
	require.NoError(t, aside.Fetch(ctx, UserKey(1), &second, UserTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	mr.FastForward(UserTTL + time.Second)
	var third profile
	require.NoError(t, aside.Fetch(ctx, UserKey(1), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAsideWithoutRedis(t *testing.T) {
	aside := NewAside(nil)
	var p profile
	err := aside.Fetch(context.Background(), "k", &p, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c := InitRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, c)
	assert.Same(t, c, GetClient())
	_ = c.Close()

	assert.Nil(t, InitRedis(""))
	assert.Nil(t, GetClient())
	assert.Nil(t, InitRedis("redis://%zz"))
}
