package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	var got payload
	found, err := s.Get(ctx, "contacts", "q1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "contacts", "q1", payload{Name: "a", N: 1}, 0))
	require.NoError(t, s.Set(ctx, "contacts", "q2", payload{Name: "b", N: 2}, 0))
	require.NoError(t, s.Set(ctx, "contact", "id1", payload{Name: "c", N: 3}, 0))

	found, err = s.Get(ctx, "contacts", "q1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", N: 1}, got)

	require.NoError(t, s.Invalidate(ctx, "contacts"))

	found, err = s.Get(ctx, "contacts", "q2", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// other namespaces survive
	found, err = s.Get(ctx, "contact", "id1", &got)
	require.NoError(t, err)
	assert.True(t, found)

	// a value computed before an invalidation is dropped
	stale, err := s.Version(ctx, "contacts")
	require.NoError(t, err)
	require.NoError(t, s.Invalidate(ctx, "contacts"))
	require.NoError(t, s.SetAt(ctx, "contacts", stale, "q3", payload{Name: "old"}, 0))
	found, err = s.Get(ctx, "contacts", "q3", &got)
	require.NoError(t, err)
	assert.False(t, found)

	current, err := s.Version(ctx, "contacts")
	require.NoError(t, err)
	assert.NotEqual(t, stale, current)
	require.NoError(t, s.SetAt(ctx, "contacts", current, "q3", payload{Name: "new"}, 0))
	found, err = s.Get(ctx, "contacts", "q3", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "new", got.Name)

	require.NoError(t, s.Delete(ctx, "contact", "id1"))
	found, err = s.Get(ctx, "contact", "id1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(0))
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(context.Background(), "contacts", "k", payload{N: 1}, 0))
	now = now.Add(59 * time.Second)

	var got payload
	found, _ := m.Get(context.Background(), "contacts", "k", &got)
	assert.True(t, found)

	now = now.Add(time.Second)
	found, _ = m.Get(context.Background(), "contacts", "k", &got)
	assert.False(t, found)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedis(client, "test", time.Minute))
}

func TestRedisTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	r := NewRedis(client, "test", time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "contacts", "k", payload{N: 1}, 0))
	assert.Equal(t, time.Minute, mr.TTL("test:contacts:g0:k"))

	mr.FastForward(2 * time.Minute)
	var got payload
	found, err := r.Get(ctx, "contacts", "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
