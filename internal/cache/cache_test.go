package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eagle-green/mysked/internal/db"
)

func TestKeyIsContentAddressed(t *testing.T) {
	a := KeyParts{Endpoint: "history", Entity: "vehicles", ID: "7", Limit: 25, Scope: "u1"}
	b := a

	assert.Equal(t, Key(a), Key(b))
	assert.Len(t, Key(a), 64)

	b.Offset = 25
	assert.NotEqual(t, Key(a), Key(b))

	c := a
	c.Scope = "u2"
	assert.NotEqual(t, Key(a), Key(c))
}

func TestTag(t *testing.T) {
	assert.Equal(t, "vehicles/7", Tag("vehicles", "7"))
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	require.NoError(t, c.Set(ctx, "k", "t", []byte("v"), time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, "t"))
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewSQLite(db.NewTestDB(t))
	c.Now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k1", "vehicles/7", []byte("v1"), time.Minute))
	require.NoError(t, c.Set(ctx, "k2", "sites/3", []byte("v2"), time.Minute))

	v, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, c.Invalidate(ctx, "vehicles/7"))
	_, ok, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, "k2")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteJanitorStopsWithContext(t *testing.T) {
	c := NewSQLite(db.NewTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Janitor(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestRedisRejectsSubSecondTTL(t *testing.T) {
	c := NewRedis("127.0.0.1:1", "", 0)
	defer c.Close()

	for _, ttl := range []time.Duration{0, 500 * time.Millisecond} {
		err := c.Set(context.Background(), "rk", "tag", []byte("v"), ttl)
		assert.ErrorContains(t, err, "below one second")
	}
}

// TestRedisCache requires a running Redis and is skipped otherwise.
func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c := NewRedis("localhost:6379", "", 0)
	defer c.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		t.Skip("redis not available")
	}

	tag := "test/" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.Set(ctx, "rk1", tag, []byte("v1"), time.Minute))

	v, ok, err := c.Get(ctx, "rk1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, c.Invalidate(ctx, tag))
	_, ok, err = c.Get(ctx, "rk1")
	require.NoError(t, err)
	assert.False(t, ok)
}
