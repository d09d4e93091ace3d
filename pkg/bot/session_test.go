package bot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func testSessionStore(t *testing.T, store SessionStore) {
	ctx := context.Background()

	s, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State)

	start := time.Date(2030, 3, 12, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, 1, &Session{
		State: StateNotes, Date: start.Truncate(24 * time.Hour), DriverID: 3,
		Start: start, End: start.Add(time.Hour),
	}))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateNotes, got.State)
	assert.Equal(t, int64(3), got.DriverID)
	assert.True(t, got.Start.Equal(start))
	assert.True(t, got.End.Equal(start.Add(time.Hour)))

	other, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, other.State)

	require.NoError(t, store.Delete(ctx, 1))
	got, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, got.State)
}

func TestMemorySessions(t *testing.T) {
	testSessionStore(t, NewMemorySessions())
}

func TestRedisSessions(t *testing.T) {
	client, _ := newRedisClient(t)
	testSessionStore(t, NewRedisSessions(client, time.Minute))
}

func TestRedisSessionsExpire(t *testing.T) {
	client, mr := newRedisClient(t)
	store := NewRedisSessions(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, &Session{State: StateConfirm}))
	assert.True(t, mr.Exists("driverbook:session:7"))

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, got.State)
}

func TestRedisSessionsCorruptPayload(t *testing.T) {
	client, mr := newRedisClient(t)
	require.NoError(t, mr.Set("driverbook:session:9", "{not json"))

	_, err := NewRedisSessions(client, 0).Get(context.Background(), 9)
	assert.Error(t, err)
}

func TestInviteLimiter(t *testing.T) {
	l := newInviteLimiter(2)
	assert.True(t, l.allow(1))
	assert.True(t, l.allow(1))
	assert.False(t, l.allow(1))
	assert.True(t, l.allow(2), "limits are per user")

	l.forget(1)
	assert.True(t, l.allow(1))

	unlimited := newInviteLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.allow(1))
	}
}
