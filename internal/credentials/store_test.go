package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every Store must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "s1", Entry{Username: "alice", Password: "pw1"}))
	require.NoError(t, store.Set(ctx, "s2", Entry{Username: "bob", Password: "pw2"}))

	e, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Entry{Username: "alice", Password: "pw1"}, *e)

	e.Username = "mutated"
	e, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", e.Username, "returned entries must not alias stored state")

	require.NoError(t, store.Set(ctx, "s1", Entry{Username: "alice2", Password: "pw3"}))
	e, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", e.Username, "last write wins")

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err = store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "bob", e.Username, "deleting one key leaves others")

	assert.NoError(t, store.Delete(ctx, "never-set"))
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newMiniredis(t)
	runStoreContract(t, NewRedisStoreFromClient(client))
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client, WithPrefix("test:"), WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Set(ctx, "abc", Entry{Username: "u", Password: "p"}))

	assert.True(t, mr.Exists("test:abc"))
	assert.Equal(t, time.Minute, mr.TTL("test:abc"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client)

	require.NoError(t, store.Set(context.Background(), "k", Entry{Username: "u", Password: "p"}))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"k"))
	assert.Zero(t, mr.TTL(DefaultRedisPrefix+"k"))
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client)
	require.NoError(t, mr.Set(DefaultRedisPrefix+"bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, store.Ping(ctx))
	_, err := store.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
