package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_NoCredentials(t *testing.T) {
	r := NewResolver(NewMemoryStore(), nil)

	_, src, err := r.Resolve(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, SourceNone, src)
	assert.False(t, r.HasDefault())
}

func TestResolver_SessionOverridesDefault(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(NewMemoryStore(), &Entry{Username: "svc", Password: "svcpw"})

	e, src, err := r.Resolve(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, "svc", e.Username)

	require.NoError(t, r.Set(ctx, "s1", "alice", "pw"))

	e, src, err = r.Resolve(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, SourceSession, src)
	assert.Equal(t, Entry{Username: "alice", Password: "pw"}, *e)

	e, src, err = r.Resolve(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, src, "other sessions keep using the default")
	assert.Equal(t, "svc", e.Username)

	require.NoError(t, r.Clear(ctx, "s1"))
	e, src, err = r.Resolve(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, "svc", e.Username)
}

func TestResolver_IncompleteDefaultIgnored(t *testing.T) {
	r := NewResolver(NewMemoryStore(), &Entry{Username: "svc"})
	assert.False(t, r.HasDefault())

	_, _, err := r.Resolve(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestResolver_SetValidation(t *testing.T) {
	r := NewResolver(NewMemoryStore(), nil)
	ctx := context.Background()

	assert.Error(t, r.Set(ctx, "s1", "", "pw"))
	assert.Error(t, r.Set(ctx, "s1", "   ", "pw"))
	assert.Error(t, r.Set(ctx, "s1", "alice", ""))

	_, _, err := r.Resolve(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoCredentials, "rejected logins must not be stored")
}

type failingStore struct{ MemoryStore }

func (failingStore) Get(context.Context, string) (*Entry, error) {
	return nil, errors.New("backend down")
}

func TestResolver_StoreFailure(t *testing.T) {
	r := NewResolver(&failingStore{}, &Entry{Username: "svc", Password: "pw"})

	_, _, err := r.Resolve(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)
	assert.Contains(t, err.Error(), "backend down")
}

func TestResolver_ConcurrentSessions(t *testing.T) {
	r := NewResolver(NewMemoryStore(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("session-%d", i)
			user := fmt.Sprintf("user-%d", i)
			if err := r.Set(ctx, key, user, "pw"); err != nil {
				t.Errorf("Set(%s): %v", key, err)
				return
			}
			e, _, err := r.Resolve(ctx, key)
			if err != nil {
				t.Errorf("Resolve(%s): %v", key, err)
				return
			}
			if e.Username != user {
				t.Errorf("Resolve(%s) user = %s, want %s", key, e.Username, user)
			}
		}(i)
	}
	wg.Wait()
}
