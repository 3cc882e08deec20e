package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredentials means neither the session nor the server default has a login.
var ErrNoCredentials = errors.New("no SAP credentials set for this session and no default configured")

// Source tells where a resolved login came from.
type Source string

const (
	SourceSession Source = "session"
	SourceDefault Source = "default"
	SourceNone    Source = "none"
)

// Resolver picks the login for a session: the session's own entry first,
// then the server default.
type Resolver struct {
	store    Store
	fallback *Entry
}

// NewResolver creates a resolver over store. fallback may be nil; an entry
// with an empty username or password is treated as absent.
func NewResolver(store Store, fallback *Entry) *Resolver {
	if fallback != nil && (fallback.Username == "" || fallback.Password == "") {
		fallback = nil
	}
	return &Resolver{store: store, fallback: fallback}
}

// Resolve returns the login for key.
func (r *Resolver) Resolve(ctx context.Context, key string) (*Entry, Source, error) {
	e, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		return e, SourceSession, nil
	case !errors.Is(err, ErrNotFound):
		return nil, SourceNone, fmt.Errorf("loading session credentials: %w", err)
	}

	if r.fallback != nil {
		d := *r.fallback
		return &d, SourceDefault, nil
	}
	return nil, SourceNone, ErrNoCredentials
}

// Set stores a login for key. Last write wins.
func (r *Resolver) Set(ctx context.Context, key, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}
	return r.store.Set(ctx, key, Entry{Username: username, Password: password})
}

// Clear removes the session login. The server default is untouched.
func (r *Resolver) Clear(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

// HasDefault reports whether a server-wide login is configured.
func (r *Resolver) HasDefault() bool {
	return r.fallback != nil
}
