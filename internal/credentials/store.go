// Package credentials keeps SAP logins per MCP session.
package credentials

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when no entry exists for a key.
var ErrNotFound = errors.New("credentials not found")

// Entry is one SAP login.
type Entry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store persists entries by session key.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}
