package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
)

// DefaultSessionKey is used when a request carries no MCP session.
const DefaultSessionKey = "default"

// stdioSessionID is the fixed ID mcp-go gives the single stdio session.
const stdioSessionID = "stdio"

// SessionKeyFunc derives the credential key for a tool call.
type SessionKeyFunc func(ctx context.Context) string

// SessionKeyFromContext returns the MCP client session ID, or
// DefaultSessionKey when there is none. The stdio transport has exactly one
// client, so its session also maps to DefaultSessionKey.
func SessionKeyFromContext(ctx context.Context) string {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		if id := session.SessionID(); id != "" && id != stdioSessionID {
			return id
		}
	}
	return DefaultSessionKey
}
