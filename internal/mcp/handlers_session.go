// Package mcp provides the MCP server that exposes SAP SOAP operations as tools.
// handlers_session.go contains the per-session credential and introspection tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JinArO/sap-mcp-server/internal/credentials"
	"github.com/JinArO/sap-mcp-server/pkg/rfc"
)

func (s *Server) registerSessionTools() {
	s.addTool(mcp.NewTool("set_sap_credentials",
		mcp.WithDescription("Set the SAP login used by this session. Overrides the server default until cleared."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("SAP user name"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("SAP password"),
		),
	), s.handleSetCredentials)

	s.addTool(mcp.NewTool("clear_sap_credentials",
		mcp.WithDescription("Forget the SAP login of this session. Calls fall back to the server default, if any."),
	), s.handleClearCredentials)

	s.addTool(mcp.NewTool("sap_connection_info",
		mcp.WithDescription("Show the SAP system and the login source used by this session"),
	), s.handleConnectionInfo)

	s.addTool(mcp.NewTool("list_sap_operations",
		mcp.WithDescription("List the available SAP operations with their parameters and defaults"),
	), s.handleListOperations)
}

func (s *Server) handleSetCredentials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	username, errResult := requireStr(args, "username")
	if errResult != nil {
		return errResult, nil
	}
	password, errResult := requireStr(args, "password")
	if errResult != nil {
		return errResult, nil
	}

	key := s.sessionKey(ctx)
	if err := s.resolver.Set(ctx, key, username, password); err != nil {
		return wrapErr("set_sap_credentials", err), nil
	}
	s.logger.Info("session credentials set", "session", key, "user", username)
	return mcp.NewToolResultText(fmt.Sprintf("SAP credentials set for user %s in this session.", username)), nil
}

func (s *Server) handleClearCredentials(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := s.sessionKey(ctx)
	if err := s.resolver.Clear(ctx, key); err != nil {
		return wrapErr("clear_sap_credentials", err), nil
	}
	s.logger.Info("session credentials cleared", "session", key)

	msg := "SAP credentials cleared for this session."
	if s.resolver.HasDefault() {
		msg += " Calls now use the server default login."
	}
	return mcp.NewToolResultText(msg), nil
}

// ConnectionInfo is the payload of sap_connection_info. It never carries a password.
type ConnectionInfo struct {
	BaseURL          string             `json:"base_url"`
	Client           string             `json:"client"`
	Session          string             `json:"session"`
	User             string             `json:"user,omitempty"`
	CredentialSource credentials.Source `json:"credential_source"`
	HasDefault       bool               `json:"has_default_login"`
}

func (s *Server) handleConnectionInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := s.sessionKey(ctx)
	info := ConnectionInfo{
		BaseURL:    s.config.BaseURL,
		Client:     s.config.Client,
		Session:    key,
		HasDefault: s.resolver.HasDefault(),
	}

	entry, source, err := s.resolver.Resolve(ctx, key)
	switch {
	case err == nil:
		info.User = entry.Username
		info.CredentialSource = source
	case errors.Is(err, credentials.ErrNoCredentials):
		info.CredentialSource = credentials.SourceNone
	default:
		return wrapErr("sap_connection_info", err), nil
	}
	return newToolResultJSON(info), nil
}

// OperationInfo describes one operation for list_sap_operations.
type OperationInfo struct {
	Key         string          `json:"key"`
	Tool        string          `json:"tool"`
	Description string          `json:"description"`
	Function    string          `json:"function"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes one caller parameter.
type ParameterInfo struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Required    bool            `json:"required,omitempty"`
	Default     string          `json:"default,omitempty"`
	Description string          `json:"description,omitempty"`
	Items       []ParameterInfo `json:"items,omitempty"`
}

func (s *Server) handleListOperations(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ops := s.dispatcher.Catalog().Operations
	out := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		out = append(out, OperationInfo{
			Key:         op.Key,
			Tool:        op.Tool,
			Description: op.Description,
			Function:    op.Root,
			Parameters:  parameterInfos(op.Params()),
		})
	}
	return newToolResultJSON(out), nil
}

func parameterInfos(params []rfc.Param) []ParameterInfo {
	out := make([]ParameterInfo, 0, len(params))
	for _, p := range params {
		out = append(out, ParameterInfo{
			Name:        p.Key,
			Type:        p.Type,
			Required:    p.Required,
			Default:     p.Default,
			Description: p.Description,
			Items:       parameterInfos(p.Items),
		})
	}
	return out
}
