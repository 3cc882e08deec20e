// Package mcp provides the MCP server that exposes SAP SOAP operations as tools.
// handlers_operations.go registers one tool per catalog operation.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JinArO/sap-mcp-server/pkg/rfc"
)

func (s *Server) registerOperationTools() {
	for _, op := range s.dispatcher.Catalog().Operations {
		s.addTool(operationTool(op), s.handleOperation(op.Key))
	}
}

// operationTool builds the tool definition of op with a schema derived from its fields.
func operationTool(op *rfc.Operation) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(op.Description)}
	for _, p := range op.Params() {
		opts = append(opts, paramOption(p))
	}
	return mcp.NewTool(op.Tool, opts...)
}

func paramOption(p rfc.Param) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(paramDescription(p))}
	if p.Required {
		props = append(props, mcp.Required())
	}

	switch p.Type {
	case rfc.ParamNumber:
		return mcp.WithNumber(p.Key, props...)
	case rfc.ParamArray:
		props = append(props, mcp.Items(itemSchema(p.Items)))
		return mcp.WithArray(p.Key, props...)
	default:
		if p.Default != "" {
			props = append(props, mcp.DefaultString(p.Default))
		}
		return mcp.WithString(p.Key, props...)
	}
}

func paramDescription(p rfc.Param) string {
	desc := p.Description
	if desc == "" {
		desc = p.Key
	}
	if p.Default != "" {
		desc = fmt.Sprintf("%s (default %s)", desc, p.Default)
	}
	return desc
}

// itemSchema is the JSON schema of one table row.
func itemSchema(items []rfc.Param) map[string]any {
	props := make(map[string]any, len(items))
	for _, p := range items {
		typ := p.Type
		if typ == "" {
			typ = rfc.ParamString
		}
		props[p.Key] = map[string]any{
			"type":        typ,
			"description": paramDescription(p),
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// handleOperation returns the handler that dispatches operation key for the
// caller's session.
func (s *Server) handleOperation(key string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := s.dispatcher.Call(ctx, s.sessionKey(ctx), key, rfc.Values(request.GetArguments()))
		return newOutcomeResult(out), nil
	}
}
