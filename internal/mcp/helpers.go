// Package mcp provides the MCP server that exposes SAP SOAP operations as tools.
// helpers.go contains shared utility functions used across handlers.
package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JinArO/sap-mcp-server/internal/dispatch"
)

// newToolResultError creates an error result for tool execution failures.
func newToolResultError(message string) *mcp.CallToolResult {
	result := mcp.NewToolResultText(message)
	result.IsError = true
	return result
}

// newToolResultJSON creates a successful result with JSON-formatted output.
func newToolResultJSON(v any) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

// wrapErr creates an error result with consistent "operation failed" format.
func wrapErr(op string, err error) *mcp.CallToolResult {
	return newToolResultError(fmt.Sprintf("%s failed: %v", op, err))
}

// newOutcomeResult converts a dispatch outcome into a tool result.
func newOutcomeResult(out *dispatch.Outcome) *mcp.CallToolResult {
	if out.IsError() {
		return newToolResultError(out.Text())
	}
	return mcp.NewToolResultText(out.Text())
}

// newRequest creates a CallToolRequest with the given arguments.
func newRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// --- Parameter extraction helpers ---

// getObject extracts an object parameter, returning nil if not found.
func getObject(args map[string]any, key string) map[string]any {
	if v, ok := args[key].(map[string]any); ok {
		return v
	}
	return nil
}

// requireStr extracts a required string parameter, returning error result if missing.
func requireStr(args map[string]any, key string) (string, *mcp.CallToolResult) {
	if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	return "", newToolResultError(key + " is required")
}
