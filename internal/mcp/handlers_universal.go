// Package mcp provides the MCP server that exposes SAP SOAP operations as tools.
package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JinArO/sap-mcp-server/pkg/rfc"
)

// UniversalToolName is the single tool that reaches every catalog operation.
const UniversalToolName = "SAP"

// registerUniversalTool registers the "SAP" tool that routes to any operation by key or tool name.
// Clients that cap their tool count can use it instead of the per-operation tools.
func (s *Server) registerUniversalTool() {
	var keys []string
	for _, op := range s.dispatcher.Catalog().Operations {
		keys = append(keys, op.Key)
	}

	s.addTool(mcp.NewTool(UniversalToolName,
		mcp.WithDescription("Run any SAP operation. Use list_sap_operations for the parameters of each operation."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Operation key or tool name: "+strings.Join(keys, "|")),
		),
		mcp.WithObject("params",
			mcp.Description("Operation parameters as JSON object"),
		),
	), s.handleUniversalTool)
}

// handleUniversalTool routes the call to the named operation.
func (s *Server) handleUniversalTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, errResult := requireStr(args, "operation")
	if errResult != nil {
		return errResult, nil
	}

	op, ok := s.lookupOperation(strings.TrimSpace(name))
	if !ok {
		return newToolResultError(unknownOperationMessage(name, s.dispatcher.Catalog())), nil
	}

	params := getObject(args, "params")
	if params == nil {
		params = map[string]any{}
	}
	return s.handleOperation(op.Key)(ctx, newRequest(params))
}

func (s *Server) lookupOperation(name string) (*rfc.Operation, bool) {
	catalog := s.dispatcher.Catalog()
	if op, ok := catalog.Lookup(name); ok {
		return op, true
	}
	return catalog.LookupTool(name)
}

func unknownOperationMessage(name string, catalog *rfc.Catalog) string {
	var names []string
	for _, op := range catalog.Operations {
		names = append(names, op.Key)
	}
	sort.Strings(names)
	return "Request Error: unknown operation \"" + name + "\". Available: " + strings.Join(names, ", ")
}
