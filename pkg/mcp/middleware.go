package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/nextscope/pkg/mcplog"
)

// logCalls wraps a tool handler so every call lands in the call log.
// Requires a non-nil s.logger.
func (s *Server) logCalls(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := mcplog.Call{
			Tool:      req.Params.Name,
			Transport: "mcp",
			Root:      req.GetString("root", s.root),
			Args:      req.GetArguments(),
			Start:     mcplog.Now(),
		}
		result, err := next(ctx, req)

		call.Bytes = mcplog.ResponseBytes(result)
		call.Failed = result != nil && result.IsError
		call.Err = err
		_ = s.logger.Write(call.Entry())
		return result, err
	}
}
