package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/nextscope/pkg/mcplog"
	"github.com/gnana997/nextscope/pkg/scanner"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for nextscope, exposing route discovery
// and rendering strategy tools for a Next.js project.
type Server struct {
	mcpServer *server.MCPServer
	scanner   *scanner.Scanner
	root      string
	logger    *mcplog.Logger // nil disables call logging

	handlers map[string]server.ToolHandlerFunc
}

// NewServer creates a new MCP server that analyzes the project at root.
// Tools may override the root per call.
func NewServer(sc *scanner.Scanner, root string, logger *mcplog.Logger) *Server {
	s := &Server{scanner: sc, root: root, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.logCalls))
	}
	s.mcpServer = server.NewMCPServer("nextscope", serverVersion, opts...)

	tools := []server.ServerTool{
		{Tool: discoverRoutesTool(), Handler: s.handleDiscoverRoutes},
		{Tool: discoverStrategiesTool(), Handler: s.handleDiscoverStrategies},
		{Tool: discoverAPIRoutesTool(), Handler: s.handleDiscoverAPIRoutes},
		{Tool: discoverAssetsTool(), Handler: s.handleDiscoverAssets},
		{Tool: discoverEnvTool(), Handler: s.handleDiscoverEnv},
		{Tool: updateEnvTool(), Handler: s.handleUpdateEnv},
		{Tool: analyzeFileTool(), Handler: s.handleAnalyzeFile},
		{Tool: readPackageJSONTool(), Handler: s.handleReadPackageJSON},
		{Tool: projectSnapshotTool(), Handler: s.handleProjectSnapshot},
	}
	s.handlers = make(map[string]server.ToolHandlerFunc, len(tools))
	for _, t := range tools {
		s.handlers[t.Tool.Name] = t.Handler
	}
	s.mcpServer.AddTools(tools...)

	return s
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	tools := RegisteredTools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

// HandleToolCall runs a tool in-process, bypassing the transport. Calls are
// logged like transport calls.
func (s *Server) HandleToolCall(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[toolName]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
	if s.logger != nil {
		handler = s.logCalls(handler)
	}

	var arguments any
	if args != nil {
		arguments = args
	}
	return handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: toolName, Arguments: arguments},
	})
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
