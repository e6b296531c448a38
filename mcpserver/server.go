// Package mcpserver exposes the plugin tool registry over the Model Context
// Protocol, on stdio or as a streamable HTTP endpoint.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"wpcompare/tools"
)

const (
	// ServerName is reported to MCP clients during initialization
	ServerName = "wpcompare"
	// Version of the server
	Version = "0.3.0"
	// EndpointPath is where the streamable HTTP transport listens
	EndpointPath = "/mcp"
)

// Server bridges a tool registry to an MCP server
type Server struct {
	mcp      *server.MCPServer
	registry *tools.EnhancedRegistry
	http     *server.StreamableHTTPServer
	started  atomic.Bool
}

// New creates an MCP server exposing every tool in registry
func New(registry *tools.EnhancedRegistry) (*Server, error) {
	s := &Server{
		mcp: server.NewMCPServer(ServerName, Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		registry: registry,
	}
	s.http = server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(EndpointPath))

	for _, def := range registry.GetTools() {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, serr.Wrap(err, "failed to encode tool schema", "tool", def.Name)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, schema), s.handler(def.Name))
	}

	logger.Debug("MCP server ready", "tools", strconv.Itoa(len(registry.GetTools())))
	return s, nil
}

// handler runs one tool through the registry. Tool failures become error
// results so clients see them as tool output rather than protocol errors.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.registry.Execute(ctx, tools.ToolUse{
			Type:  "tool_use",
			Name:  name,
			Input: req.GetArguments(),
		})
		if err != nil {
			if result != nil && result.Content != "" {
				return mcp.NewToolResultError(result.Content), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result.Content), nil
	}
}

// MCP returns the underlying mcp-go server
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// HandleMessage processes one raw JSON-RPC message
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	return s.mcp.HandleMessage(ctx, raw)
}

// ServeStdio serves MCP over stdin/stdout until the input closes
func (s *Server) ServeStdio() error {
	logger.Info("Serving MCP over stdio", "tools", strconv.Itoa(len(s.registry.GetTools())))
	if err := server.ServeStdio(s.mcp); err != nil {
		return serr.Wrap(err, "stdio MCP server stopped")
	}
	return nil
}

// HTTPHandler returns the streamable HTTP transport as an http.Handler
func (s *Server) HTTPHandler() http.Handler {
	return s.http
}

// StartHTTP serves the streamable HTTP transport on addr until Shutdown
func (s *Server) StartHTTP(addr string) error {
	logger.Info("Serving MCP over HTTP", "addr", addr, "path", EndpointPath)
	s.started.Store(true)
	err := s.http.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serr.Wrap(err, "MCP HTTP server failed", "addr", addr)
	}
	return nil
}

// Shutdown stops the HTTP transport if it was started
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	return s.http.Shutdown(ctx)
}
