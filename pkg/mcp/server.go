// Package mcp fronts the session controller with an MCP stdio server.
// Stdout carries the protocol; all logging goes through pkg/logger.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/devicelab-dev/uipilot/pkg/logger"
	"github.com/devicelab-dev/uipilot/pkg/session"
)

// ServerOptions configures the MCP server.
type ServerOptions struct {
	ServerName    string
	ServerVersion string
}

// Server wraps the MCP server plus the controller it exposes.
type Server struct {
	Server     *server.MCPServer
	controller *session.Controller
}

// Tool pairs a tool declaration with its handler.
type Tool struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// NewServer builds the server and registers the tool surface.
func NewServer(opts ServerOptions, controller *session.Controller) *Server {
	svr := server.NewMCPServer(
		opts.ServerName,
		opts.ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{Server: svr, controller: controller}
	for _, t := range s.tools() {
		svr.AddTool(t.Tool, t.Handler)
	}
	return s
}

// ServeStdio blocks serving the protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.Server)
}

// NewTool adapts a typed handler to the protocol: arguments bind into
// R, the result marshals to JSON text, and handler errors become
// IsError tool results rather than protocol failures.
func NewTool[R any, T any](name, desc string, schema json.RawMessage, handler func(ctx context.Context, req R) (*T, error)) Tool {
	return Tool{
		Tool: mcp.NewToolWithRawSchema(name, desc, schema),
		Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var req R
			if err := request.BindArguments(&req); err != nil {
				return nil, err
			}
			var final string
			var isError bool
			if resp, err := handler(ctx, req); err != nil {
				isError = true
				final = err.Error()
			} else if js, err := json.Marshal(resp); err != nil {
				isError = true
				final = err.Error()
			} else {
				final = string(js)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(final),
				},
				IsError: isError,
			}, nil
		},
	}
}
