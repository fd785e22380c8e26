// Package mcp exposes the AWS query tools over the Model Context Protocol.
// It wraps github.com/felixgeelhaar/mcp-go for transport and protocol
// handling; this package owns tool registration and dispatch.
package mcp

import (
	mcpgo "github.com/felixgeelhaar/mcp-go"
)

// Re-export core types from mcp-go for convenience.
type (
	// ServerInfo contains MCP server metadata.
	ServerInfo = mcpgo.ServerInfo

	// Capabilities declares features the server supports.
	Capabilities = mcpgo.Capabilities

	// ServeOption configures server behavior.
	ServeOption = mcpgo.ServeOption

	// HTTPOption configures HTTP transport.
	HTTPOption = mcpgo.HTTPOption

	// Middleware is a function that wraps request handling.
	Middleware = mcpgo.Middleware
)

// Re-export constructors and functions from mcp-go.
var (
	// WithInstructions sets server instructions.
	WithInstructions = mcpgo.WithInstructions

	// WithMiddleware adds middleware to serve options.
	WithMiddleware = mcpgo.WithMiddleware

	// Middleware constructors
	Recover   = mcpgo.Recover
	RequestID = mcpgo.RequestID
)
