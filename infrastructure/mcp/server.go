package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mcpgo "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// Server wraps an MCP server to expose the registered AWS query tools.
//
// Dispatch semantics: an unknown tool name is the only failure surfaced as
// a protocol fault (the mcp-go runtime answers it before any handler runs;
// Dispatch mirrors that for direct callers). Handler failures come back as
// descriptive text payloads, never as faults.
type Server struct {
	srv      *mcpgo.Server
	registry tool.Registry
	info     mcpgo.ServerInfo
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name.
	Name string

	// Version is the server version.
	Version string

	// Registry is the tool registry containing tools to expose.
	Registry tool.Registry

	// Description is an optional server description.
	Description string

	// Instructions provides usage instructions for clients.
	Instructions string
}

// ToolDescriptor is the discovery view of a registered tool.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer creates a new MCP server exposing the registry's tools.
func NewServer(cfg ServerConfig) *Server {
	info := mcpgo.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	}

	var opts []mcpgo.Option
	if cfg.Instructions != "" {
		opts = append(opts, mcpgo.WithInstructions(cfg.Instructions))
	}

	srv := mcpgo.NewServer(info, opts...)

	s := &Server{
		srv:      srv,
		registry: cfg.Registry,
		info:     info,
	}

	if cfg.Registry != nil {
		s.registerTools()
	}

	return s
}

// registerTools registers all tools from the registry with the MCP server.
func (s *Server) registerTools() {
	for _, t := range s.registry.List() {
		s.registerTool(t)
	}
}

// registerTool registers a single tool with the MCP server.
func (s *Server) registerTool(t tool.Tool) {
	name := t.Name()
	handler := func(ctx context.Context, input json.RawMessage) (string, error) {
		result, err := s.Dispatch(ctx, name, input)
		if err != nil {
			// Credentials, provider and unexpected failures are absorbed
			// here: the caller gets the rendered text as an ordinary
			// payload, never a JSON-RPC fault. Anything else (undecodable
			// arguments) stays an error for the protocol layer.
			var te *session.ToolError
			if errors.As(err, &te) {
				return te.Render(), nil
			}
			return "", err
		}
		return result.OutputString(), nil
	}

	s.srv.Tool(name).
		Description(t.Description()).
		Handler(handler)
}

// Dispatch looks up and executes a tool by name. An unknown name fails with
// tool.ErrToolNotFound carrying the offending name; any other failure is the
// tool's own rendered error.
func (s *Server) Dispatch(ctx context.Context, name string, args json.RawMessage) (tool.Result, error) {
	t, ok := s.registry.Get(name)
	if !ok {
		return tool.Result{}, fmt.Errorf("%w: %s", tool.ErrToolNotFound, name)
	}

	start := time.Now()
	result, err := t.Execute(ctx, args)
	elapsed := time.Since(start)

	if err != nil {
		logging.Warn().
			Add(logging.Component("mcp")).
			Add(logging.ToolName(name)).
			Add(logging.Duration(elapsed)).
			Add(logging.ErrorField(err)).
			Msg("tool call failed")
		return tool.Result{}, err
	}

	logging.Debug().
		Add(logging.Component("mcp")).
		Add(logging.ToolName(name)).
		Add(logging.Duration(elapsed)).
		Msg("tool call finished")

	result.Duration = elapsed
	return result, nil
}

// ListTools returns descriptors for every registered tool, in registry order.
func (s *Server) ListTools() []ToolDescriptor {
	tools := s.registry.List()
	descriptors := make([]ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		descriptors = append(descriptors, ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema().Raw(),
		})
	}
	return descriptors
}

// Server returns the underlying mcp-go server.
func (s *Server) Server() *mcpgo.Server {
	return s.srv
}

// ServeStdio runs the server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context, opts ...mcpgo.ServeOption) error {
	return mcpgo.ServeStdio(ctx, s.srv, opts...)
}

// ServeHTTP runs the server over HTTP with SSE. Middleware and other serve
// options apply the same way as over stdio.
func (s *Server) ServeHTTP(ctx context.Context, addr string, opts ...mcpgo.ServeOption) error {
	return mcpgo.ServeHTTPWithMiddleware(ctx, s.srv, addr, nil, opts...)
}
