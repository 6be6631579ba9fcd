// Package mcpservice holds the server-side capability containers: the tool
// catalog and the resource catalog the router dispatches into. Containers are
// plain values registered at startup; they hold no transport or session
// state.
package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/sessions"
	"github.com/invopop/jsonschema"
)

// ValidationError reports schema-invalid tool arguments. The router maps it
// to the JSON-RPC invalid-params code instead of an error-shaped tool result.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ToolRequest carries one tool invocation: the owning session, the resolved
// per-session credential, and the raw arguments.
type ToolRequest struct {
	Session    *sessions.Session
	Credential string
	Name       string
	Arguments  json.RawMessage
}

// ToolHandler executes one tool invocation.
type ToolHandler func(ctx context.Context, req *ToolRequest) (*mcp.CallToolResult, error)

// Tool pairs a catalog descriptor with its handler.
type Tool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// NewTool builds a Tool whose arguments are decoded strictly into A and whose
// input schema is reflected from A's struct tags.
func NewTool[A any](name, description string, fn func(ctx context.Context, req *ToolRequest, args A) (*mcp.CallToolResult, error)) Tool {
	desc := mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: reflectInputSchema[A](),
	}

	handler := func(ctx context.Context, req *ToolRequest) (*mcp.CallToolResult, error) {
		var args A
		if len(req.Arguments) > 0 {
			dec := json.NewDecoder(bytes.NewReader(req.Arguments))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&args); err != nil {
				return nil, Validationf("invalid arguments for %s: %v", name, err)
			}
		}
		return fn(ctx, req, args)
	}

	return Tool{Descriptor: desc, Handler: handler}
}

// reflectInputSchema derives the JSON-schema descriptor for the argument
// struct. Inlined (no $ref) so clients need no resolver.
func reflectInputSchema[A any]() json.RawMessage {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	var a A
	schema := r.Reflect(&a)
	schema.Version = ""
	b, err := json.Marshal(schema)
	if err != nil {
		// Schemas come from static struct types; failure here is a
		// programming error caught by the catalog tests.
		panic(fmt.Sprintf("failed to reflect input schema: %v", err))
	}
	return b
}

// ToolsContainer is the ordered tool catalog.
type ToolsContainer struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewToolsContainer returns an empty catalog.
func NewToolsContainer() *ToolsContainer {
	return &ToolsContainer{tools: make(map[string]Tool)}
}

// Register adds tools to the catalog. Registering a duplicate name panics:
// the catalog is assembled once at startup and a collision is a bug.
func (c *ToolsContainer) Register(tools ...Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		if _, exists := c.tools[t.Descriptor.Name]; exists {
			panic(fmt.Sprintf("duplicate tool registration: %s", t.Descriptor.Name))
		}
		c.tools[t.Descriptor.Name] = t
		c.order = append(c.order, t.Descriptor.Name)
	}
}

// List returns the catalog descriptors in registration order.
func (c *ToolsContainer) List() []mcp.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name].Descriptor)
	}
	return out
}

// Call dispatches one invocation. An unknown tool name is a validation
// failure, not a method-not-found: the method (tools/call) exists.
func (c *ToolsContainer) Call(ctx context.Context, req *ToolRequest) (*mcp.CallToolResult, error) {
	c.mu.RLock()
	tool, ok := c.tools[req.Name]
	c.mu.RUnlock()
	if !ok {
		return nil, Validationf("unknown tool: %s", req.Name)
	}
	return tool.Handler(ctx, req)
}

// TextResult builds a successful text tool result.
func TextResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.NewTextContent(fmt.Sprintf(format, args...))}}
}

// ErrorResult builds an error-shaped tool result: the invocation succeeded at
// the protocol level but the business action failed, reported as text the
// calling assistant can read.
func ErrorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{mcp.NewTextContent(fmt.Sprintf(format, args...))},
		IsError: true,
	}
}
