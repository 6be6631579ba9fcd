package mcpservice

import (
	"github.com/digitalsamba/mcp-server-go/mcp"
)

// Server bundles the advertised identity and the capability containers. One
// Server instance backs every session regardless of transport.
type Server struct {
	info         mcp.ImplementationInfo
	instructions string
	tools        *ToolsContainer
	resources    *ResourcesContainer
}

// NewServer builds a Server with empty containers.
func NewServer(name, version, instructions string) *Server {
	return &Server{
		info:         mcp.ImplementationInfo{Name: name, Version: version},
		instructions: instructions,
		tools:        NewToolsContainer(),
		resources:    NewResourcesContainer(),
	}
}

// Tools returns the tool catalog for registration and dispatch.
func (s *Server) Tools() *ToolsContainer { return s.tools }

// Resources returns the resource catalog for registration and dispatch.
func (s *Server) Resources() *ResourcesContainer { return s.resources }

// Info returns the implementation identity advertised during initialize.
func (s *Server) Info() mcp.ImplementationInfo { return s.info }

// Instructions returns the operator guidance advertised during initialize.
func (s *Server) Instructions() string { return s.instructions }

// Capabilities reports the server capability set: tools and resources, both
// without list-changed notifications since the catalogs are fixed at startup.
func (s *Server) Capabilities() mcp.ServerCapabilities {
	return mcp.ServerCapabilities{
		Tools:     &mcp.ToolsCapability{},
		Resources: &mcp.ResourcesCapability{},
	}
}
