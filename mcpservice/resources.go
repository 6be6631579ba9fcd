package mcpservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/sessions"
)

// ResourceRequest carries one resources/read invocation. Param holds the
// value matched by a {placeholder} template segment, if any.
type ResourceRequest struct {
	Session    *sessions.Session
	Credential string
	URI        string
	Param      string
}

// ResourceReader produces the contents for one resource URI.
type ResourceReader func(ctx context.Context, req *ResourceRequest) ([]mcp.ResourceContents, error)

type resourceEntry struct {
	descriptor mcp.Resource
	prefix     string // non-empty for template URIs like scheme://rooms/{id}
	reader     ResourceReader
}

// ResourcesContainer is the resource catalog. Exact URIs and single-segment
// {placeholder} templates are supported; templates match any non-empty
// remainder after the prefix.
type ResourcesContainer struct {
	mu      sync.RWMutex
	entries []resourceEntry
}

// NewResourcesContainer returns an empty catalog.
func NewResourcesContainer() *ResourcesContainer {
	return &ResourcesContainer{}
}

// Register adds a resource. A URI ending in "{...}" registers a template.
func (c *ResourcesContainer) Register(desc mcp.Resource, reader ResourceReader) {
	entry := resourceEntry{descriptor: desc, reader: reader}
	if i := strings.Index(desc.URI, "{"); i >= 0 {
		entry.prefix = desc.URI[:i]
	}
	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
}

// List returns the catalog descriptors, templates included.
func (c *ResourcesContainer) List() []mcp.Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]mcp.Resource, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.descriptor)
	}
	return out
}

// Read resolves uri against the catalog. Exact matches win over templates.
func (c *ResourcesContainer) Read(ctx context.Context, req *ResourceRequest) ([]mcp.ResourceContents, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.prefix == "" && e.descriptor.URI == req.URI {
			return e.reader(ctx, req)
		}
	}
	for _, e := range c.entries {
		if e.prefix == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(req.URI, e.prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			scoped := *req
			scoped.Param = rest
			return e.reader(ctx, &scoped)
		}
	}
	return nil, Validationf("unknown resource: %s", req.URI)
}

// JSONContents renders v as a single pretty-printed JSON resource payload.
func JSONContents(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{{URI: uri, MimeType: "application/json", Text: string(b)}}, nil
}
