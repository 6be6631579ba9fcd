package toolsets

import (
	"context"
	"fmt"
	"time"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

// registerResources installs the read-only resource catalog. Every reader
// goes through the same resilience pipeline as the tools, so resource reads
// share the cache and breaker state with tool calls against the same data.
func (d *Deps) registerResources(rc *mcpservice.ResourcesContainer) {
	rc.Register(mcp.Resource{
		URI:         "digitalsamba://rooms",
		Name:        "Rooms",
		Description: "All rooms in the team",
		MimeType:    "application/json",
	}, func(ctx context.Context, req *mcpservice.ResourceRequest) ([]mcp.ResourceContents, error) {
		res, err := d.read(ctx, req.Credential, "rooms", "/rooms", nil, func(ctx context.Context) (any, error) {
			return d.API.ListRooms(ctx, req.Credential, dsapi.ListOptions{})
		})
		if err != nil {
			return nil, err
		}
		return staleAware(req.URI, res.Value, res.Stale, res.Age)
	})

	rc.Register(mcp.Resource{
		URI:         "digitalsamba://rooms/{id}",
		Name:        "Room",
		Description: "One room by identifier",
		MimeType:    "application/json",
	}, func(ctx context.Context, req *mcpservice.ResourceRequest) ([]mcp.ResourceContents, error) {
		res, err := d.read(ctx, req.Credential, "rooms", "/rooms/"+req.Param, nil, func(ctx context.Context) (any, error) {
			return d.API.GetRoom(ctx, req.Credential, req.Param)
		})
		if err != nil {
			return nil, err
		}
		return staleAware(req.URI, res.Value, res.Stale, res.Age)
	})

	rc.Register(mcp.Resource{
		URI:         "digitalsamba://recordings",
		Name:        "Recordings",
		Description: "All recordings in the team",
		MimeType:    "application/json",
	}, func(ctx context.Context, req *mcpservice.ResourceRequest) ([]mcp.ResourceContents, error) {
		res, err := d.read(ctx, req.Credential, "recordings", "/recordings", nil, func(ctx context.Context) (any, error) {
			return d.API.ListRecordings(ctx, req.Credential, dsapi.ListOptions{})
		})
		if err != nil {
			return nil, err
		}
		return staleAware(req.URI, res.Value, res.Stale, res.Age)
	})

	rc.Register(mcp.Resource{
		URI:         "digitalsamba://analytics/team",
		Name:        "Team analytics",
		Description: "Team-wide usage statistics",
		MimeType:    "application/json",
	}, func(ctx context.Context, req *mcpservice.ResourceRequest) ([]mcp.ResourceContents, error) {
		res, err := d.read(ctx, req.Credential, "analytics", "/statistics", nil, func(ctx context.Context) (any, error) {
			return d.API.GetTeamStatistics(ctx, req.Credential, dsapi.StatsFilter{})
		})
		if err != nil {
			return nil, err
		}
		return staleAware(req.URI, res.Value, res.Stale, res.Age)
	})
}

// staleAware wraps degraded payloads so clients can tell they are reading
// cached data served past its freshness window.
func staleAware(uri string, v any, stale bool, age time.Duration) ([]mcp.ResourceContents, error) {
	if stale {
		return mcpservice.JSONContents(uri, map[string]any{
			"stale":     true,
			"cached_at": fmt.Sprintf("%s ago", age.Round(time.Second)),
			"data":      v,
		})
	}
	return mcpservice.JSONContents(uri, v)
}
