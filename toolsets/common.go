// Package toolsets registers the per-domain tool and resource catalogs:
// rooms, tokens, recordings, polls, webhooks, roles, live sessions, and
// analytics. Each handler translates validated arguments into one upstream
// call routed through the resilience pipeline and renders the response as
// text content.
package toolsets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/digitalsamba/mcp-server-go/auth"
	"github.com/digitalsamba/mcp-server-go/cache"
	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
	"github.com/digitalsamba/mcp-server-go/resilience"
)

// Deps carries the shared collaborators every toolset needs.
type Deps struct {
	API    *dsapi.Client
	Caller *resilience.Caller

	// DeveloperKey and TeamID feed local room-token signing. Either may be
	// empty, in which case the token tool reports the missing configuration.
	DeveloperKey string
	TeamID       string
}

// RegisterAll installs every toolset and resource into the server.
func RegisterAll(srv *mcpservice.Server, d *Deps) {
	srv.Tools().Register(d.roomTools()...)
	srv.Tools().Register(d.tokenTools()...)
	srv.Tools().Register(d.recordingTools()...)
	srv.Tools().Register(d.pollTools()...)
	srv.Tools().Register(d.webhookTools()...)
	srv.Tools().Register(d.roleTools()...)
	srv.Tools().Register(d.sessionTools()...)
	srv.Tools().Register(d.analyticsTools()...)
	d.registerResources(srv.Resources())
}

// read routes a cacheable GET-class upstream call through the pipeline.
// path and params together identify the call for fingerprinting.
func (d *Deps) read(ctx context.Context, cred, resource, path string, params map[string]string, fn resilience.UpstreamFunc) (resilience.Result, error) {
	scope := auth.Scope(cred)
	return d.Caller.Do(ctx, resilience.Call{
		LimitKey:    scope,
		Fingerprint: cache.Fingerprint(scope, http.MethodGet, path, params),
		Namespace:   cache.Namespace(scope, resource),
	}, fn)
}

// mutate routes a write-class upstream call through the pipeline. On success
// every cached read in the resource's namespace is dropped.
func (d *Deps) mutate(ctx context.Context, cred, resource string, fn resilience.UpstreamFunc) (resilience.Result, error) {
	scope := auth.Scope(cred)
	return d.Caller.Do(ctx, resilience.Call{
		LimitKey:  scope,
		Namespace: cache.Namespace(scope, resource),
		Mutation:  true,
	}, fn)
}

// passthrough routes an uncacheable read-class call through the pipeline:
// rate limited and breaker guarded, but never served from or stored in the
// cache.
func (d *Deps) passthrough(ctx context.Context, cred string, fn resilience.UpstreamFunc) (resilience.Result, error) {
	return d.Caller.Do(ctx, resilience.Call{LimitKey: auth.Scope(cred)}, fn)
}

// jsonResult renders a pipeline result as a JSON text block. Stale values are
// annotated so the calling assistant knows it is reading degraded data.
func jsonResult(res resilience.Result) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(res.Value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render result: %w", err)
	}
	text := string(b)
	if res.Stale {
		text = fmt.Sprintf("WARNING: upstream is degraded; serving cached data from %s ago.\n%s", res.Age.Round(time.Second), text)
	}
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.NewTextContent(text)}}, nil
}

// toolFailure converts an upstream error into either an error-shaped tool
// result or a propagated protocol error. Validation and rate-limit failures
// must reach the client as JSON-RPC errors; everything else is reported
// in-band as readable text.
func toolFailure(action string, err error) (*mcp.CallToolResult, error) {
	var verr *mcpservice.ValidationError
	if errors.As(err, &verr) {
		return nil, err
	}
	if _, ok := resilience.AsRateLimit(err); ok {
		return nil, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if errors.Is(err, resilience.ErrUnavailable) {
		return mcpservice.ErrorResult("%s failed: the upstream service is currently unavailable. Please retry shortly.", action), nil
	}
	var apiErr *dsapi.APIError
	if errors.As(err, &apiErr) {
		return mcpservice.ErrorResult("%s failed: upstream returned %d: %s", action, apiErr.Status, apiErr.Message), nil
	}
	return mcpservice.ErrorResult("%s failed: %v", action, err), nil
}

// listParams normalizes pagination arguments into fingerprint parameters.
func listParams(limit, offset int, order string) map[string]string {
	p := map[string]string{}
	if limit > 0 {
		p["limit"] = fmt.Sprintf("%d", limit)
	}
	if offset > 0 {
		p["offset"] = fmt.Sprintf("%d", offset)
	}
	if order != "" {
		p["order"] = order
	}
	return p
}

// listArgs are the shared pagination arguments for list-class tools.
type listArgs struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of items to return"`
	Offset int    `json:"offset,omitempty" jsonschema:"description=Number of items to skip"`
	Order  string `json:"order,omitempty" jsonschema:"description=Sort order: asc or desc"`
}

func (a listArgs) options() dsapi.ListOptions {
	return dsapi.ListOptions{Limit: a.Limit, Offset: a.Offset, Order: a.Order}
}
