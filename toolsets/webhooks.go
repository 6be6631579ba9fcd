package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type webhookArgs struct {
	WebhookID string `json:"webhook_id" jsonschema:"description=Webhook identifier"`
}

type webhookSpecArgs struct {
	Endpoint            string   `json:"endpoint" jsonschema:"description=HTTPS URL to deliver events to"`
	Name                string   `json:"name,omitempty" jsonschema:"description=Display name for the webhook"`
	AuthorizationHeader string   `json:"authorization_header,omitempty" jsonschema:"description=Value sent in the Authorization header of deliveries"`
	Events              []string `json:"events" jsonschema:"description=Event names to subscribe to"`
}

func (a webhookSpecArgs) spec() dsapi.WebhookSpec {
	return dsapi.WebhookSpec{
		Endpoint:            a.Endpoint,
		Name:                a.Name,
		AuthorizationHeader: a.AuthorizationHeader,
		Events:              a.Events,
	}
}

type updateWebhookArgs struct {
	WebhookID string `json:"webhook_id" jsonschema:"description=Webhook identifier"`
	webhookSpecArgs
}

func (d *Deps) webhookTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("list-webhooks", "List the team's registered webhooks.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args listArgs) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "webhooks", "/webhooks", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListWebhooks(ctx, req.Credential, args.options())
				})
				if err != nil {
					return toolFailure("listing webhooks", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("list-webhook-events", "List the event names available for webhook subscription.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args struct{}) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "webhooks", "/events", nil, func(ctx context.Context) (any, error) {
					return d.API.ListWebhookEvents(ctx, req.Credential)
				})
				if err != nil {
					return toolFailure("listing webhook events", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-webhook", "Get details of one webhook.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args webhookArgs) (*mcp.CallToolResult, error) {
				if args.WebhookID == "" {
					return nil, mcpservice.Validationf("webhook_id is required")
				}
				res, err := d.read(ctx, req.Credential, "webhooks", "/webhooks/"+args.WebhookID, nil, func(ctx context.Context) (any, error) {
					return d.API.GetWebhook(ctx, req.Credential, args.WebhookID)
				})
				if err != nil {
					return toolFailure("fetching webhook", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("create-webhook", "Register a new webhook.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args webhookSpecArgs) (*mcp.CallToolResult, error) {
				if args.Endpoint == "" || len(args.Events) == 0 {
					return nil, mcpservice.Validationf("endpoint and at least one event are required")
				}
				res, err := d.mutate(ctx, req.Credential, "webhooks", func(ctx context.Context) (any, error) {
					return d.API.CreateWebhook(ctx, req.Credential, args.spec())
				})
				if err != nil {
					return toolFailure("creating webhook", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("update-webhook", "Update an existing webhook.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args updateWebhookArgs) (*mcp.CallToolResult, error) {
				if args.WebhookID == "" {
					return nil, mcpservice.Validationf("webhook_id is required")
				}
				res, err := d.mutate(ctx, req.Credential, "webhooks", func(ctx context.Context) (any, error) {
					return d.API.UpdateWebhook(ctx, req.Credential, args.WebhookID, args.spec())
				})
				if err != nil {
					return toolFailure("updating webhook", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("delete-webhook", "Delete a webhook.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args webhookArgs) (*mcp.CallToolResult, error) {
				if args.WebhookID == "" {
					return nil, mcpservice.Validationf("webhook_id is required")
				}
				_, err := d.mutate(ctx, req.Credential, "webhooks", func(ctx context.Context) (any, error) {
					return nil, d.API.DeleteWebhook(ctx, req.Credential, args.WebhookID)
				})
				if err != nil {
					return toolFailure("deleting webhook", err)
				}
				return mcpservice.TextResult("Webhook %s deleted.", args.WebhookID), nil
			}),
	}
}
