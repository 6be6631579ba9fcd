package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type roleArgs struct {
	Role string `json:"role" jsonschema:"description=Role name or identifier"`
}

type roleSpecArgs struct {
	Name        string          `json:"name" jsonschema:"description=Unique role name"`
	DisplayName string          `json:"display_name,omitempty" jsonschema:"description=Human-readable role name"`
	Description string          `json:"description,omitempty" jsonschema:"description=What the role is for"`
	Permissions map[string]bool `json:"permissions,omitempty" jsonschema:"description=Permission name to enabled flag"`
}

func (a roleSpecArgs) spec() dsapi.RoleSpec {
	return dsapi.RoleSpec{
		Name:        a.Name,
		DisplayName: a.DisplayName,
		Description: a.Description,
		Permissions: a.Permissions,
	}
}

type updateRoleArgs struct {
	Role string `json:"role" jsonschema:"description=Role name or identifier to update"`
	roleSpecArgs
}

func (d *Deps) roleTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("list-roles", "List the team's participant roles.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args listArgs) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "roles", "/roles", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListRoles(ctx, req.Credential, args.options())
				})
				if err != nil {
					return toolFailure("listing roles", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-role", "Get details of one role.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args roleArgs) (*mcp.CallToolResult, error) {
				if args.Role == "" {
					return nil, mcpservice.Validationf("role is required")
				}
				res, err := d.read(ctx, req.Credential, "roles", "/roles/"+args.Role, nil, func(ctx context.Context) (any, error) {
					return d.API.GetRole(ctx, req.Credential, args.Role)
				})
				if err != nil {
					return toolFailure("fetching role", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("create-role", "Create a participant role.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args roleSpecArgs) (*mcp.CallToolResult, error) {
				if args.Name == "" {
					return nil, mcpservice.Validationf("name is required")
				}
				res, err := d.mutate(ctx, req.Credential, "roles", func(ctx context.Context) (any, error) {
					return d.API.CreateRole(ctx, req.Credential, args.spec())
				})
				if err != nil {
					return toolFailure("creating role", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("update-role", "Update an existing role.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args updateRoleArgs) (*mcp.CallToolResult, error) {
				if args.Role == "" {
					return nil, mcpservice.Validationf("role is required")
				}
				res, err := d.mutate(ctx, req.Credential, "roles", func(ctx context.Context) (any, error) {
					return d.API.UpdateRole(ctx, req.Credential, args.Role, args.spec())
				})
				if err != nil {
					return toolFailure("updating role", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("delete-role", "Delete a role.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args roleArgs) (*mcp.CallToolResult, error) {
				if args.Role == "" {
					return nil, mcpservice.Validationf("role is required")
				}
				_, err := d.mutate(ctx, req.Credential, "roles", func(ctx context.Context) (any, error) {
					return nil, d.API.DeleteRole(ctx, req.Credential, args.Role)
				})
				if err != nil {
					return toolFailure("deleting role", err)
				}
				return mcpservice.TextResult("Role %s deleted.", args.Role), nil
			}),

		mcpservice.NewTool("list-permissions", "List every permission name recognized by the platform.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args struct{}) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "roles", "/permissions", nil, func(ctx context.Context) (any, error) {
					return d.API.ListPermissions(ctx, req.Credential)
				})
				if err != nil {
					return toolFailure("listing permissions", err)
				}
				return jsonResult(res)
			}),
	}
}
