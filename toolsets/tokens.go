package toolsets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type generateTokenArgs struct {
	RoomID     string `json:"room_id" jsonschema:"description=Room the token grants access to"`
	UserName   string `json:"user_name,omitempty" jsonschema:"description=Display name for the joining participant"`
	Role       string `json:"role,omitempty" jsonschema:"description=Role to assign: moderator or attendee"`
	ExternalID string `json:"external_id,omitempty" jsonschema:"description=Caller-side participant identifier"`
	TTLMinutes int    `json:"ttl_minutes,omitempty" jsonschema:"description=Token lifetime in minutes; omit for no expiry"`
}

// tokenTools covers room access token generation. Tokens are signed locally
// with the configured developer key, so no upstream call and no resilience
// pipeline is involved.
func (d *Deps) tokenTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("generate-room-token", "Generate a signed access token for joining a room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args generateTokenArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				if d.DeveloperKey == "" || d.TeamID == "" {
					return mcpservice.ErrorResult("token generation is not configured: the server needs a developer key and team ID."), nil
				}

				signed, err := dsapi.SignRoomToken(d.DeveloperKey, dsapi.RoomTokenOptions{
					TeamID:     d.TeamID,
					RoomID:     args.RoomID,
					UserName:   args.UserName,
					Role:       args.Role,
					ExternalID: args.ExternalID,
					TTL:        time.Duration(args.TTLMinutes) * time.Minute,
				})
				if err != nil {
					return toolFailure("generating room token", err)
				}

				b, _ := json.MarshalIndent(map[string]any{
					"token":   signed,
					"room_id": args.RoomID,
				}, "", "  ")
				return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.NewTextContent(string(b))}}, nil
			}),
	}
}
