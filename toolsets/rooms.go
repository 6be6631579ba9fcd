package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type getRoomArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room identifier"`
}

type roomSettingsArgs struct {
	FriendlyURL       string `json:"friendly_url,omitempty" jsonschema:"description=Human-readable room URL segment"`
	Description       string `json:"description,omitempty" jsonschema:"description=Room description"`
	Privacy           string `json:"privacy,omitempty" jsonschema:"description=Room privacy: public or private"`
	MaxParticipants   *int   `json:"max_participants,omitempty" jsonschema:"description=Maximum number of participants"`
	Language          string `json:"language,omitempty" jsonschema:"description=Default UI language code"`
	TopBarEnabled     *bool  `json:"topbar_enabled,omitempty" jsonschema:"description=Show the top bar in the room UI"`
	ChatEnabled       *bool  `json:"chat_enabled,omitempty" jsonschema:"description=Enable in-room chat"`
	RecordingsEnabled *bool  `json:"recordings_enabled,omitempty" jsonschema:"description=Allow recording the room"`
}

func (a roomSettingsArgs) settings() dsapi.RoomSettings {
	return dsapi.RoomSettings{
		FriendlyURL:       a.FriendlyURL,
		Description:       a.Description,
		Privacy:           a.Privacy,
		MaxParticipants:   a.MaxParticipants,
		Language:          a.Language,
		TopBarEnabled:     a.TopBarEnabled,
		ChatEnabled:       a.ChatEnabled,
		RecordingsEnabled: a.RecordingsEnabled,
	}
}

type updateRoomArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room identifier"`
	roomSettingsArgs
}

type updateDefaultSettingsArgs struct {
	Settings map[string]any `json:"settings" jsonschema:"description=Settings to apply as team-wide room defaults"`
}

func (d *Deps) roomTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("list-rooms", "List the team's rooms.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args listArgs) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "rooms", "/rooms", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListRooms(ctx, req.Credential, args.options())
				})
				if err != nil {
					return toolFailure("listing rooms", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-room", "Get details of one room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args getRoomArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				res, err := d.read(ctx, req.Credential, "rooms", "/rooms/"+args.RoomID, nil, func(ctx context.Context) (any, error) {
					return d.API.GetRoom(ctx, req.Credential, args.RoomID)
				})
				if err != nil {
					return toolFailure("fetching room", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("create-room", "Create a new room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args roomSettingsArgs) (*mcp.CallToolResult, error) {
				res, err := d.mutate(ctx, req.Credential, "rooms", func(ctx context.Context) (any, error) {
					return d.API.CreateRoom(ctx, req.Credential, args.settings())
				})
				if err != nil {
					return toolFailure("creating room", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("update-room", "Update settings of an existing room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args updateRoomArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				res, err := d.mutate(ctx, req.Credential, "rooms", func(ctx context.Context) (any, error) {
					return d.API.UpdateRoom(ctx, req.Credential, args.RoomID, args.settings())
				})
				if err != nil {
					return toolFailure("updating room", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("delete-room", "Delete a room permanently.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args getRoomArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				_, err := d.mutate(ctx, req.Credential, "rooms", func(ctx context.Context) (any, error) {
					return nil, d.API.DeleteRoom(ctx, req.Credential, args.RoomID)
				})
				if err != nil {
					return toolFailure("deleting room", err)
				}
				return mcpservice.TextResult("Room %s deleted.", args.RoomID), nil
			}),

		mcpservice.NewTool("get-default-room-settings", "Get the team-wide default room settings.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args struct{}) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "settings", "/settings", nil, func(ctx context.Context) (any, error) {
					return d.API.GetDefaultRoomSettings(ctx, req.Credential)
				})
				if err != nil {
					return toolFailure("fetching default settings", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("update-default-room-settings", "Update the team-wide default room settings.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args updateDefaultSettingsArgs) (*mcp.CallToolResult, error) {
				if len(args.Settings) == 0 {
					return nil, mcpservice.Validationf("settings must not be empty")
				}
				res, err := d.mutate(ctx, req.Credential, "settings", func(ctx context.Context) (any, error) {
					return d.API.UpdateDefaultRoomSettings(ctx, req.Credential, args.Settings)
				})
				if err != nil {
					return toolFailure("updating default settings", err)
				}
				return jsonResult(res)
			}),
	}
}
