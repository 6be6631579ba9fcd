package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type roomSessionsArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room whose sessions to list"`
	listArgs
}

type sessionIDArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Session identifier"`
}

type sessionParticipantsArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Session identifier"`
	listArgs
}

func (d *Deps) sessionTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("list-sessions", "List the team's room sessions, live and past.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args listArgs) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "sessions", "/sessions", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListSessions(ctx, req.Credential, args.options())
				})
				if err != nil {
					return toolFailure("listing sessions", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("list-room-sessions", "List the sessions of one room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args roomSessionsArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				res, err := d.read(ctx, req.Credential, "sessions", "/rooms/"+args.RoomID+"/sessions", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListRoomSessions(ctx, req.Credential, args.RoomID, args.options())
				})
				if err != nil {
					return toolFailure("listing room sessions", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("list-session-participants", "List the participants of a session.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args sessionParticipantsArgs) (*mcp.CallToolResult, error) {
				if args.SessionID == "" {
					return nil, mcpservice.Validationf("session_id is required")
				}
				res, err := d.read(ctx, req.Credential, "sessions", "/sessions/"+args.SessionID+"/participants", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListSessionParticipants(ctx, req.Credential, args.SessionID, args.options())
				})
				if err != nil {
					return toolFailure("listing session participants", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("end-session", "Forcibly end a live session.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args sessionIDArgs) (*mcp.CallToolResult, error) {
				if args.SessionID == "" {
					return nil, mcpservice.Validationf("session_id is required")
				}
				_, err := d.mutate(ctx, req.Credential, "sessions", func(ctx context.Context) (any, error) {
					return nil, d.API.EndSession(ctx, req.Credential, args.SessionID)
				})
				if err != nil {
					return toolFailure("ending session", err)
				}
				return mcpservice.TextResult("Session %s ended.", args.SessionID), nil
			}),
	}
}
