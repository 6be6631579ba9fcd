package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type statsFilterArgs struct {
	DateStart string `json:"date_start,omitempty" jsonschema:"description=Start of the date range (YYYY-MM-DD)"`
	DateEnd   string `json:"date_end,omitempty" jsonschema:"description=End of the date range (YYYY-MM-DD)"`
}

func (a statsFilterArgs) filter() dsapi.StatsFilter {
	return dsapi.StatsFilter{DateStart: a.DateStart, DateEnd: a.DateEnd}
}

func (a statsFilterArgs) params() map[string]string {
	p := map[string]string{}
	if a.DateStart != "" {
		p["date_start"] = a.DateStart
	}
	if a.DateEnd != "" {
		p["date_end"] = a.DateEnd
	}
	return p
}

type roomStatsArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room to report on"`
	statsFilterArgs
}

type participantStatsArgs struct {
	ParticipantID string `json:"participant_id" jsonschema:"description=Participant to report on"`
}

func (d *Deps) analyticsTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("get-team-statistics", "Get team-wide usage statistics.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args statsFilterArgs) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "analytics", "/statistics", args.params(), func(ctx context.Context) (any, error) {
					return d.API.GetTeamStatistics(ctx, req.Credential, args.filter())
				})
				if err != nil {
					return toolFailure("fetching team statistics", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-room-statistics", "Get usage statistics for one room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args roomStatsArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				res, err := d.read(ctx, req.Credential, "analytics", "/rooms/"+args.RoomID+"/statistics", args.params(), func(ctx context.Context) (any, error) {
					return d.API.GetRoomStatistics(ctx, req.Credential, args.RoomID, args.filter())
				})
				if err != nil {
					return toolFailure("fetching room statistics", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-session-statistics", "Get usage statistics for one session.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args sessionIDArgs) (*mcp.CallToolResult, error) {
				if args.SessionID == "" {
					return nil, mcpservice.Validationf("session_id is required")
				}
				res, err := d.read(ctx, req.Credential, "analytics", "/sessions/"+args.SessionID+"/statistics", nil, func(ctx context.Context) (any, error) {
					return d.API.GetSessionStatistics(ctx, req.Credential, args.SessionID)
				})
				if err != nil {
					return toolFailure("fetching session statistics", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-participant-statistics", "Get usage statistics for one participant.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args participantStatsArgs) (*mcp.CallToolResult, error) {
				if args.ParticipantID == "" {
					return nil, mcpservice.Validationf("participant_id is required")
				}
				res, err := d.read(ctx, req.Credential, "analytics", "/participants/"+args.ParticipantID+"/statistics", nil, func(ctx context.Context) (any, error) {
					return d.API.GetParticipantStatistics(ctx, req.Credential, args.ParticipantID)
				})
				if err != nil {
					return toolFailure("fetching participant statistics", err)
				}
				return jsonResult(res)
			}),
	}
}
