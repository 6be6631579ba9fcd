package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type recordingArgs struct {
	RecordingID string `json:"recording_id" jsonschema:"description=Recording identifier"`
}

type recordingRoomArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room whose live session is being recorded"`
}

func (d *Deps) recordingTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("list-recordings", "List the team's recordings.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args listArgs) (*mcp.CallToolResult, error) {
				res, err := d.read(ctx, req.Credential, "recordings", "/recordings", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListRecordings(ctx, req.Credential, args.options())
				})
				if err != nil {
					return toolFailure("listing recordings", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("get-recording", "Get details of one recording.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args recordingArgs) (*mcp.CallToolResult, error) {
				if args.RecordingID == "" {
					return nil, mcpservice.Validationf("recording_id is required")
				}
				res, err := d.read(ctx, req.Credential, "recordings", "/recordings/"+args.RecordingID, nil, func(ctx context.Context) (any, error) {
					return d.API.GetRecording(ctx, req.Credential, args.RecordingID)
				})
				if err != nil {
					return toolFailure("fetching recording", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("delete-recording", "Delete a recording permanently.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args recordingArgs) (*mcp.CallToolResult, error) {
				if args.RecordingID == "" {
					return nil, mcpservice.Validationf("recording_id is required")
				}
				_, err := d.mutate(ctx, req.Credential, "recordings", func(ctx context.Context) (any, error) {
					return nil, d.API.DeleteRecording(ctx, req.Credential, args.RecordingID)
				})
				if err != nil {
					return toolFailure("deleting recording", err)
				}
				return mcpservice.TextResult("Recording %s deleted.", args.RecordingID), nil
			}),

		mcpservice.NewTool("get-recording-download-link", "Get a time-limited download URL for a recording.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args recordingArgs) (*mcp.CallToolResult, error) {
				if args.RecordingID == "" {
					return nil, mcpservice.Validationf("recording_id is required")
				}
				// Links are short-lived; caching one would hand out expired
				// URLs, so this read bypasses the cache.
				res, err := d.passthrough(ctx, req.Credential, func(ctx context.Context) (any, error) {
					return d.API.GetRecordingDownloadLink(ctx, req.Credential, args.RecordingID)
				})
				if err != nil {
					return toolFailure("fetching download link", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("start-recording", "Start recording a room's live session.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args recordingRoomArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				_, err := d.mutate(ctx, req.Credential, "recordings", func(ctx context.Context) (any, error) {
					return nil, d.API.StartRecording(ctx, req.Credential, args.RoomID)
				})
				if err != nil {
					return toolFailure("starting recording", err)
				}
				return mcpservice.TextResult("Recording started in room %s.", args.RoomID), nil
			}),

		mcpservice.NewTool("stop-recording", "Stop recording a room's live session.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args recordingRoomArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				_, err := d.mutate(ctx, req.Credential, "recordings", func(ctx context.Context) (any, error) {
					return nil, d.API.StopRecording(ctx, req.Credential, args.RoomID)
				})
				if err != nil {
					return toolFailure("stopping recording", err)
				}
				return mcpservice.TextResult("Recording stopped in room %s.", args.RoomID), nil
			}),
	}
}
