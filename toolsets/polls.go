package toolsets

import (
	"context"

	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
)

type listPollsArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room whose polls to list"`
	listArgs
}

type pollSpecArgs struct {
	RoomID         string   `json:"room_id" jsonschema:"description=Room the poll belongs to"`
	Question       string   `json:"question" jsonschema:"description=The poll question"`
	Options        []string `json:"options" jsonschema:"description=Answer choices, at least two"`
	MultipleChoice bool     `json:"multiple,omitempty" jsonschema:"description=Allow selecting multiple answers"`
	Anonymous      bool     `json:"anonymous,omitempty" jsonschema:"description=Hide voter identities"`
}

func (a pollSpecArgs) spec() dsapi.PollSpec {
	opts := make([]dsapi.PollOption, 0, len(a.Options))
	for _, text := range a.Options {
		opts = append(opts, dsapi.PollOption{Text: text})
	}
	return dsapi.PollSpec{
		Question:       a.Question,
		MultipleChoice: a.MultipleChoice,
		Anonymous:      a.Anonymous,
		Options:        opts,
	}
}

type updatePollArgs struct {
	PollID string `json:"poll_id" jsonschema:"description=Poll identifier"`
	pollSpecArgs
}

type pollIDArgs struct {
	RoomID string `json:"room_id" jsonschema:"description=Room the poll belongs to"`
	PollID string `json:"poll_id" jsonschema:"description=Poll identifier"`
}

func (d *Deps) pollTools() []mcpservice.Tool {
	return []mcpservice.Tool{
		mcpservice.NewTool("list-polls", "List the polls of a room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args listPollsArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				res, err := d.read(ctx, req.Credential, "polls", "/rooms/"+args.RoomID+"/polls", listParams(args.Limit, args.Offset, args.Order), func(ctx context.Context) (any, error) {
					return d.API.ListPolls(ctx, req.Credential, args.RoomID, args.options())
				})
				if err != nil {
					return toolFailure("listing polls", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("create-poll", "Create a poll in a room.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args pollSpecArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" {
					return nil, mcpservice.Validationf("room_id is required")
				}
				if args.Question == "" || len(args.Options) < 2 {
					return nil, mcpservice.Validationf("a poll needs a question and at least two options")
				}
				res, err := d.mutate(ctx, req.Credential, "polls", func(ctx context.Context) (any, error) {
					return d.API.CreatePoll(ctx, req.Credential, args.RoomID, args.spec())
				})
				if err != nil {
					return toolFailure("creating poll", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("update-poll", "Update an existing poll.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args updatePollArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" || args.PollID == "" {
					return nil, mcpservice.Validationf("room_id and poll_id are required")
				}
				res, err := d.mutate(ctx, req.Credential, "polls", func(ctx context.Context) (any, error) {
					return d.API.UpdatePoll(ctx, req.Credential, args.RoomID, args.PollID, args.spec())
				})
				if err != nil {
					return toolFailure("updating poll", err)
				}
				return jsonResult(res)
			}),

		mcpservice.NewTool("delete-poll", "Delete a poll permanently.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args pollIDArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" || args.PollID == "" {
					return nil, mcpservice.Validationf("room_id and poll_id are required")
				}
				_, err := d.mutate(ctx, req.Credential, "polls", func(ctx context.Context) (any, error) {
					return nil, d.API.DeletePoll(ctx, req.Credential, args.RoomID, args.PollID)
				})
				if err != nil {
					return toolFailure("deleting poll", err)
				}
				return mcpservice.TextResult("Poll %s deleted.", args.PollID), nil
			}),

		mcpservice.NewTool("get-poll-results", "Get the vote tally for a poll.",
			func(ctx context.Context, req *mcpservice.ToolRequest, args pollIDArgs) (*mcp.CallToolResult, error) {
				if args.RoomID == "" || args.PollID == "" {
					return nil, mcpservice.Validationf("room_id and poll_id are required")
				}
				res, err := d.read(ctx, req.Credential, "polls", "/rooms/"+args.RoomID+"/polls/"+args.PollID+"/results", nil, func(ctx context.Context) (any, error) {
					return d.API.GetPollResults(ctx, req.Credential, args.RoomID, args.PollID)
				})
				if err != nil {
					return toolFailure("fetching poll results", err)
				}
				return jsonResult(res)
			}),
	}
}
