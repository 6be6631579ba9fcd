package stdio

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/digitalsamba/mcp-server-go/auth"
	"github.com/digitalsamba/mcp-server-go/internal/engine"
	"github.com/digitalsamba/mcp-server-go/internal/jsonrpc"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
	"github.com/digitalsamba/mcp-server-go/sessions"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	srv := mcpservice.NewServer("test-server", "0.0.0", "")
	srv.Tools().Register(
		mcpservice.NewTool("echo", "Echoes.", func(ctx context.Context, req *mcpservice.ToolRequest, args struct {
			Message string `json:"message"`
		}) (*mcp.CallToolResult, error) {
			return mcpservice.TextResult("%s", args.Message), nil
		}),
	)
	creds := auth.NewCredentialStore()
	registry := sessions.NewSingle(creds.Remove)
	return engine.New(registry, creds, srv)
}

// run feeds the newline-delimited input through a handler and returns the
// decoded output lines in order.
func run(t *testing.T, eng *engine.Engine, input string, opts ...Option) []*jsonrpc.Response {
	t.Helper()
	var out bytes.Buffer
	h := NewHandler(eng, strings.NewReader(input), &out, opts...)
	if err := h.Serve(context.Background()); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []*jsonrpc.Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp jsonrpc.Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("output line %q: %v", line, err)
		}
		responses = append(responses, &resp)
	}
	return responses
}

const initializeLine = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"test","version":"1.0"}}}`

func TestServe_HandshakeThenCall(t *testing.T) {
	eng := newTestEngine(t)
	responses := run(t, eng,
		initializeLine+"\n"+
			`{"jsonrpc":"2.0","method":"notifications/initialized"}`+"\n"+
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`+"\n",
		WithCredential("dev-key"))

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses (notification produces none), got %d", len(responses))
	}

	var initRes mcp.InitializeResult
	if err := json.Unmarshal(responses[0].Result, &initRes); err != nil {
		t.Fatal(err)
	}
	if initRes.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("protocol version = %q", initRes.ProtocolVersion)
	}

	var callRes mcp.CallToolResult
	if err := json.Unmarshal(responses[1].Result, &callRes); err != nil {
		t.Fatal(err)
	}
	if callRes.IsError || len(callRes.Content) != 1 || callRes.Content[0].Text != "hi" {
		t.Fatalf("call result = %+v", callRes)
	}

	// EOF tears the implicit session down.
	if n := eng.Registry().Count(); n != 0 {
		t.Fatalf("sessions after EOF = %d", n)
	}
}

func TestServe_FirstMessageMustInitialize(t *testing.T) {
	eng := newTestEngine(t)
	responses := run(t, eng,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`+"\n"+
			initializeLine+"\n")

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != jsonrpc.ErrorCodeInvalidRequest {
		t.Fatalf("pre-handshake request: %+v", responses[0].Error)
	}
	// The loop keeps running so the client can still initialize.
	if responses[1].Error != nil {
		t.Fatalf("late initialize should succeed: %+v", responses[1].Error)
	}
}

func TestServe_ParseErrorKeepsServing(t *testing.T) {
	eng := newTestEngine(t)
	responses := run(t, eng, "{garbage\n"+initializeLine+"\n")

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != jsonrpc.ErrorCodeParseError {
		t.Fatalf("expected parse error, got %+v", responses[0].Error)
	}
	if responses[1].Error != nil {
		t.Fatalf("initialize after garbage should succeed: %+v", responses[1].Error)
	}
}

func TestServe_CallWithoutCredential(t *testing.T) {
	eng := newTestEngine(t)
	responses := run(t, eng,
		initializeLine+"\n"+
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo"}}`+"\n")

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[1].Error == nil || responses[1].Error.Code != jsonrpc.ErrorCodeAuthRequired {
		t.Fatalf("expected auth-required without a configured credential, got %+v", responses[1].Error)
	}
}

func TestServe_BlankLinesAndResponsesIgnored(t *testing.T) {
	eng := newTestEngine(t)
	responses := run(t, eng,
		"\n"+initializeLine+"\n\n"+
			`{"jsonrpc":"2.0","id":99,"result":{}}`+"\n"+
			`{"jsonrpc":"2.0","id":2,"method":"ping"}`+"\n")

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[1].Error != nil {
		t.Fatalf("ping: %+v", responses[1].Error)
	}
}

func TestServe_OnlyOnce(t *testing.T) {
	eng := newTestEngine(t)
	h := NewHandler(eng, strings.NewReader(""), &bytes.Buffer{})
	if err := h.Serve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.Serve(context.Background()); err == nil {
		t.Fatal("second Serve must fail")
	}
}
