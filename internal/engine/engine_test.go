package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/digitalsamba/mcp-server-go/auth"
	"github.com/digitalsamba/mcp-server-go/internal/jsonrpc"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
	"github.com/digitalsamba/mcp-server-go/resilience"
	"github.com/digitalsamba/mcp-server-go/sessions"
)

type echoArgs struct {
	Message string `json:"message" jsonschema:"required,description=Text to echo back"`
}

func newTestEngine(t *testing.T) (*Engine, *sessions.Session) {
	t.Helper()

	srv := mcpservice.NewServer("test-server", "0.0.0", "test instructions")
	srv.Tools().Register(
		mcpservice.NewTool("echo", "Echoes the message back.", func(ctx context.Context, req *mcpservice.ToolRequest, args echoArgs) (*mcp.CallToolResult, error) {
			if args.Message == "" {
				return nil, mcpservice.Validationf("message is required")
			}
			return mcpservice.TextResult("%s", args.Message), nil
		}),
		mcpservice.NewTool("explode", "Panics.", func(ctx context.Context, req *mcpservice.ToolRequest, args struct{}) (*mcp.CallToolResult, error) {
			panic("boom")
		}),
		mcpservice.NewTool("throttled", "Always rate limited.", func(ctx context.Context, req *mcpservice.ToolRequest, args struct{}) (*mcp.CallToolResult, error) {
			return nil, &resilience.RateLimitError{RetryAfter: 1500 * time.Millisecond}
		}),
		mcpservice.NewTool("down", "Upstream is unavailable.", func(ctx context.Context, req *mcpservice.ToolRequest, args struct{}) (*mcp.CallToolResult, error) {
			return nil, resilience.ErrUnavailable
		}),
	)

	registry := sessions.NewMemory()
	creds := auth.NewCredentialStore()
	eng := New(registry, creds, srv)

	sess, result, err := eng.InitializeSession(context.Background(), sessions.TransportHTTP, &mcp.InitializeRequest{
		ProtocolVersion: mcp.LatestProtocolVersion,
		ClientInfo:      mcp.ImplementationInfo{Name: "test-client", Version: "1.0"},
	})
	if err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	if result.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("negotiated version = %q", result.ProtocolVersion)
	}
	return eng, sess
}

func request(t *testing.T, method string, params any) *jsonrpc.Request {
	t.Helper()
	req := &jsonrpc.Request{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		Method:         method,
		ID:             jsonrpc.NewRequestID(1),
	}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		req.Params = b
	}
	return req
}

func TestInitializeSession_VersionNegotiation(t *testing.T) {
	srv := mcpservice.NewServer("s", "1", "")
	eng := New(sessions.NewMemory(), auth.NewCredentialStore(), srv)

	// An unknown proposal is answered with the server's latest version.
	_, result, err := eng.InitializeSession(context.Background(), sessions.TransportHTTP, &mcp.InitializeRequest{
		ProtocolVersion: "1999-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("expected latest version, got %q", result.ProtocolVersion)
	}

	if _, _, err := eng.InitializeSession(context.Background(), sessions.TransportHTTP, nil); err == nil {
		t.Fatal("nil params must fail")
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	eng, sess := newTestEngine(t)
	resp := eng.HandleRequest(context.Background(), sess, request(t, "ping", nil))
	if resp.Error != nil {
		t.Fatalf("ping: %v", resp.Error)
	}
	if string(resp.Result) != "{}" {
		t.Fatalf("ping result = %s", resp.Result)
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	eng, sess := newTestEngine(t)
	resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/list", nil))
	if resp.Error != nil {
		t.Fatalf("tools/list: %v", resp.Error)
	}
	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(result.Tools))
	}
	if result.Tools[0].Name != "echo" {
		t.Fatalf("tools must keep registration order, got %q first", result.Tools[0].Name)
	}
	if len(result.Tools[0].InputSchema) == 0 {
		t.Fatal("tool descriptors must carry an input schema")
	}
}

func TestHandleRequest_UnknownMethod(t *testing.T) {
	eng, sess := newTestEngine(t)
	resp := eng.HandleRequest(context.Background(), sess, request(t, "prompts/list", nil))
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestHandleRequest_ReinitializeRejected(t *testing.T) {
	eng, sess := newTestEngine(t)
	resp := eng.HandleRequest(context.Background(), sess, request(t, "initialize", &mcp.InitializeRequest{}))
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
		t.Fatalf("expected invalid-request for reinitialize, got %+v", resp.Error)
	}
}

func TestHandleRequest_ToolCallRequiresCredential(t *testing.T) {
	eng, sess := newTestEngine(t)
	resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/call", &mcp.CallToolRequest{Name: "echo"}))
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeAuthRequired {
		t.Fatalf("expected auth-required, got %+v", resp.Error)
	}
}

func TestHandleRequest_ToolCall(t *testing.T) {
	eng, sess := newTestEngine(t)
	eng.Credentials().Set(sess.ID(), "dev-key")

	resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/call", &mcp.CallToolRequest{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hello"}`),
	}))
	if resp.Error != nil {
		t.Fatalf("tools/call: %v", resp.Error)
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.IsError || len(result.Content) != 1 || result.Content[0].Text != "hello" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHandleRequest_ToolCallValidation(t *testing.T) {
	eng, sess := newTestEngine(t)
	eng.Credentials().Set(sess.ID(), "dev-key")

	cases := []struct {
		name   string
		params any
	}{
		{"unknown tool", &mcp.CallToolRequest{Name: "nope"}},
		{"missing name", &mcp.CallToolRequest{}},
		{"unknown argument field", &mcp.CallToolRequest{Name: "echo", Arguments: json.RawMessage(`{"bogus":1}`)}},
		{"handler validation", &mcp.CallToolRequest{Name: "echo", Arguments: json.RawMessage(`{"message":""}`)}},
	}
	for _, tc := range cases {
		resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/call", tc.params))
		if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeInvalidParams {
			t.Errorf("%s: expected invalid-params, got %+v", tc.name, resp.Error)
		}
	}
}

func TestHandleRequest_RateLimitedToolCall(t *testing.T) {
	eng, sess := newTestEngine(t)
	eng.Credentials().Set(sess.ID(), "dev-key")

	resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/call", &mcp.CallToolRequest{Name: "throttled"}))
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeRateLimited {
		t.Fatalf("expected rate-limited, got %+v", resp.Error)
	}
	data, ok := resp.Error.Data.(map[string]any)
	if !ok {
		t.Fatalf("error data = %#v", resp.Error.Data)
	}
	// 1.5s rounds up to a whole number of seconds the client can wait.
	if data["retryAfter"] != 2 {
		t.Fatalf("retryAfter = %v", data["retryAfter"])
	}
}

func TestHandleRequest_UnavailableToolCall(t *testing.T) {
	eng, sess := newTestEngine(t)
	eng.Credentials().Set(sess.ID(), "dev-key")

	resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/call", &mcp.CallToolRequest{Name: "down"}))
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeUnavailable {
		t.Fatalf("expected unavailable, got %+v", resp.Error)
	}
}

func TestHandleRequest_PanicContained(t *testing.T) {
	eng, sess := newTestEngine(t)
	eng.Credentials().Set(sess.ID(), "dev-key")

	resp := eng.HandleRequest(context.Background(), sess, request(t, "tools/call", &mcp.CallToolRequest{Name: "explode"}))
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeInternalError {
		t.Fatalf("expected internal error from panic, got %+v", resp.Error)
	}

	// The session survives the panic and keeps serving.
	resp = eng.HandleRequest(context.Background(), sess, request(t, "ping", nil))
	if resp.Error != nil {
		t.Fatalf("ping after panic: %v", resp.Error)
	}
}

func TestHandleRequest_NotificationReturnsNil(t *testing.T) {
	eng, sess := newTestEngine(t)
	req := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: "notifications/initialized"}
	if resp := eng.HandleRequest(context.Background(), sess, req); resp != nil {
		t.Fatalf("notification must produce no response, got %+v", resp)
	}
}
