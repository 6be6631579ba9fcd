// Package engine is the protocol core shared by both transport channels: it
// owns the handshake, session resolution, and the dispatch of JSON-RPC
// methods to the capability containers. Transports frame bytes; the engine
// decides what every message means.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/digitalsamba/mcp-server-go/auth"
	"github.com/digitalsamba/mcp-server-go/internal/jsonrpc"
	"github.com/digitalsamba/mcp-server-go/internal/logctx"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
	"github.com/digitalsamba/mcp-server-go/resilience"
	"github.com/digitalsamba/mcp-server-go/sessions"
)

// Engine routes decoded JSON-RPC messages for one server instance. It is
// transport-agnostic: the HTTP and stdio channels both hand it requests after
// framing and session-header handling.
type Engine struct {
	registry sessions.Registry
	creds    *auth.CredentialStore
	server   *mcpservice.Server
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New builds an Engine over the injected session registry, credential store,
// and capability server.
func New(registry sessions.Registry, creds *auth.CredentialStore, server *mcpservice.Server, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		creds:    creds,
		server:   server,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the session registry, for transports and health reporting.
func (e *Engine) Registry() sessions.Registry { return e.registry }

// Credentials exposes the credential store, for transports binding bearer
// headers to sessions.
func (e *Engine) Credentials() *auth.CredentialStore { return e.creds }

// InitializeSession processes the handshake: it negotiates a protocol
// version, creates a session, and returns the capability advertisement. The
// session identifier travels out-of-band (header for HTTP, implicit for
// stdio), never in the result payload.
func (e *Engine) InitializeSession(ctx context.Context, transport sessions.Transport, params *mcp.InitializeRequest) (*sessions.Session, *mcp.InitializeResult, error) {
	if params == nil {
		return nil, nil, fmt.Errorf("initialize params required")
	}

	// Version negotiation: accept the client's proposal when it is one we
	// speak, otherwise answer with our latest and let the client decide.
	version := params.ProtocolVersion
	if version == "" || version != mcp.LatestProtocolVersion {
		version = mcp.LatestProtocolVersion
	}

	info := sessions.ClientInfo{Name: params.ClientInfo.Name, Version: params.ClientInfo.Version}
	sess, err := e.registry.Create(ctx, transport, info, version)
	if err != nil {
		return nil, nil, err
	}

	e.log.InfoContext(ctx, "session.initialize",
		slog.String("session_id", sess.ID()),
		slog.String("transport", string(transport)),
		slog.String("client", info.Name),
		slog.String("protocol_version", version))

	return sess, &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    e.server.Capabilities(),
		ServerInfo:      e.server.Info(),
		Instructions:    e.server.Instructions(),
	}, nil
}

// HandleRequest dispatches one request against a live session and returns the
// response to send. Notifications return nil. A handler panic is contained to
// the request: the session and process stay up.
func (e *Engine) HandleRequest(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) (resp *jsonrpc.Response) {
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID(), Transport: string(sess.Transport())})
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: "request"})

	defer func() {
		if r := recover(); r != nil {
			e.log.ErrorContext(ctx, "engine.handler.panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			if !req.IsNotification() {
				resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
			}
		}
	}()

	if req.IsNotification() {
		e.handleNotification(ctx, sess, req)
		return nil
	}

	switch mcp.Method(req.Method) {
	case mcp.PingMethod:
		return e.result(req.ID, struct{}{})

	case mcp.InitializeMethod:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session already initialized", nil)

	case mcp.ToolsListMethod:
		return e.result(req.ID, &mcp.ListToolsResult{Tools: e.server.Tools().List()})

	case mcp.ResourcesListMethod:
		return e.result(req.ID, &mcp.ListResourcesResult{Resources: e.server.Resources().List()})

	case mcp.ToolsCallMethod:
		return e.handleToolCall(ctx, sess, req)

	case mcp.ResourcesReadMethod:
		return e.handleResourceRead(ctx, sess, req)

	default:
		e.log.InfoContext(ctx, "engine.method.unknown")
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

func (e *Engine) handleNotification(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) {
	switch mcp.Method(req.Method) {
	case mcp.InitializedNotificationMethod:
		e.log.DebugContext(ctx, "session.initialized")
	default:
		// Unknown notifications are dropped without error per JSON-RPC.
		e.log.DebugContext(ctx, "engine.notification.ignored")
	}
}

func (e *Engine) handleToolCall(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.CallToolRequest
	if err := unmarshalParams(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error(), nil)
	}
	if params.Name == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "tool name is required", nil)
	}

	cred, ok := e.creds.Get(sess.ID())
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeAuthRequired, "authentication required: no credential bound to session", nil)
	}

	ctx = logctx.WithToolData(ctx, &logctx.ToolData{ToolName: params.Name})
	e.log.InfoContext(ctx, "tool.call")

	result, err := e.server.Tools().Call(ctx, &mcpservice.ToolRequest{
		Session:    sess,
		Credential: cred,
		Name:       params.Name,
		Arguments:  params.Arguments,
	})
	if err != nil {
		return e.errorResponse(ctx, req.ID, err)
	}
	return e.result(req.ID, result)
}

func (e *Engine) handleResourceRead(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.ReadResourceRequest
	if err := unmarshalParams(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error(), nil)
	}
	if params.URI == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "resource uri is required", nil)
	}

	cred, ok := e.creds.Get(sess.ID())
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeAuthRequired, "authentication required: no credential bound to session", nil)
	}

	e.log.InfoContext(ctx, "resource.read", slog.String("uri", params.URI))

	contents, err := e.server.Resources().Read(ctx, &mcpservice.ResourceRequest{
		Session:    sess,
		Credential: cred,
		URI:        params.URI,
	})
	if err != nil {
		return e.errorResponse(ctx, req.ID, err)
	}
	return e.result(req.ID, &mcp.ReadResourceResult{Contents: contents})
}

// errorResponse maps handler errors onto the stable wire codes.
func (e *Engine) errorResponse(ctx context.Context, id *jsonrpc.RequestID, err error) *jsonrpc.Response {
	var verr *mcpservice.ValidationError
	if errors.As(err, &verr) {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidParams, verr.Error(), nil)
	}
	if rl, ok := resilience.AsRateLimit(err); ok {
		var data any
		if rl.RetryAfter > 0 {
			data = map[string]any{"retryAfter": int(rl.RetryAfter.Seconds()) + 1}
		}
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeRateLimited, "rate limit exceeded", data)
	}
	if errors.Is(err, auth.ErrCredentialMissing) {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeAuthRequired, "authentication required: no credential bound to session", nil)
	}
	if errors.Is(err, resilience.ErrUnavailable) {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeUnavailable, "upstream service unavailable", nil)
	}

	e.log.ErrorContext(ctx, "engine.handler.error", slog.String("err", err.Error()))
	return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "internal error", nil)
}

func (e *Engine) result(id *jsonrpc.RequestID, v any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResultResponse(id, v)
	if err != nil {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return resp
}

func unmarshalParams(raw []byte, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("params required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %v", err)
	}
	return nil
}
