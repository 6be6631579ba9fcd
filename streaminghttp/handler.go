package streaminghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/digitalsamba/mcp-server-go/auth"
	"github.com/digitalsamba/mcp-server-go/internal/engine"
	"github.com/digitalsamba/mcp-server-go/internal/jsonrpc"
	"github.com/digitalsamba/mcp-server-go/internal/logctx"
	"github.com/digitalsamba/mcp-server-go/internal/metrics"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/sessions"
)

var _ http.Handler = (*Handler)(nil)

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")
)

const (
	mcpSessionIDHeader       = "Mcp-Session-Id"
	mcpProtocolVersionHeader = "Mcp-Protocol-Version"
	authorizationHeader      = "Authorization"
	retryAfterHeader         = "Retry-After"
)

// Handler is the HTTP binding: POST /mcp for request/response exchange,
// GET /mcp for the server-to-client notification stream, DELETE /mcp for
// session termination, plus unauthenticated health and metrics endpoints.
type Handler struct {
	mux *http.ServeMux
	eng *engine.Engine
	log *slog.Logger
	met *metrics.Metrics

	corsWrapped http.Handler
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = slog.New(logctx.Handler{Handler: l.Handler()})
		}
	}
}

// WithMetrics mounts the prometheus scrape endpoint at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.met = m }
}

// New builds the HTTP handler over the shared engine.
func New(eng *engine.Engine, opts ...Option) *Handler {
	h := &Handler{
		eng: eng,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp", h.handlePostMCP)
	mux.HandleFunc("GET /mcp", h.handleGetMCP)
	mux.HandleFunc("DELETE /mcp", h.handleDeleteMCP)
	mux.HandleFunc("GET /health", h.handleGetHealth)
	if h.met != nil {
		mux.Handle("GET /metrics", h.met.Handler())
	}
	h.mux = mux

	// Browser-based clients need the session header both ways.
	h.corsWrapped = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", mcpSessionIDHeader, mcpProtocolVersionHeader},
		ExposedHeaders: []string{mcpSessionIDHeader, mcpProtocolVersionHeader},
	}).Handler(mux)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})
	h.corsWrapped.ServeHTTP(w, r.WithContext(ctx))
}

// writeTransportError emits a transport-level rejection before a JSON-RPC
// exchange is possible. Shape: {"error":{"code":<httpStatus>,"message":...}}.
func writeTransportError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// handlePostMCP accepts one JSON-RPC message per request. A request without a
// session header must be an initialize handshake; everything else must name a
// live session.
func (h *Handler) handlePostMCP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.InfoContext(ctx, "http.post.start")

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeTransportError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		h.log.WarnContext(ctx, "content_type.unsupported")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		writeTransportError(w, http.StatusBadRequest, "failed to read request body")
		h.log.WarnContext(ctx, "body.read.fail", slog.String("err", err.Error()))
		return
	}
	if len(body) > 0 && body[0] == '[' {
		writeTransportError(w, http.StatusBadRequest, "JSON-RPC batch arrays are not supported")
		h.log.WarnContext(ctx, "jsonrpc.batch.forbidden")
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// Parse failures still produce a JSON-RPC envelope so clients have one
		// error surface for malformed payloads.
		resp := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error: "+err.Error(), nil)
		h.writeResponse(ctx, w, http.StatusBadRequest, resp)
		h.log.WarnContext(ctx, "jsonrpc.message.invalid", slog.String("err", err.Error()))
		return
	}
	req := msg.AsRequest()
	if req == nil {
		writeTransportError(w, http.StatusBadRequest, "expected a JSON-RPC request or notification")
		h.log.WarnContext(ctx, "jsonrpc.message.not_request")
		return
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: msg.Type()})

	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		h.handleInitialize(ctx, w, r, req, start)
		return
	}

	sess, err := h.eng.Registry().Get(ctx, sessID)
	if err != nil {
		writeTransportError(w, http.StatusBadRequest, "session not found")
		h.log.InfoContext(ctx, "session.load.miss", slog.String("session_id", sessID))
		return
	}

	// Refresh the credential binding on every request that carries one.
	if tok, ok := auth.ParseBearer(r.Header.Get(authorizationHeader)); ok {
		h.eng.Credentials().Set(sess.ID(), tok)
	}

	if req.IsNotification() {
		h.eng.HandleRequest(ctx, sess, req)
		w.WriteHeader(http.StatusAccepted)
		h.log.InfoContext(ctx, "http.post.notification.ok", slog.Duration("dur", time.Since(start)))
		return
	}

	resp := h.eng.HandleRequest(ctx, sess, req)
	h.writeResponse(ctx, w, statusFor(resp), resp)
	h.log.InfoContext(ctx, "http.post.ok", slog.Duration("dur", time.Since(start)))
}

func (h *Handler) handleInitialize(ctx context.Context, w http.ResponseWriter, r *http.Request, req *jsonrpc.Request, start time.Time) {
	if req.Method != string(mcp.InitializeMethod) {
		writeTransportError(w, http.StatusBadRequest, "no active session, expected initialize")
		h.log.InfoContext(ctx, "session.initialize.expected", slog.String("method", req.Method))
		return
	}
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp := jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid initialize params", nil)
			h.writeResponse(ctx, w, http.StatusOK, resp)
			h.log.InfoContext(ctx, "session.initialize.params.fail", slog.String("err", err.Error()))
			return
		}
	}

	sess, initRes, err := h.eng.InitializeSession(ctx, sessions.TransportHTTP, &params)
	if err != nil {
		writeTransportError(w, http.StatusInternalServerError, "failed to initialize session")
		h.log.ErrorContext(ctx, "session.initialize.fail", slog.String("err", err.Error()))
		return
	}

	if tok, ok := auth.ParseBearer(r.Header.Get(authorizationHeader)); ok {
		h.eng.Credentials().Set(sess.ID(), tok)
	}

	resp, err := jsonrpc.NewResultResponse(req.ID, initRes)
	if err != nil {
		writeTransportError(w, http.StatusInternalServerError, "failed to encode initialize response")
		h.log.ErrorContext(ctx, "session.initialize.encode.fail", slog.String("err", err.Error()))
		return
	}

	// The session identifier travels out-of-band in the response header, never
	// in the JSON-RPC payload.
	w.Header().Set(mcpSessionIDHeader, sess.ID())
	w.Header().Set(mcpProtocolVersionHeader, initRes.ProtocolVersion)
	h.writeResponse(ctx, w, http.StatusOK, resp)
	h.log.InfoContext(ctx, "session.initialize.ok",
		slog.String("session_id", sess.ID()),
		slog.Duration("dur", time.Since(start)))
}

// statusFor maps application error codes onto HTTP statuses; protocol-level
// JSON-RPC errors stay 200 since the envelope itself is well-formed.
func statusFor(resp *jsonrpc.Response) int {
	if resp == nil || resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case jsonrpc.ErrorCodeAuthRequired:
		return http.StatusUnauthorized
	case jsonrpc.ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusOK
	}
}

func (h *Handler) writeResponse(ctx context.Context, w http.ResponseWriter, status int, resp *jsonrpc.Response) {
	if resp.Error != nil && resp.Error.Code == jsonrpc.ErrorCodeRateLimited {
		if data, ok := resp.Error.Data.(map[string]any); ok {
			if secs, ok := data["retryAfter"].(int); ok {
				w.Header().Set(retryAfterHeader, strconv.Itoa(secs))
			}
		}
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.ErrorContext(ctx, "http.response.write.fail", slog.String("err", err.Error()))
	}
}

// handleGetMCP serves the server-to-client notification stream as SSE. The
// stream stays open until the client disconnects or the session is deleted.
func (h *Handler) handleGetMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.log.InfoContext(ctx, "http.get.start")

	accepted, _, err := contenttype.GetAcceptableMediaType(r, []contenttype.MediaType{eventStreamMediaType})
	if err != nil || !accepted.Matches(eventStreamMediaType) {
		writeTransportError(w, http.StatusNotAcceptable, "accept must include text/event-stream")
		h.log.WarnContext(ctx, "accept.unsupported")
		return
	}

	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		writeTransportError(w, http.StatusBadRequest, "no active session, expected initialize")
		return
	}
	sess, err := h.eng.Registry().Get(ctx, sessID)
	if err != nil {
		writeTransportError(w, http.StatusBadRequest, "session not found")
		h.log.InfoContext(ctx, "session.load.miss", slog.String("session_id", sessID))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeTransportError(w, http.StatusInternalServerError, "streaming unsupported")
		h.log.ErrorContext(ctx, "flusher.missing")
		return
	}

	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID(), Transport: string(sess.Transport())})
	h.log.InfoContext(ctx, "sse.stream.open")

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoContext(ctx, "sse.stream.client_gone")
			return
		case <-sess.Done():
			h.log.InfoContext(ctx, "sse.stream.session_closed")
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg := <-sess.Messages():
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg); err != nil {
				h.log.WarnContext(ctx, "sse.write.fail", slog.String("err", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}

// handleDeleteMCP terminates a session. Repeated deletes of the same ID get
// the same rejection as an unknown ID: the session is simply not found.
func (h *Handler) handleDeleteMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.log.InfoContext(ctx, "http.delete.start")

	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		writeTransportError(w, http.StatusBadRequest, "missing session id")
		return
	}
	if err := h.eng.Registry().Delete(ctx, sessID); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			writeTransportError(w, http.StatusBadRequest, "session not found")
			h.log.InfoContext(ctx, "session.delete.miss", slog.String("session_id", sessID))
			return
		}
		writeTransportError(w, http.StatusInternalServerError, "failed to delete session")
		h.log.ErrorContext(ctx, "session.delete.fail", slog.String("err", err.Error()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
	h.log.InfoContext(ctx, "session.delete.ok", slog.String("session_id", sessID))
}

// handleGetHealth reports liveness without authentication.
func (h *Handler) handleGetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"sessions":     h.eng.Registry().Count(),
		"capabilities": []string{"tools", "resources"},
	})
}
