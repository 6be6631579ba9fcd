// Package stdio is the standard-stream transport binding: newline-delimited
// JSON-RPC messages on stdin/stdout, one implicit session, strictly
// sequential processing. Logs must never touch stdout on this transport; the
// caller is expected to hand the handler a stderr-backed logger.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/digitalsamba/mcp-server-go/internal/engine"
	"github.com/digitalsamba/mcp-server-go/internal/jsonrpc"
	"github.com/digitalsamba/mcp-server-go/internal/logctx"
	"github.com/digitalsamba/mcp-server-go/mcp"
	"github.com/digitalsamba/mcp-server-go/sessions"
)

// maxLineBytes bounds a single inbound message.
const maxLineBytes = 4 << 20

// Handler runs the stdio event loop over an engine built with a
// single-session registry.
type Handler struct {
	eng *engine.Engine
	in  io.Reader
	out io.Writer
	log *slog.Logger

	// credential applied to the implicit session at handshake, typically the
	// developer key from the environment.
	credential string

	writeMu sync.Mutex
	serveMu sync.Mutex
	served  bool
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

// WithCredential binds a process-level credential to the implicit session at
// handshake time. On stdio there is no per-request header to carry one.
func WithCredential(token string) Option {
	return func(h *Handler) { h.credential = token }
}

// NewHandler builds a stdio handler reading from in and writing to out.
func NewHandler(eng *engine.Engine, in io.Reader, out io.Writer, opts ...Option) *Handler {
	h := &Handler{
		eng: eng,
		in:  in,
		out: out,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the event loop until EOF on the reader or context cancellation.
// Messages are processed strictly in arrival order: a response is written
// before the next message is read. Safe to call at most once.
func (h *Handler) Serve(ctx context.Context) error {
	h.serveMu.Lock()
	if h.served {
		h.serveMu.Unlock()
		return errors.New("stdio handler already served")
	}
	h.served = true
	h.serveMu.Unlock()

	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var sess *sessions.Session
	defer func() {
		if sess != nil {
			_ = h.eng.Registry().Delete(context.WithoutCancel(ctx), sess.ID())
		}
	}()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg jsonrpc.AnyMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			h.log.WarnContext(ctx, "stdio.message.invalid", slog.String("err", err.Error()))
			if werr := h.write(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error: "+err.Error(), nil)); werr != nil {
				return werr
			}
			continue
		}
		req := msg.AsRequest()
		if req == nil {
			// Client responses have no place in this server's protocol; drop.
			h.log.DebugContext(ctx, "stdio.message.ignored")
			continue
		}

		if sess == nil {
			var err error
			sess, err = h.handshake(ctx, req)
			if err != nil {
				return err
			}
			continue
		}

		resp := h.eng.HandleRequest(ctx, sess, req)
		if resp == nil {
			continue
		}
		if err := h.write(resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio read: %w", err)
	}
	h.log.InfoContext(ctx, "stdio.eof")
	return nil
}

// handshake processes the first request, which must be initialize. The
// resulting session is implicit: no identifier ever crosses the wire.
func (h *Handler) handshake(ctx context.Context, req *jsonrpc.Request) (*sessions.Session, error) {
	if req.Method != string(mcp.InitializeMethod) {
		h.log.InfoContext(ctx, "stdio.initialize.expected", slog.String("method", req.Method))
		return nil, h.write(jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "no active session, expected initialize", nil))
	}

	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, h.write(jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid initialize params", nil))
		}
	}

	sess, initRes, err := h.eng.InitializeSession(ctx, sessions.TransportStdio, &params)
	if err != nil {
		h.log.ErrorContext(ctx, "stdio.initialize.fail", slog.String("err", err.Error()))
		return nil, h.write(jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "failed to initialize session", nil))
	}
	if h.credential != "" {
		h.eng.Credentials().Set(sess.ID(), h.credential)
	}

	resp, err := jsonrpc.NewResultResponse(req.ID, initRes)
	if err != nil {
		return nil, fmt.Errorf("encode initialize response: %w", err)
	}
	if err := h.write(resp); err != nil {
		return nil, err
	}
	return sess, nil
}

func (h *Handler) write(resp *jsonrpc.Response) error {
	if resp == nil {
		return nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.out.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("stdio write: %w", err)
	}
	return nil
}
