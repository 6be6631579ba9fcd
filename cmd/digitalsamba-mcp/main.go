// Command digitalsamba-mcp serves the Digital Samba MCP server over one of
// two transports: newline-delimited JSON-RPC on stdin/stdout, or streaming
// HTTP with per-client sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitalsamba/mcp-server-go/auth"
	"github.com/digitalsamba/mcp-server-go/breaker"
	"github.com/digitalsamba/mcp-server-go/cache"
	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/internal/config"
	"github.com/digitalsamba/mcp-server-go/internal/engine"
	"github.com/digitalsamba/mcp-server-go/internal/logctx"
	"github.com/digitalsamba/mcp-server-go/internal/metrics"
	"github.com/digitalsamba/mcp-server-go/mcpservice"
	"github.com/digitalsamba/mcp-server-go/ratelimit"
	"github.com/digitalsamba/mcp-server-go/resilience"
	"github.com/digitalsamba/mcp-server-go/sessions"
	"github.com/digitalsamba/mcp-server-go/stdio"
	"github.com/digitalsamba/mcp-server-go/streaminghttp"
	"github.com/digitalsamba/mcp-server-go/toolsets"
)

// version is set at build time via ldflags.
var version = "0.1.0"

const serverName = "digitalsamba-mcp-server"

const instructions = "This server exposes the Digital Samba video-conferencing platform: " +
	"room management, access tokens, recordings, polls, webhooks, roles, live sessions, " +
	"and usage analytics. Provide your developer key as a bearer credential."

var rootCmd = &cobra.Command{
	Use:           "digitalsamba-mcp",
	Short:         "MCP server for the Digital Samba video-conferencing API",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve one client over stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStdio(cmd.Context())
	},
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve HTTP clients with per-client sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHTTP(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd, httpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "digitalsamba-mcp: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine assembles the shared core: registry, credential store, upstream
// client, resilience pipeline, and the tool/resource catalogs.
func buildEngine(cfg config.Config, log *slog.Logger, met *metrics.Metrics, registry *sessions.MemoryRegistry, creds *auth.CredentialStore) (*engine.Engine, error) {
	api, err := dsapi.New(cfg.APIBaseURL, dsapi.WithLogger(log))
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewKeyed(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	// The pipeline reports hit/miss/stale/invalidate itself; the store hook
	// only covers evictions, which happen outside any one call.
	store := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries, cache.WithEventHook(func(event string) {
		if event == "evict" {
			met.CacheOp("evict")
		}
	}))
	breakers := breaker.NewSet(cfg.BreakerFailureThreshold, cfg.BreakerResetTimeout,
		breaker.WithTransitionHook(func(from, to breaker.State) {
			met.BreakerTransition(from.String(), to.String())
		}))

	caller := resilience.New(limiter, store, breakers, cfg.CallTimeout,
		resilience.WithLogger(log),
		resilience.WithMetrics(met),
		resilience.WithRetry(resilience.RetryConfig{
			MaxAttempts:    cfg.RetryMaxAttempts,
			BaseDelay:      cfg.RetryBaseDelay,
			MaxDelay:       cfg.RetryMaxDelay,
			JitterFraction: 0.2,
		}))

	srv := mcpservice.NewServer(serverName, version, instructions)
	toolsets.RegisterAll(srv, &toolsets.Deps{
		API:          api,
		Caller:       caller,
		DeveloperKey: cfg.DeveloperKey,
		TeamID:       cfg.TeamID,
	})

	return engine.New(registry, creds, srv, engine.WithLogger(log)), nil
}

// newRegistry wires the credential store into the registry's close hooks so
// the binding disappears during session teardown, never after.
func newRegistry(single bool) (*sessions.MemoryRegistry, *auth.CredentialStore) {
	creds := auth.NewCredentialStore()
	if single {
		return sessions.NewSingle(creds.Remove), creds
	}
	return sessions.NewMemory(creds.Remove), creds
}

func runStdio(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	// stdout carries protocol frames; all logging goes to stderr as text.
	log := slog.New(logctx.Handler{Handler: slog.NewTextHandler(os.Stderr, nil)})

	registry, creds := newRegistry(true)
	eng, err := buildEngine(cfg, log, nil, registry, creds)
	if err != nil {
		return err
	}

	h := stdio.NewHandler(eng, os.Stdin, os.Stdout,
		stdio.WithLogger(log),
		stdio.WithCredential(cfg.DeveloperKey))

	log.InfoContext(ctx, "server.start", slog.String("transport", "stdio"), slog.String("version", version))
	defer registry.Shutdown(context.WithoutCancel(ctx))
	return h.Serve(ctx)
}

func runHTTP(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	log := slog.New(logctx.Handler{Handler: slog.NewJSONHandler(os.Stderr, nil)})
	met := metrics.New()

	registry, creds := newRegistry(false)
	met.ObserveSessions(registry.Count)

	eng, err := buildEngine(cfg, log, met, registry, creds)
	if err != nil {
		return err
	}

	handler := streaminghttp.New(eng,
		streaminghttp.WithLogger(log),
		streaminghttp.WithMetrics(met))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "server.start",
			slog.String("transport", "http"),
			slog.String("addr", cfg.ListenAddr),
			slog.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "server.shutdown.start")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.ErrorContext(ctx, "server.shutdown.fail", slog.String("err", err.Error()))
	}
	registry.Shutdown(shutdownCtx)
	log.InfoContext(ctx, "server.shutdown.ok")
	return nil
}
