package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/logging"
	"github.com/teemow/slotbot/internal/server"
	signalcli "github.com/teemow/slotbot/internal/signal"
	"github.com/teemow/slotbot/internal/tools/calendar_tools"
	"github.com/teemow/slotbot/internal/tools/signal_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		httpAddr  string
		yolo      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server so AI assistants can query
the appointment calendar.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on --http-addr, with health
    probes next to the /mcp endpoint

Safety Mode:
  By default, the server only answers availability questions.
  Use --yolo to enable booking appointments and, when signal.account is
  configured, sending Signal messages.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(transport, httpAddr, yolo)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (booking, sending messages)")

	return cmd
}

func runServe(transport, httpAddr string, yolo bool) error {
	if transport != transportStdio && transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", transport, transportStdio, transportStreamableHTTP)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("error during shutdown", logging.Err(err))
		}
	}()

	opts := []server.Option{
		server.WithMetrics(a.provider.Metrics()),
		server.WithAuditLogger(a.audit),
		server.WithLogger(a.logger),
		server.WithBookingEnabled(yolo),
	}
	if cfg.Signal.Account != "" {
		client, err := signalcli.NewClient(cfg.Signal.Account,
			signalcli.WithBinary(cfg.Signal.Binary),
			signalcli.WithLogger(logging.NewSlogAdapter(a.logger)))
		if err != nil {
			// Messaging is optional for the MCP server.
			slog.Warn("signal messaging disabled", logging.Err(err))
		} else {
			opts = append(opts, server.WithMessenger(client))
		}
	}

	serverContext, err := server.NewServerContext(shutdownCtx, a.scheduler, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			slog.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("slotbot", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	if !yolo {
		slog.Info("read-only mode: booking tools are disabled, use --yolo to enable them")
	}

	switch transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, httpAddr)
	default:
		return runStdioServer(shutdownCtx, mcpSrv)
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		return nil
	}
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	health := server.NewHealthChecker(sc)
	mux := http.NewServeMux()
	mux.Handle("/mcp", httpServer)
	health.RegisterHealthEndpoints(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		slog.Info("MCP server listening", slog.String("addr", addr), slog.String("endpoint", "/mcp"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		health.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "Signal",
			register: func() error {
				return signal_tools.RegisterSignalTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
