package cmd

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

	"github.com/teemow/slotbot/internal/logging"
	"github.com/teemow/slotbot/internal/server"
	signalcli "github.com/teemow/slotbot/internal/signal"
)

func newRunCmd() *cobra.Command {
	var (
		metricsAddr    string
		metricsEnabled bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Answer booking requests arriving over Signal",
		Long: `Poll signal-cli for incoming messages and drive the booking dialogue for
every sender. Replies are sent back over Signal.

Requirements:
  - signal-cli registered for the bot's number (SIGNAL_ACCOUNT or signal.account)
  - a calendar ID (CALENDAR_ID or calendar.id)
  - Google credentials (GOOGLE_APPLICATION_CREDENTIALS, calendar.credentials_file,
    or Application Default Credentials)

Metrics and health probes are served on --metrics-addr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}
			return runBot(metricsEnabled)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for the metrics and health server")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "Serve metrics and health probes")

	return cmd
}

func runBot(metricsEnabled bool) error {
	if err := cfg.RequireSignal(); err != nil {
		return err
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

	client, err := signalcli.NewClient(cfg.Signal.Account,
		signalcli.WithBinary(cfg.Signal.Binary),
		signalcli.WithLogger(logging.NewSlogAdapter(a.logger)))
	if err != nil {
		return err
	}

	store, err := a.openStore(shutdownCtx)
	if err != nil {
		return err
	}

	orchestrator, err := a.newOrchestrator(shutdownCtx, store, client)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, a.scheduler,
		server.WithStore(store),
		server.WithMetrics(a.provider.Metrics()),
		server.WithAuditLogger(a.audit),
		server.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	if metricsEnabled && a.provider.Enabled() {
		metricsServer, err := startMetricsServer(serverContext, a)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				slog.Error("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	slog.Info("listening for Signal messages", logging.Session(cfg.Signal.Account))
	err = orchestrator.Run(shutdownCtx, client, cfg.Signal.PollInterval)
	if errors.Is(err, context.Canceled) {
		slog.Info("shutdown signal received")
		return nil
	}
	return err
}

// startMetricsServer serves metrics and health probes in the background and
// waits briefly for the listener so bind errors surface at startup.
func startMetricsServer(sc *server.ServerContext, a *app) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Server.MetricsAddr,
		InstrumentationProvider: a.provider,
		HealthChecker:           server.NewHealthChecker(sc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	deadline := time.After(5 * time.Second)
	for metricsServer.BoundAddr() == "" {
		select {
		case err := <-metricsErr:
			if err == nil {
				err = errors.New("metrics server stopped")
			}
			return nil, fmt.Errorf("metrics server failed to start: %w", err)
		case <-deadline:
			return nil, fmt.Errorf("metrics server startup timed out")
		case <-time.After(10 * time.Millisecond):
		}
	}
	slog.Info("metrics server started", slog.String("addr", metricsServer.BoundAddr()))
	return metricsServer, nil
}
