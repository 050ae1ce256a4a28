package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/resources"
	"github.com/teemow/inboxcrm/internal/server"
	"github.com/teemow/inboxcrm/internal/tools/crm_tools"
)

// serveOptions holds the serve command flags.
type serveOptions struct {
	transport        string
	httpAddr         string
	yolo             bool
	disableStreaming bool
	metricsEnabled   bool
	metricsAddr      string
}

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide CRM tools for
AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (logging emails, creating and deleting records).

Authentication:
  The server uses the CRM session stored by 'inboxcrm login'. Tools report
  when the session is missing or expired. Gmail message lookups need
  'inboxcrm gmail-login'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-enabled") && opts.transport == "stdio" && !cmd.Flags().Changed("metrics-addr") {
				opts.metricsEnabled = false
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (logging emails, creating, updating and deleting records). Default is read-only mode.")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (off by default for stdio)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if opts.transport != "stdio" && opts.transport != "streamable-http" {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := instrumentation.NewProvider(ctx, cfg.InstrumentationConfig(version))
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error during instrumentation shutdown", "error", err)
		}
	}()

	a, err := buildApp(cfg, provider.Metrics())
	if err != nil {
		return err
	}

	google, err := a.googleAuth()
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(ctx, server.Options{
		Client:   a.client,
		Flow:     a.flow,
		Executor: a.executor,
		Google:   google,
		Metrics:  provider.Metrics(),
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			a.logger.Warn("Error during server context shutdown", "error", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxcrm", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	readOnly := !opts.yolo
	if err := crm_tools.RegisterCRMTools(mcpSrv, serverContext, readOnly); err != nil {
		return fmt.Errorf("failed to register CRM tools: %w", err)
	}
	if err := resources.RegisterSessionResources(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register session resources: %w", err)
	}

	if opts.metricsEnabled && provider.ServesPrometheus() {
		metricsServer, err := startMetricsServer(opts.metricsAddr, provider, serverContext, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Error during metrics server shutdown", "error", err)
			}
		}()
	}

	a.logger.Info("Starting MCP server",
		"transport", opts.transport,
		"read_only", readOnly,
		"gmail", google != nil,
		"signed_in", serverContext.AuthState().String())

	if opts.transport == "stdio" {
		return runStdioServer(mcpSrv)
	}
	return runStreamableHTTPServer(ctx, mcpSrv, serverContext, opts)
}

// startMetricsServer binds the metrics address synchronously so that a
// port conflict fails the command instead of a background goroutine.
func startMetricsServer(addr string, provider *instrumentation.Provider, sc *server.ServerContext, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		ServerContext:           sc,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()
	logger.Info("Metrics server started", "addr", ln.Addr().String())
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// newHTTPHandler mounts the MCP endpoint next to the health probes.
func newHTTPHandler(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, disableStreaming bool) http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithDisableStreaming(disableStreaming),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)
	return mux
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions) error {
	httpServer := &http.Server{
		Addr:              opts.httpAddr,
		Handler:           newHTTPHandler(mcpSrv, sc, opts.disableStreaming),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sc.Logger().Info("Streamable HTTP server starting",
		"addr", opts.httpAddr,
		"endpoint", "/mcp",
		"health", "/healthz, /readyz")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		sc.Logger().Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	sc.Logger().Info("HTTP server gracefully stopped")
	return nil
}
