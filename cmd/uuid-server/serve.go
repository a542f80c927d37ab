package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erauner12/uuid-server/internal/mcpserver/config"
	"github.com/erauner12/uuid-server/internal/mcpserver/server"
	"github.com/erauner12/uuid-server/internal/mcpserver/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitTransport = 1
	exitConfig    = 2
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(exitConfig, "failed to load configuration: %v", err)
	}

	setupLogging(cfg, os.Stderr)

	log.Info().
		Str("name", cfg.ServerName).
		Str("version", cfg.ServerVersion).
		Str("transport", cfg.Transport).
		Bool("debug", cfg.Debug).
		Msg("Initializing MCP server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer, shutdownTelemetry := setupTelemetry(ctx, cfg)
	defer shutdownTelemetry()

	srv := server.NewMCPServer(cfg, observer)

	switch cfg.Transport {
	case config.TransportHTTP:
		err = serveHTTP(ctx, srv)
	default:
		err = serveStdio(ctx, srv, os.Stdin, os.Stdout)
	}
	if err != nil {
		return err
	}

	log.Info().Msg("MCP server stopped")
	return nil
}

// setupTelemetry builds the tool call observer when telemetry is enabled,
// exporting spans over OTLP when an endpoint is configured. Failures only
// disable telemetry.
func setupTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Observer, func()) {
	noop := func() {}
	if !cfg.Telemetry {
		return nil, noop
	}

	shutdown := noop
	if cfg.OTLPEndpoint != "" {
		stopTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServerName, cfg.ServerVersion)
		if err != nil {
			log.Warn().Err(err).Msg("span export disabled")
		} else {
			log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("Exporting spans over OTLP")
			shutdown = func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := stopTracing(flushCtx); err != nil {
					log.Warn().Err(err).Msg("failed to flush spans")
				}
			}
		}
	}

	observer, err := telemetry.NewGlobalObserver()
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled: failed to create observer")
		return nil, shutdown
	}
	return observer, shutdown
}

// serveStdio connects the stdio transport and runs until EOF or a signal
func serveStdio(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer) error {
	transport, err := server.NewStdioTransport(in, out)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start or connect the server")
		return exitError(exitTransport, "failed to connect stdio transport: %v", err)
	}

	if err := srv.ServeStdio(ctx, transport); err != nil {
		log.Error().Err(err).Msg("stdio transport failed")
		return exitError(exitTransport, "stdio transport failed: %v", err)
	}
	return nil
}

// serveHTTP runs the HTTP transport until a signal arrives, then shuts down gracefully
func serveHTTP(ctx context.Context, srv *server.MCPServer) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Failed to start or connect the server")
			return exitError(exitTransport, "http transport failed: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down MCP HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// loadConfig loads the configuration from file and environment, then applies CLI flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnvironment()
	}
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides BEFORE validation
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport, _ = flags.GetString("transport")
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr, _ = flags.GetString("http-addr")
	}
	if flags.Changed("telemetry") {
		cfg.Telemetry, _ = flags.GetBool("telemetry")
	}
	if flags.Changed("otlp-endpoint") {
		cfg.OTLPEndpoint, _ = flags.GetString("otlp-endpoint")
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.Debug = true
		// --debug implies debug level unless a level was given explicitly
		if !flags.Changed("log-level") {
			cfg.LogLevel = "debug"
		}
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setupLogging configures the global logger. Logs never go to stdout, which
// carries protocol frames.
func setupLogging(cfg *config.Config, w io.Writer) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	if cfg.Debug {
		// Pretty logging for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
		return
	}

	log.Logger = zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
