package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuid-server",
		Short: "MCP server exposing a get_uuid tool",
		Long:  "uuid-server speaks the Model Context Protocol over stdio (or HTTP) and offers one tool, get_uuid, which returns a random version 4 UUID.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServe,
	}

	cmd.Flags().String("config", "", "Path to configuration file (JSON or YAML)")
	cmd.Flags().String("transport", "", "Transport to serve on (stdio, http)")
	cmd.Flags().String("http-addr", "", "Listen address for the http transport")
	cmd.Flags().Bool("debug", false, "Enable debug logging")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("telemetry", false, "Record tool call metrics and spans through OpenTelemetry")
	cmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP collector URL for span export (requires --telemetry)")

	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("uuid-server version %s\n", version))

	return cmd
}
