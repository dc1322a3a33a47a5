package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/server"
)

var (
	serveHost          string
	servePort          string
	serveManagedOllama bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docgen server",
	Long: `Start the docgen HTTP server.

The server accepts document requests, runs generation jobs in the
background and serves the finished LaTeX source and PDFs.

With --managed-ollama (or inference.managed.enabled in config) an Ollama
container is started alongside the server and stopped on shutdown.

The server provides:
  - /health  - Basic server health check
  - /ready   - Readiness check (probes the inference backend)
  - /status  - Backend, container, LaTeX and job summary
  - /api/... - Document and job API (see /swagger)

Examples:
  docgen serve                      # Start on the configured port (default 3000)
  docgen serve --port 8080          # Start on custom port
  docgen serve --host 0.0.0.0       # Bind to all interfaces
  docgen serve --managed-ollama     # Run Ollama in Docker for the server's lifetime`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		h, err := getHome()
		if err != nil {
			return err
		}
		cm, err := getConfigManager(h, logger)
		if err != nil {
			return err
		}
		if f := cm.ConfigFile(); f != "" {
			logger.Info("loaded config", "file", f)
			cm.WatchConfig()
		}

		srv, err := server.New(server.Config{
			Host:             serveHost,
			Port:             servePort,
			ConfigManager:    cm,
			Home:             h,
			Logger:           logger,
			ManagedInference: serveManagedOllama,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port from config)")
	serveCmd.Flags().BoolVar(&serveManagedOllama, "managed-ollama", false, "Run Ollama in a Docker container for the server's lifetime")

	rootCmd.AddCommand(serveCmd)
}
