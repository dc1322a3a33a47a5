package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/inference"
	"github.com/jackzampolin/docgen/internal/providers"
)

var ollamaCmd = &cobra.Command{
	Use:   "ollama",
	Short: "Manage the Ollama container",
	Long: `Manage the docgen-ollama container lifecycle.

The container serves the ollama backend when no Ollama is installed
locally. Pulled models persist in ~/.docgen/ollama/.

Container name, image and port come from inference.managed in config.

Examples:
  docgen ollama start           # Start the container
  docgen ollama pull            # Pull the configured model
  docgen ollama status          # Check container status
  docgen ollama stop            # Stop the container (models preserved)`,
}

var ollamaStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Ollama container",
	Long: `Start the Ollama container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, _, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting Ollama...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Ollama: %w", err)
		}

		fmt.Printf("Ollama is running at %s\n", mgr.URL())
		return nil
	},
}

var ollamaStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Ollama container",
	Long: `Stop the Ollama container.

This stops the container but preserves pulled models. Use
'docgen ollama start' to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, _, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Ollama...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop Ollama: %w", err)
		}

		fmt.Println("Ollama stopped")
		return nil
	},
}

var ollamaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Ollama container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, model, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case inference.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.URL())

			client := providers.NewOllamaClient(providers.OllamaConfig{
				BaseURL:      mgr.URL(),
				DefaultModel: model,
				Timeout:      5 * time.Second,
			})
			if err := client.Ping(ctx); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case inference.StatusStopped:
			fmt.Printf("Status: %s (use 'docgen ollama start' to start)\n", status)
		case inference.StatusNotFound:
			fmt.Printf("Status: %s (use 'docgen ollama start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var logsTail string

var ollamaLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Ollama container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(cmd.Context(), logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var ollamaRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the Ollama container",
	Long: `Remove the Ollama container.

This stops and removes the container. Models in ~/.docgen/ollama/
are NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing Ollama container...")
		if err := mgr.Remove(cmd.Context()); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Ollama container removed (models preserved)")
		return nil
	},
}

var ollamaWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Ollama to be ready",
	Long: `Wait for Ollama to answer on its API port.

This is useful in scripts to ensure Ollama is fully started
before running 'docgen generate'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for Ollama (timeout: %s)...\n", timeout)

		if err := mgr.WaitReady(cmd.Context(), timeout); err != nil {
			return fmt.Errorf("Ollama not ready: %w", err)
		}

		fmt.Println("Ollama is ready")
		return nil
	},
}

var ollamaPullCmd = &cobra.Command{
	Use:   "pull [model]",
	Short: "Pull a model into the running container",
	Long: `Pull a model into the running Ollama container.

Without an argument the ollama backend's configured model is pulled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, model, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if len(args) == 1 {
			model = args[0]
		}
		if model == "" {
			return fmt.Errorf("no model given and none configured for the ollama backend")
		}

		fmt.Printf("Pulling %s...\n", model)
		if err := mgr.PullModel(cmd.Context(), model); err != nil {
			return err
		}
		fmt.Printf("Pulled %s\n", model)
		return nil
	},
}

func init() {
	ollamaCmd.AddCommand(ollamaStartCmd)
	ollamaCmd.AddCommand(ollamaStopCmd)
	ollamaCmd.AddCommand(ollamaStatusCmd)
	ollamaCmd.AddCommand(ollamaLogsCmd)
	ollamaCmd.AddCommand(ollamaRemoveCmd)
	ollamaCmd.AddCommand(ollamaWaitCmd)
	ollamaCmd.AddCommand(ollamaPullCmd)

	ollamaLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	ollamaWaitCmd.Flags().Duration("timeout", 60*time.Second, "Timeout waiting for Ollama")

	rootCmd.AddCommand(ollamaCmd)
}

// getDockerManager creates a DockerManager from inference.managed and
// returns the ollama backend's model alongside it.
func getDockerManager() (*inference.DockerManager, string, error) {
	h, err := getHome()
	if err != nil {
		return nil, "", err
	}
	if err := h.EnsureModelsDir(); err != nil {
		return nil, "", err
	}
	logger := newLogger()
	cm, err := getConfigManager(h, logger)
	if err != nil {
		return nil, "", err
	}
	conf := cm.Get()

	var model string
	if b, ok := conf.GetBackend(providers.OllamaName); ok {
		model = b.Model
	}
	mgr, err := inference.NewDockerManager(inference.DockerConfig{
		ContainerName: conf.Inference.Managed.ContainerName,
		Image:         conf.Inference.Managed.Image,
		HostPort:      conf.Inference.Managed.Port,
		ModelsPath:    h.ModelsDir(),
		Logger:        logger,
	})
	return mgr, model, err
}
