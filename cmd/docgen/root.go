package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/home"
	"github.com/jackzampolin/docgen/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "docgen",
	Short: "Generate structured LaTeX documents with a language model",
	Long: `docgen turns a topic, an audience level and a chapter count into a
complete LaTeX document, and a PDF when a TeX engine is installed.

A job runs in the background:
  - An outline request produces one title per chapter
  - Each chapter is written with the surrounding titles as context
  - The chapters are assembled, checked and compiled

Failed model calls fall back to template content, so every accepted
request yields a document.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docgen/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "docgen home directory (default: ~/.docgen)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger returns the text logger used by commands that run services in-process.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// getConfigManager loads configuration from --config or the search path.
func getConfigManager(h *home.Dir, logger *slog.Logger) (*config.Manager, error) {
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cm.SetLogger(logger)
	return cm, nil
}
