package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the local configuration file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write the default configuration to ~/.docgen/config.yaml (or --config).

An existing file is left untouched unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective local configuration",
	Long: `Print the configuration docgen would run with: defaults, the config
file and DOCGEN_ environment overrides merged. Literal API keys are masked.

Use 'docgen api config show' to see a running server's configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		cm, err := getConfigManager(h, newLogger())
		if err != nil {
			return err
		}
		return api.Output(cm.Get().Redacted())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
