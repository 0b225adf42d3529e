package main

import (
	"fmt"
	"os"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "abacus",
	Short: "Abacus is a four-function calculator accumulator",
	Long: `Abacus folds calculator key presses into a display, left to right, the way a pocket
calculator does. Use it interactively, script it with eval, or serve it over HTTP and MCP.

Settings are read from --config (YAML or JSON) and ABACUS_* environment variables,
e.g. ABACUS_STORE_KIND=redis ABACUS_REDIS_ADDR=localhost:6379.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file or redis (overrides config)")
	rootCmd.PersistentFlags().String("store-dir", "", "Directory of the file store (overrides config)")
}

// loadConfig reads the config file and environment, then applies persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, nil)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("debug") {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Kind, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("store-dir") {
		cfg.Store.Dir, _ = cmd.Flags().GetString("store-dir")
	}
	return cfg, cfg.Validate()
}

// newApp builds the shared components for a command.
func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), *cfg, opts...)
}

// newPersistentApp is newApp for commands that address sessions across processes.
// The memory store does not outlive the process, so it is replaced by the file store.
func newPersistentApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Kind == config.StoreMemory {
		cfg.Store.Kind = config.StoreFile
	}
	return cli.NewApp(cmd.Context(), *cfg, opts...)
}
