// Package cli provides the engine command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"alumni-engine/internal/config"
	"alumni-engine/internal/logging"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	dataDir  string
	cfgFile  string
	logLevel string

	// Loaded in PersistentPreRunE.
	cfg      config.Config
	userCfg  string
	log      *slog.Logger
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Resolve, fetch and store alumni profiles",
	Long: `engine turns a list of alumni names into canonical profiles.

Each name is resolved to a public profile URL (browser + LLM discovery,
falling back to a web search), the profile is fetched through the collector,
normalized and upserted into the profile store.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, userCfg, err = loadConfig(dataDir, cfgFile)
		if err != nil {
			return err
		}
		level := cfg.App.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		log, closeLog = logging.Setup(cfg.App.LogFile, logging.ParseLevel(level))
		slog.SetDefault(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog == nil {
			return
		}
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// loadConfig bootstraps <dataDir>/config.yml (or reads explicit), applies
// env overrides and makes paths absolute.
func loadConfig(dir, explicit string) (config.Config, string, error) {
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return config.Config{}, "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return config.Config{}, "", fmt.Errorf("create data dir: %w", err)
	}

	path := explicit
	if path == "" {
		path, err = config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap: %w", err)
		}
	}

	c, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("config load (%s): %w", path, err)
	}
	config.OverlayEnv(&c)
	c, v := config.NormalizeAndValidate(c)
	if !v.OK() {
		return config.Config{}, "", fmt.Errorf("config %s is invalid: %v", path, v.Errors)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(os.Stderr, "config warning: %s\n", w)
	}
	return config.Resolve(c, dir), path, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := os.Getenv("ALUMNI_DATA_DIR")
	if def == "" {
		def = "."
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", def, "engine data directory (env ALUMNI_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default <data-dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(mcpCmd)
}
