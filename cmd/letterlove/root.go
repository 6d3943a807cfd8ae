package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"letterlove/internal/config"
	"letterlove/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "letterlove",
	Short: "Personalized greeting cards with AI-assisted writing",
	Long: `LetterLove serves the card API and the public share pages.

Cards are created from a fixed catalog of templates, stored in PostgreSQL,
cached in Valkey, and shared through short links. An OpenAI-compatible
endpoint polishes rough drafts on request.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml when present)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(templatesCmd)
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogFormat, cfg.LogLevel)
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())
	return cfg, nil
}
