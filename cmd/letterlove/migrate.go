package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"letterlove/internal/database"
)

var migrateActions = map[string]func(*sql.DB) error{
	"up":     database.Migrate,
	"down":   database.Rollback,
	"status": database.Status,
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect database migrations",
	Long:      `Run the embedded goose migrations against the configured database. Defaults to "up".`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}
		run, ok := migrateActions[action]
		if !ok {
			return fmt.Errorf("unknown migrate action %q", action)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := run(db); err != nil {
			return err
		}
		slog.Info("migrate finished", "action", action)
		return nil
	},
}
