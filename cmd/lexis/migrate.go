package main

import (
	"fmt"

	"github.com/phrazzld/lexis/internal/platform/migrate"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|status|version>",
	Short: "Run database migrations for the configured driver",
	Long: `Run database migrations for the configured driver.

  up       apply all pending migrations
  down     roll back the latest migration
  status   list applied and pending migrations
  version  print the current schema version`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{migrate.Up, migrate.Down, migrate.Status, migrate.Version},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := newApplication(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	if err := app.runMigrations(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}
	return nil
}
